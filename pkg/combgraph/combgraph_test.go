package combgraph

import (
	"testing"

	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain a - b - c - d with a junction arm at c
func buildChainGraph() *linegraph.LineGraph {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	b := g.AddNd("b", geo.NewPoint(50, 0), false, "")
	c := g.AddNd("c", geo.NewPoint(100, 0), false, "")
	d := g.AddNd("d", geo.NewPoint(200, 0), true, "")
	arm := g.AddNd("e", geo.NewPoint(100, 100), true, "")
	l := g.AddLine("l1", "1", "#f00")
	l2 := g.AddLine("l2", "2", "#0f0")
	g.AddEdg(a, b, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(b, c, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(c, d, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(c, arm, nil, []linegraph.LineOcc{{Line: l2}})
	return g
}

func TestDeg2Contraction(t *testing.T) {
	g := buildChainGraph()
	cg := New(g, true)

	// b is contracted away, a/c/d/e remain
	assert.Len(t, cg.Nds, 4)
	assert.Len(t, cg.Edgs, 3)

	var chain *CombEdge
	for _, e := range cg.Edgs {
		if len(e.Chain) == 2 {
			chain = e
		}
	}
	require.NotNil(t, chain, "a-b-c must contract into one comb edge")
	assert.InDelta(t, 100.0, chain.Course.Length(), 1e-9)
}

func TestNoContraction(t *testing.T) {
	g := buildChainGraph()
	cg := New(g, false)
	assert.Len(t, cg.Nds, 5)
	assert.Len(t, cg.Edgs, 4)
}

func TestDeg2Cycle(t *testing.T) {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), false, "")
	b := g.AddNd("b", geo.NewPoint(10, 0), false, "")
	c := g.AddNd("c", geo.NewPoint(5, 10), false, "")
	l := g.AddLine("l", "", "")
	g.AddEdg(a, b, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(b, c, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(c, a, nil, []linegraph.LineOcc{{Line: l}})

	cg := New(g, true)
	// the cycle is broken at one node
	require.NotEmpty(t, cg.Nds)
	total := 0
	for _, e := range cg.Edgs {
		total += len(e.Chain)
	}
	assert.Equal(t, 3, total)
}

func TestClockwiseEdges(t *testing.T) {
	g := linegraph.New()
	c := g.AddNd("c", geo.NewPoint(0, 0), false, "")
	n := g.AddNd("n", geo.NewPoint(0, 100), false, "")
	e := g.AddNd("e", geo.NewPoint(100, 0), false, "")
	s := g.AddNd("s", geo.NewPoint(0, -100), false, "")
	w := g.AddNd("w", geo.NewPoint(-100, 0), false, "")
	l := g.AddLine("l", "", "")
	// insertion order deliberately scrambled
	g.AddEdg(c, w, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(c, n, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(c, s, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(c, e, nil, []linegraph.LineOcc{{Line: l}})

	cg := New(g, true)
	var cn *CombNode
	for _, nd := range cg.Nds {
		if nd.P.ID == "c" {
			cn = nd
		}
	}
	require.NotNil(t, cn)

	ord := cn.ClockwiseEdges()
	require.Len(t, ord, 4)
	ids := []string{}
	for _, ce := range ord {
		ids = append(ids, ce.OtherNd(cn).P.ID)
	}
	// clockwise starting north
	assert.Equal(t, []string{"n", "e", "s", "w"}, ids)
}
