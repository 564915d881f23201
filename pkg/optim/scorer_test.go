package optim

import (
	"testing"

	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/pvnkmrksk/magga/pkg/optgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corridor a - n - b with two lines on both edges
func corridor() (*optgraph.OptGraph, *optgraph.OptNode) {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	n := g.AddNd("n", geo.NewPoint(100, 0), false, "")
	b := g.AddNd("b", geo.NewPoint(200, 0), true, "")
	l1 := g.AddLine("l1", "", "")
	l2 := g.AddLine("l2", "", "")
	g.AddEdg(a, n, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
	g.AddEdg(n, b, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})

	og := optgraph.New(g)
	var on *optgraph.OptNode
	for _, nd := range og.Nds {
		if nd.P == n {
			on = nd
		}
	}
	return og, on
}

func TestNumCrossingsSameSeg(t *testing.T) {
	og, n := corridor()
	s := NewScorer(DefaultPens())
	edges := og.Edgs()

	cfg := optgraph.NullCfg(edges)
	same, diff := s.NumCrossings(n, cfg)
	assert.Equal(t, 0, same)
	assert.Equal(t, 0, diff)

	// invert one edge's order: one same-segment crossing
	cfg[edges[1]] = []*linegraph.Line{cfg[edges[1]][1], cfg[edges[1]][0]}
	same, diff = s.NumCrossings(n, cfg)
	assert.Equal(t, 1, same)
	assert.Equal(t, 0, diff)
}

// swapping the orientation of an edge leaves the counts unchanged
func TestScorerOrientationSymmetry(t *testing.T) {
	build := func(flip bool) (*optgraph.OptGraph, *optgraph.OptNode, optgraph.OrderCfg) {
		g := linegraph.New()
		a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
		n := g.AddNd("n", geo.NewPoint(100, 0), false, "")
		b := g.AddNd("b", geo.NewPoint(200, 0), true, "")
		l1 := g.AddLine("l1", "", "")
		l2 := g.AddLine("l2", "", "")
		g.AddEdg(a, n, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
		if flip {
			// same geometry, edge stored the other way round: the
			// transversal order flips with it
			g.AddEdg(b, n, nil, []linegraph.LineOcc{{Line: l2}, {Line: l1}})
		} else {
			g.AddEdg(n, b, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
		}
		og := optgraph.New(g)
		var on *optgraph.OptNode
		for _, nd := range og.Nds {
			if nd.P == n {
				on = nd
			}
		}
		return og, on, optgraph.NullCfg(og.Edgs())
	}

	s := NewScorer(DefaultPens())

	og1, n1, cfg1 := build(false)
	og2, n2, cfg2 := build(true)
	_ = og1
	_ = og2

	s1, d1 := s.NumCrossings(n1, cfg1)
	s2, d2 := s.NumCrossings(n2, cfg2)
	assert.Equal(t, s1, s2)
	assert.Equal(t, d1, d2)
	assert.Equal(t, s.NumSeparations(n1, cfg1), s.NumSeparations(n2, cfg2))
}

// y junction: the left line must leave through the first clockwise branch
func TestNumCrossingsDiffSeg(t *testing.T) {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, -100), true, "")
	n := g.AddNd("n", geo.NewPoint(0, 0), false, "")
	nw := g.AddNd("nw", geo.NewPoint(-100, 100), true, "")
	ne := g.AddNd("ne", geo.NewPoint(100, 100), true, "")
	l1 := g.AddLine("l1", "", "")
	l2 := g.AddLine("l2", "", "")
	g.AddEdg(a, n, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
	g.AddEdg(n, nw, nil, []linegraph.LineOcc{{Line: l1}})
	g.AddEdg(n, ne, nil, []linegraph.LineOcc{{Line: l2}})

	og := optgraph.New(g)
	var on *optgraph.OptNode
	for _, nd := range og.Nds {
		if nd.P == n {
			on = nd
		}
	}
	require.NotNil(t, on)

	s := NewScorer(DefaultPens())
	edges := og.Edgs()
	cfg := optgraph.NullCfg(edges)

	// l1 left (west) leaving northwest: no crossing
	same, diff := s.NumCrossings(on, cfg)
	assert.Equal(t, 0, same)
	assert.Equal(t, 0, diff)

	// swap the trunk order: the pair must cross
	cfg[edges[0]] = []*linegraph.Line{cfg[edges[0]][1], cfg[edges[0]][0]}
	same, diff = s.NumCrossings(on, cfg)
	assert.Equal(t, 0, same)
	assert.Equal(t, 1, diff)
}

func TestNumSeparations(t *testing.T) {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	n := g.AddNd("n", geo.NewPoint(100, 0), false, "")
	b := g.AddNd("b", geo.NewPoint(200, 0), true, "")
	l1 := g.AddLine("l1", "", "")
	l2 := g.AddLine("l2", "", "")
	l3 := g.AddLine("l3", "", "")
	g.AddEdg(a, n, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}, {Line: l3}})
	g.AddEdg(n, b, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}, {Line: l3}})

	og := optgraph.New(g)
	var on *optgraph.OptNode
	for _, nd := range og.Nds {
		if nd.P == n {
			on = nd
		}
	}
	edges := og.Edgs()
	s := NewScorer(DefaultPens())

	cfg := optgraph.NullCfg(edges)
	assert.Equal(t, 0, s.NumSeparations(on, cfg))

	// [l1 l2 l3] vs [l2 l1 l3]: the pair (l1, l3) becomes adjacent on one
	// side only, same for (l2, l3)
	cfg[edges[1]] = []*linegraph.Line{
		cfg[edges[1]][1], cfg[edges[1]][0], cfg[edges[1]][2],
	}
	assert.Equal(t, 2, s.NumSeparations(on, cfg))
}
