package optgraph

import (
	"testing"

	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// straight corridor a - b - c carrying the same two lines
func corridorGraph() *linegraph.LineGraph {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	b := g.AddNd("b", geo.NewPoint(100, 0), false, "")
	c := g.AddNd("c", geo.NewPoint(200, 0), true, "")
	l1 := g.AddLine("l1", "1", "")
	l2 := g.AddLine("l2", "2", "")
	g.AddEdg(a, b, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
	g.AddEdg(b, c, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
	return g
}

func TestBuild(t *testing.T) {
	og := New(corridorGraph())
	assert.Equal(t, 3, og.NumNds())
	assert.Len(t, og.Edgs(), 2)
	assert.Equal(t, 2, og.MaxCardinality())
}

func TestSimplifyContractsCorridor(t *testing.T) {
	og := New(corridorGraph())

	assert.True(t, og.Simplify())
	assert.Equal(t, 2, og.NumNds())

	edges := og.Edgs()
	require.Len(t, edges, 1)
	assert.Len(t, edges[0].Etgs, 2)
	assert.Equal(t, 2, edges[0].Cardinality())

	// R2: a second pass finds nothing to do
	assert.False(t, og.Simplify())
}

func TestSimplifySkipsDifferentLineSets(t *testing.T) {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	b := g.AddNd("b", geo.NewPoint(100, 0), false, "")
	c := g.AddNd("c", geo.NewPoint(200, 0), true, "")
	l1 := g.AddLine("l1", "", "")
	l2 := g.AddLine("l2", "", "")
	g.AddEdg(a, b, nil, []linegraph.LineOcc{{Line: l1}})
	g.AddEdg(b, c, nil, []linegraph.LineOcc{{Line: l2}})

	og := New(g)
	assert.False(t, og.Simplify())
	assert.Equal(t, 3, og.NumNds())
}

// Y junction: a trunk with three lines splitting onto three branches
func yGraph() (*linegraph.LineGraph, *linegraph.LineNode) {
	g := linegraph.New()
	m := g.AddNd("m", geo.NewPoint(0, 0), true, "")
	n := g.AddNd("n", geo.NewPoint(100, 0), false, "")
	b1 := g.AddNd("b1", geo.NewPoint(200, 100), true, "")
	b2 := g.AddNd("b2", geo.NewPoint(200, 0), true, "")
	b3 := g.AddNd("b3", geo.NewPoint(200, -100), true, "")
	l1 := g.AddLine("l1", "", "")
	l2 := g.AddLine("l2", "", "")
	l3 := g.AddLine("l3", "", "")
	g.AddEdg(m, n, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}, {Line: l3}})
	g.AddEdg(n, b1, nil, []linegraph.LineOcc{{Line: l1}})
	g.AddEdg(n, b2, nil, []linegraph.LineOcc{{Line: l2}})
	g.AddEdg(n, b3, nil, []linegraph.LineOcc{{Line: l3}})
	return g, n
}

func TestUntangleY(t *testing.T) {
	g, _ := yGraph()
	og := New(g)

	require.True(t, og.Untangle())

	// the trunk is cloned onto the branches, every remaining edge carries a
	// single line
	for _, e := range og.Edgs() {
		assert.LessOrEqual(t, e.Cardinality(), 1)
	}

	// a following simplify merges the clones into the branches
	for og.Simplify() {
	}
	assert.Len(t, og.Edgs(), 3)
}

func TestOptimizeYToFixpoint(t *testing.T) {
	g, _ := yGraph()
	og := New(g)
	og.Optimize()

	for _, e := range og.Edgs() {
		assert.Equal(t, 1, e.Cardinality())
	}
	// idempotent
	assert.False(t, og.Simplify())
	assert.False(t, og.Untangle())
}

// two lines crossing at a degree-2 node: [l1 l2] arrives, [l2 l1] leaves
func fullCrossGraph() *linegraph.LineGraph {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	n := g.AddNd("n", geo.NewPoint(100, 0), false, "")
	b := g.AddNd("b", geo.NewPoint(200, 0), true, "")
	l1 := g.AddLine("l1", "", "")
	l2 := g.AddLine("l2", "", "")
	g.AddEdg(a, n, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
	g.AddEdg(n, b, nil, []linegraph.LineOcc{{Line: l2}, {Line: l1}})
	return g
}

func TestUntangleFullCross(t *testing.T) {
	og := New(fullCrossGraph())

	// simplify must leave the swapped bundle alone
	assert.False(t, og.Simplify())

	require.True(t, og.Untangle())

	// the crossing node explodes into two single-line corridors
	for _, e := range og.Edgs() {
		assert.Equal(t, 1, e.Cardinality())
	}

	og.Optimize()
	assert.Len(t, og.Edgs(), 2)
}

func TestUntangleStump(t *testing.T) {
	g := linegraph.New()
	hub := g.AddNd("h", geo.NewPoint(0, 0), true, "")
	x := g.AddNd("x", geo.NewPoint(100, 0), true, "")
	stub := g.AddNd("s", geo.NewPoint(0, 50), false, "")
	l1 := g.AddLine("l1", "", "")
	l2 := g.AddLine("l2", "", "")
	l3 := g.AddLine("l3", "", "")
	g.AddEdg(hub, x, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
	g.AddEdg(hub, stub, nil, []linegraph.LineOcc{{Line: l3}})

	og := New(g)
	require.True(t, og.untangleStumpStep())
	assert.Len(t, og.Edgs(), 1)
	assert.Equal(t, 2, og.NumNds())
}

func TestStumpKeepsSharedLines(t *testing.T) {
	g := linegraph.New()
	hub := g.AddNd("h", geo.NewPoint(0, 0), true, "")
	x := g.AddNd("x", geo.NewPoint(100, 0), true, "")
	stub := g.AddNd("s", geo.NewPoint(0, 50), false, "")
	l1 := g.AddLine("l1", "", "")
	g.AddEdg(hub, x, nil, []linegraph.LineOcc{{Line: l1}})
	g.AddEdg(hub, stub, nil, []linegraph.LineOcc{{Line: l1}})

	og := New(g)
	assert.False(t, og.untangleStumpStep())
}

// a trunk where only one line separates cleanly: l1 has its own branch,
// l2 continues into two branches so the full Y cannot fire
func TestUntanglePartialY(t *testing.T) {
	g := linegraph.New()
	m := g.AddNd("m", geo.NewPoint(0, 0), true, "")
	n := g.AddNd("n", geo.NewPoint(100, 0), false, "")
	b1 := g.AddNd("b1", geo.NewPoint(200, 100), true, "")
	b2 := g.AddNd("b2", geo.NewPoint(200, 0), true, "")
	b3 := g.AddNd("b3", geo.NewPoint(200, -100), true, "")
	l1 := g.AddLine("l1", "", "")
	l2 := g.AddLine("l2", "", "")
	g.AddEdg(m, n, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
	g.AddEdg(n, b1, nil, []linegraph.LineOcc{{Line: l1}})
	g.AddEdg(n, b2, nil, []linegraph.LineOcc{{Line: l2}})
	g.AddEdg(n, b3, nil, []linegraph.LineOcc{{Line: l2}})

	og := New(g)

	// the ambiguous l2 branch blocks the full rewrite
	require.False(t, og.untangleYStep())
	require.True(t, og.untanglePartialYStep())

	// n explodes into two nodes, the separable trunk portion carries l1
	assert.Equal(t, 6, og.NumNds())
	assert.Len(t, og.Edgs(), 5)

	var om *OptNode
	for _, nd := range og.Nds {
		if nd.P == m {
			om = nd
		}
	}
	require.NotNil(t, om)
	require.Equal(t, 2, om.Deg())

	var sep, rest *OptEdge
	for _, e := range om.Adj {
		if e.Cardinality() == 1 && e.HasLine(l1) {
			sep = e
		} else if e.Cardinality() == 1 && e.HasLine(l2) {
			rest = e
		}
	}
	require.NotNil(t, sep)
	require.NotNil(t, rest)
	// the separable portion shares its node with the l1 branch only
	assert.Equal(t, 2, sep.OtherNd(om).Deg())
	assert.Equal(t, 3, rest.OtherNd(om).Deg())
}

// a bone that splits cleanly at one junction only: the other end keeps both
// duplicates attached
func TestUntanglePartialDogBone(t *testing.T) {
	g := linegraph.New()
	u := g.AddNd("u", geo.NewPoint(0, 0), false, "")
	v := g.AddNd("v", geo.NewPoint(100, 0), false, "")
	a1 := g.AddNd("a1", geo.NewPoint(-100, 100), true, "")
	a2 := g.AddNd("a2", geo.NewPoint(-100, -100), true, "")
	c1 := g.AddNd("c1", geo.NewPoint(200, 50), true, "")
	c2 := g.AddNd("c2", geo.NewPoint(200, -50), true, "")
	l1 := g.AddLine("l1", "", "")
	l2 := g.AddLine("l2", "", "")
	g.AddEdg(a1, u, nil, []linegraph.LineOcc{{Line: l1}})
	g.AddEdg(a2, u, nil, []linegraph.LineOcc{{Line: l2}})
	g.AddEdg(u, v, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
	// l2 continues into both v-branches, v does not split cleanly
	g.AddEdg(v, c1, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
	g.AddEdg(v, c2, nil, []linegraph.LineOcc{{Line: l2}})

	og := New(g)
	var ov *OptNode
	for _, nd := range og.Nds {
		if nd.P == v {
			ov = nd
		}
	}
	require.NotNil(t, ov)

	require.False(t, og.untangleDogBoneStep())
	require.True(t, og.untanglePartialDogBoneStep())

	// u explodes into two nodes, both bone halves stay attached at v
	assert.Equal(t, 7, og.NumNds())
	assert.Len(t, og.Edgs(), 6)
	assert.Equal(t, 4, ov.Deg())

	bones := 0
	for _, e := range ov.Adj {
		if e.Cardinality() == 1 && (e.HasLine(l1) || e.HasLine(l2)) &&
			e.OtherNd(ov).P == nil {
			bones++
		}
	}
	assert.Equal(t, 2, bones)
}

func TestUntangleDogBone(t *testing.T) {
	g := linegraph.New()
	u := g.AddNd("u", geo.NewPoint(0, 0), false, "")
	v := g.AddNd("v", geo.NewPoint(100, 0), false, "")
	a1 := g.AddNd("a1", geo.NewPoint(-100, 50), true, "")
	a2 := g.AddNd("a2", geo.NewPoint(-100, -50), true, "")
	c1 := g.AddNd("c1", geo.NewPoint(200, 50), true, "")
	c2 := g.AddNd("c2", geo.NewPoint(200, -50), true, "")
	l1 := g.AddLine("l1", "", "")
	l2 := g.AddLine("l2", "", "")
	g.AddEdg(a1, u, nil, []linegraph.LineOcc{{Line: l1}})
	g.AddEdg(a2, u, nil, []linegraph.LineOcc{{Line: l2}})
	g.AddEdg(u, v, nil, []linegraph.LineOcc{{Line: l1}, {Line: l2}})
	g.AddEdg(v, c1, nil, []linegraph.LineOcc{{Line: l1}})
	g.AddEdg(v, c2, nil, []linegraph.LineOcc{{Line: l2}})

	og := New(g)
	og.Optimize()

	// the bone duplicates and merges into two disjoint line paths
	for _, e := range og.Edgs() {
		assert.Equal(t, 1, e.Cardinality())
	}
}

func TestWriteEdgeOrder(t *testing.T) {
	g := corridorGraph()
	og := New(g)

	edges := og.Edgs()
	cfg := NullCfg(edges)
	// flip the order on both edges
	for _, e := range edges {
		cfg[e] = []*linegraph.Line{cfg[e][1], cfg[e][0]}
	}
	WriteEdgeOrder(cfg)

	for _, e := range g.Edgs() {
		assert.Equal(t, "l2", e.Lines[0].Line.ID)
		assert.Equal(t, "l1", e.Lines[1].Line.ID)
	}
}
