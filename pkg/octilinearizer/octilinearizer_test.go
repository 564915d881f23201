package octilinearizer

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/pvnkmrksk/magga/pkg/basegraph"
	"github.com/pvnkmrksk/magga/pkg/combgraph"
	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPens() basegraph.Penalties {
	return basegraph.Penalties{
		P0:   0,
		P45:  3,
		P90:  1.5,
		P135: 1,

		Hop:           0,
		VerticalPen:   1,
		HorizontalPen: 1,
		DiagonalPen:   1,

		DensityPen:      0,
		DisplacementPen: 2,
		SinkPen:         0,
	}
}

func testCfg() Config {
	cfg := DefaultConfig()
	cfg.GridSize = 10
	cfg.BorderRad = 0
	cfg.MaxGrDist = 3
	cfg.Pens = testPens()
	return cfg
}

func quietLogger() *log.Logger {
	l := log.Default()
	l.SetLevel(log.ErrorLevel)
	return l
}

// two-node, one-line graph: a straight horizontal run of ten hops
func TestDrawStraightLine(t *testing.T) {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	b := g.AddNd("b", geo.NewPoint(100, 0), true, "")
	l := g.AddLine("l", "1", "#f00")
	g.AddEdg(a, b, nil, []linegraph.LineOcc{{Line: l}})

	oc := New(testCfg(), quietLogger())
	cg := combgraph.New(g, true)
	// box aligned so the stations sit exactly on cell centers
	box := geo.BBox{Min: geo.NewPoint(-10, -10), Max: geo.NewPoint(110, 10)}

	out, score, err := oc.DrawComb(cg, box)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, score.Hop, 1e-9)
	assert.InDelta(t, 0.0, score.Bend, 1e-9)
	assert.InDelta(t, 0.0, score.Move, 1e-9)
	assert.InDelta(t, 10.0, score.Sum(), 1e-9)

	edges := out.Edgs()
	require.Len(t, edges, 1)
	assert.InDelta(t, 100.0, edges[0].Course.Length(), 1e-9)
}

// L-shaped three-node graph: one 90 degree bend at the middle station
func TestDrawLShape(t *testing.T) {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	b := g.AddNd("b", geo.NewPoint(100, 0), true, "")
	c := g.AddNd("c", geo.NewPoint(100, 100), true, "")
	l := g.AddLine("l", "1", "")
	g.AddEdg(a, b, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(b, c, nil, []linegraph.LineOcc{{Line: l}})

	cfg := testCfg()
	cfg.Deg2Heur = false
	oc := New(cfg, quietLogger())
	cg := combgraph.New(g, cfg.Deg2Heur)
	box := geo.BBox{Min: geo.NewPoint(-10, -10), Max: geo.NewPoint(110, 110)}

	_, score, err := oc.DrawComb(cg, box)
	require.NoError(t, err)

	pens := testPens()
	assert.InDelta(t, 20.0, score.Hop, 1e-9)
	assert.InDelta(t, pens.P90, score.Bend, 1e-9)
	assert.InDelta(t, 20.0*pens.HorizontalPen+pens.P90, score.Sum(), 1e-9)
}

// empty graph: zero-score drawing, no failure
func TestDrawEmptyGraph(t *testing.T) {
	oc := New(testCfg(), quietLogger())
	out, score, err := oc.Draw(linegraph.New())
	require.NoError(t, err)
	assert.Equal(t, 0.0, score.Sum())
	assert.Equal(t, 0, out.NumNds())
}

// single node: settled at the nearest grid cell, zero hop and bend
func TestDrawSingleNode(t *testing.T) {
	g := linegraph.New()
	g.AddNd("a", geo.NewPoint(50, 50), true, "Solo")

	oc := New(testCfg(), quietLogger())
	out, score, err := oc.Draw(g)
	require.NoError(t, err)

	assert.Equal(t, 1, out.NumNds())
	assert.Equal(t, 0.0, score.Hop)
	assert.Equal(t, 0.0, score.Bend)
}

// obstacle covering the straight route: the embedding must detour
func TestDrawObstacleDetour(t *testing.T) {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	b := g.AddNd("b", geo.NewPoint(100, 0), true, "")
	l := g.AddLine("l", "", "")
	g.AddEdg(a, b, nil, []linegraph.LineOcc{{Line: l}})

	cfg := testCfg()
	cfg.Obstacles = [][]geo.Point{{
		geo.NewPoint(35, -25), geo.NewPoint(65, -25),
		geo.NewPoint(65, 25), geo.NewPoint(35, 25),
	}}
	oc := New(cfg, quietLogger())
	cg := combgraph.New(g, true)
	box := geo.BBox{Min: geo.NewPoint(-10, -40), Max: geo.NewPoint(110, 40)}

	out, score, err := oc.DrawComb(cg, box)
	require.NoError(t, err)

	edges := out.Edgs()
	require.Len(t, edges, 1)
	// the detour is strictly longer than the straight line and bends
	assert.Greater(t, edges[0].Course.Length(), 100.0)
	assert.Greater(t, score.Bend, 0.0)
	assert.Greater(t, score.Sum(), 10.0)
}

func TestGetOrderingDeterministic(t *testing.T) {
	g := linegraph.New()
	hub := g.AddNd("h", geo.NewPoint(0, 0), false, "")
	n := g.AddNd("n", geo.NewPoint(0, 100), true, "")
	e := g.AddNd("e", geo.NewPoint(100, 0), true, "")
	s := g.AddNd("s", geo.NewPoint(0, -100), true, "")
	l := g.AddLine("l", "", "")
	g.AddEdg(hub, n, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(hub, e, nil, []linegraph.LineOcc{{Line: l}})
	g.AddEdg(hub, s, nil, []linegraph.LineOcc{{Line: l}})

	cg := combgraph.New(g, true)
	o1 := getOrdering(cg, false, nil)
	o2 := getOrdering(cg, false, nil)

	require.Len(t, o1, 3)
	for i := range o1 {
		assert.Same(t, o1[i], o2[i])
	}
	// the hub seeds the order, its clockwise fan is followed
	assert.Equal(t, "n", o1[0].OtherNd(o1[0].From).P.ID)
}

// the embedded drawing respects the resident uniqueness of hop edges
func TestDrawResidentUniqueness(t *testing.T) {
	g := linegraph.New()
	hub := g.AddNd("h", geo.NewPoint(50, 50), false, "")
	n := g.AddNd("n", geo.NewPoint(50, 100), true, "")
	e := g.AddNd("e", geo.NewPoint(100, 50), true, "")
	s := g.AddNd("s", geo.NewPoint(50, 0), true, "")
	w := g.AddNd("w", geo.NewPoint(0, 50), true, "")
	l := g.AddLine("l", "", "")
	for _, nd := range []*linegraph.LineNode{n, e, s, w} {
		g.AddEdg(hub, nd, nil, []linegraph.LineOcc{{Line: l}})
	}

	oc := New(testCfg(), quietLogger())
	cg := combgraph.New(g, true)
	box := geo.BBox{Min: geo.NewPoint(-10, -10), Max: geo.NewPoint(110, 110)}

	out, _, err := oc.DrawComb(cg, box)
	require.NoError(t, err)
	assert.Len(t, out.Edgs(), 4)

	// every hop edge carries at most one comb edge, so the four arms leave
	// the hub through four distinct ports
	courses := map[string]bool{}
	for _, e := range out.Edgs() {
		require.GreaterOrEqual(t, len(e.Course), 2)
		key := ""
		for _, p := range e.Course[:2] {
			key += "|" + p.String()
		}
		courses[key] = true
	}
	assert.Len(t, courses, 4)
}
