package optim

import (
	"context"
	"testing"
	"time"

	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/pvnkmrksk/magga/pkg/optgraph"
	"github.com/pvnkmrksk/magga/pkg/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dense corridor between two junctions, both edge orders free
func denseCorridor(lines int) *optgraph.OptGraph {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	n := g.AddNd("n", geo.NewPoint(100, 0), false, "")
	b := g.AddNd("b", geo.NewPoint(200, 0), true, "")

	occA := []linegraph.LineOcc{}
	occB := []linegraph.LineOcc{}
	for i := 0; i < lines; i++ {
		l := g.AddLine(string(rune('a'+i)), "", "")
		occA = append(occA, linegraph.LineOcc{Line: l})
		// reversed input order on the second edge
		occB = append([]linegraph.LineOcc{{Line: l}}, occB...)
	}
	g.AddEdg(a, n, nil, occA)
	g.AddEdg(n, b, nil, occB)
	return optgraph.New(g)
}

func TestExhaustiveFindsZeroCrossing(t *testing.T) {
	og := denseCorridor(4)
	s := NewScorer(DefaultPens())
	ex := NewExhaustiveOptimizer(s)

	comp := og.Components()[0]
	cfg := optgraph.OrderCfg{}
	require.NoError(t, ex.OptimizeComp(comp, cfg, 0))

	// 4! x 4! configurations, the optimum has neither crossings nor
	// separations
	assert.Equal(t, 0.0, s.Score(comp, cfg))
}

// exhaustive <= null on the same component; no ILP runs here
func TestOptimizerDominance(t *testing.T) {
	og := denseCorridor(3)
	s := NewScorer(DefaultPens())
	comp := og.Components()[0]

	nullCfg := optgraph.OrderCfg{}
	require.NoError(t, NullOptimizer{}.OptimizeComp(comp, nullCfg, 0))

	exCfg := optgraph.OrderCfg{}
	require.NoError(t, NewExhaustiveOptimizer(s).OptimizeComp(comp, exCfg, 0))

	assert.LessOrEqual(t, s.Score(comp, exCfg), s.Score(comp, nullCfg))
	// the reversed input order forces crossings on the null config
	assert.Greater(t, s.Score(comp, nullCfg), 0.0)
	assert.Equal(t, 0.0, s.Score(comp, exCfg))
}

type failingSolver struct{}

func (failingSolver) Solve(ctx context.Context, m *solver.Model, timeLim time.Duration) (*solver.Result, error) {
	return nil, solver.ErrSolverUnavailable
}

func TestCombOptimizerFallsBackToExhaustive(t *testing.T) {
	og := denseCorridor(3) // 3! x 3! = 36 >= 10, goes to the ilp first
	ilp := NewILPOptimizer(failingSolver{}, time.Second, DefaultPens())
	co := NewCombOptimizer(DefaultPens(), ilp, nil)

	cfg, err := co.Optimize(og)
	require.NoError(t, err)

	// after the rewrite pass the remaining components must score zero
	total := 0.0
	for _, comp := range og.Components() {
		total += co.Scorer().Score(comp, cfg)
	}
	assert.Equal(t, 0.0, total)
}

func TestCombOptimizerTrivialComponent(t *testing.T) {
	g := linegraph.New()
	a := g.AddNd("a", geo.NewPoint(0, 0), true, "")
	b := g.AddNd("b", geo.NewPoint(100, 0), true, "")
	l := g.AddLine("l", "", "")
	g.AddEdg(a, b, nil, []linegraph.LineOcc{{Line: l}})

	og := optgraph.New(g)
	co := NewCombOptimizer(DefaultPens(), nil, nil)
	cfg, err := co.Optimize(og)
	require.NoError(t, err)

	for _, e := range og.Edgs() {
		assert.Len(t, cfg[e], e.Cardinality())
	}
}

func TestSolutionSpaceSize(t *testing.T) {
	og := denseCorridor(3)
	comp := og.Components()[0]
	assert.Equal(t, 36.0, solutionSpaceSize(comp))
	assert.Equal(t, 3, maxCardinality(comp))
}

func TestPermutations(t *testing.T) {
	g := linegraph.New()
	l1 := g.AddLine("1", "", "")
	l2 := g.AddLine("2", "", "")
	l3 := g.AddLine("3", "", "")
	perms := permutations([]*linegraph.Line{l1, l2, l3})
	assert.Len(t, perms, 6)

	seen := map[string]bool{}
	for _, p := range perms {
		key := p[0].ID + p[1].ID + p[2].ID
		assert.False(t, seen[key])
		seen[key] = true
	}
}
