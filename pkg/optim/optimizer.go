package optim

import (
	"github.com/charmbracelet/log"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/pvnkmrksk/magga/pkg/optgraph"
	"github.com/pvnkmrksk/magga/pkg/util"
)

// Optimizer assigns a line permutation to every edge of one connected
// component, writing into cfg.
type Optimizer interface {
	OptimizeComp(comp []*optgraph.OptNode, cfg optgraph.OrderCfg, depth int) error
}

// compEdges lists the component's edges in deterministic order.
func compEdges(comp []*optgraph.OptNode) []*optgraph.OptEdge {
	seen := make(map[*optgraph.OptEdge]struct{})
	out := []*optgraph.OptEdge{}
	for _, n := range comp {
		for _, e := range n.Adj {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

func maxCardinality(comp []*optgraph.OptNode) int {
	m := 0
	for _, e := range compEdges(comp) {
		if e.Cardinality() > m {
			m = e.Cardinality()
		}
	}
	return m
}

// solutionSpaceSize is the product of the per-edge permutation counts.
func solutionSpaceSize(comp []*optgraph.OptNode) float64 {
	s := 1.0
	for _, e := range compEdges(comp) {
		s *= util.Factorial(e.Cardinality())
	}
	return s
}

// NullOptimizer keeps the input order of every edge.
type NullOptimizer struct{}

func (o NullOptimizer) OptimizeComp(comp []*optgraph.OptNode, cfg optgraph.OrderCfg, depth int) error {
	for e, perm := range optgraph.NullCfg(compEdges(comp)) {
		cfg[e] = perm
	}
	return nil
}

// ExhaustiveOptimizer tries every permutation on every edge of the
// component and keeps the minimum.
type ExhaustiveOptimizer struct {
	scorer *Scorer

	// fallback guard, components above this are not enumerable
	MaxSpace float64
}

func NewExhaustiveOptimizer(scorer *Scorer) *ExhaustiveOptimizer {
	return &ExhaustiveOptimizer{scorer: scorer, MaxSpace: 1e6}
}

func (o *ExhaustiveOptimizer) OptimizeComp(comp []*optgraph.OptNode, cfg optgraph.OrderCfg, depth int) error {
	if solutionSpaceSize(comp) > o.MaxSpace {
		return NullOptimizer{}.OptimizeComp(comp, cfg, depth)
	}

	edges := compEdges(comp)

	perms := make([][][]*linegraph.Line, len(edges))
	for i, e := range edges {
		lines := make([]*linegraph.Line, 0, len(e.Lines))
		for _, lo := range e.Lines {
			lines = append(lines, lo.Line)
		}
		perms[i] = permutations(lines)
	}

	best := optgraph.OrderCfg{}
	bestScore := -1.0

	cur := optgraph.OrderCfg{}
	var walk func(i int)
	walk = func(i int) {
		if i == len(edges) {
			score := o.scorer.Score(comp, cur)
			if bestScore < 0 || score < bestScore {
				bestScore = score
				for e, p := range cur {
					best[e] = append([]*linegraph.Line{}, p...)
				}
			}
			return
		}
		for _, p := range perms[i] {
			cur[edges[i]] = p
			walk(i + 1)
		}
	}
	walk(0)

	for e, p := range best {
		cfg[e] = p
	}
	return nil
}

func permutations(lines []*linegraph.Line) [][]*linegraph.Line {
	if len(lines) == 0 {
		return [][]*linegraph.Line{{}}
	}
	out := [][]*linegraph.Line{}
	var heaps func(k int, arr []*linegraph.Line)
	heaps = func(k int, arr []*linegraph.Line) {
		if k == 1 {
			out = append(out, append([]*linegraph.Line{}, arr...))
			return
		}
		for i := 0; i < k; i++ {
			heaps(k-1, arr)
			if k%2 == 0 {
				arr[i], arr[k-1] = arr[k-1], arr[i]
			} else {
				arr[0], arr[k-1] = arr[k-1], arr[0]
			}
		}
	}
	heaps(len(lines), append([]*linegraph.Line{}, lines...))
	return out
}

// CombOptimizer dispatches per component: trivial components are skipped,
// small solution spaces are enumerated, everything else goes to the ILP with
// an exhaustive fallback.
type CombOptimizer struct {
	scorer *Scorer
	null   NullOptimizer
	exhaus *ExhaustiveOptimizer
	ilp    *ILPOptimizer
	log    *log.Logger
}

func NewCombOptimizer(pens Pens, ilp *ILPOptimizer, logger *log.Logger) *CombOptimizer {
	if logger == nil {
		logger = log.Default()
	}
	scorer := NewScorer(pens)
	return &CombOptimizer{
		scorer: scorer,
		exhaus: NewExhaustiveOptimizer(scorer),
		ilp:    ilp,
		log:    logger,
	}
}

func (co *CombOptimizer) Scorer() *Scorer {
	return co.scorer
}

// Optimize rewrites the graph to fixpoint, then optimizes every component.
func (co *CombOptimizer) Optimize(og *optgraph.OptGraph) (optgraph.OrderCfg, error) {
	og.Optimize()

	cfg := optgraph.OrderCfg{}
	for _, comp := range og.Components() {
		if err := co.OptimizeComp(comp, cfg, 0); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (co *CombOptimizer) OptimizeComp(comp []*optgraph.OptNode, cfg optgraph.OrderCfg, depth int) error {
	maxC := maxCardinality(comp)
	solSp := solutionSpaceSize(comp)

	co.log.Debug("optimizing component",
		"nodes", len(comp), "maxCardinality", maxC, "solutionSpace", solSp, "depth", depth)

	switch {
	case maxC <= 1:
		return co.null.OptimizeComp(comp, cfg, depth+1)
	case solSp < 10:
		return co.exhaus.OptimizeComp(comp, cfg, depth+1)
	default:
		if co.ilp == nil {
			return co.exhaus.OptimizeComp(comp, cfg, depth+1)
		}
		if err := co.ilp.OptimizeComp(comp, cfg, depth+1); err != nil {
			co.log.Warn("ilp failed, falling back to exhaustive", "err", err)
			return co.exhaus.OptimizeComp(comp, cfg, depth+1)
		}
		return nil
	}
}
