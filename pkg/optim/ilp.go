package optim

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/pvnkmrksk/magga/pkg/optgraph"
	"github.com/pvnkmrksk/magga/pkg/solver"
)

// ILPOptimizer models the ordering problem as a mixed integer program:
// binary assignment variables place every line at one position per edge,
// auxiliary order and adjacency variables linearize the crossing and
// separation counts. The back-end is a black box behind solver.Solver.
type ILPOptimizer struct {
	solver  solver.Solver
	timeLim time.Duration
	pens    Pens
}

func NewILPOptimizer(s solver.Solver, timeLim time.Duration, pens Pens) *ILPOptimizer {
	return &ILPOptimizer{solver: s, timeLim: timeLim, pens: pens}
}

type ilpModel struct {
	m *solver.Model

	// x[e][l][p]
	x map[*optgraph.OptEdge]map[*linegraph.Line][]int
	// o[e][pair] = 1 iff pair.a sits before pair.b in e's stored order
	o map[*optgraph.OptEdge]map[linePair]int
	// adj[e][pair] = 1 iff the pair is adjacent on e
	adj map[*optgraph.OptEdge]map[linePair]int
}

func (o *ILPOptimizer) OptimizeComp(comp []*optgraph.OptNode, cfg optgraph.OrderCfg, depth int) error {
	im := o.buildModel(comp)

	res, err := o.solver.Solve(context.Background(), im.m, o.timeLim)
	if err != nil {
		return err
	}

	for e, byLine := range im.x {
		type linePos struct {
			l *linegraph.Line
			p int
		}
		lps := make([]linePos, 0, len(byLine))
		for l, xs := range byLine {
			pos := 0
			for p, v := range xs {
				if res.Values[v] > 0.5 {
					pos = p
				}
			}
			lps = append(lps, linePos{l: l, p: pos})
		}
		sort.Slice(lps, func(i, j int) bool { return lps[i].p < lps[j].p })
		perm := make([]*linegraph.Line, 0, len(lps))
		for _, lp := range lps {
			perm = append(perm, lp.l)
		}
		cfg[e] = perm
	}
	return nil
}

func (o *ILPOptimizer) buildModel(comp []*optgraph.OptNode) *ilpModel {
	im := &ilpModel{
		m:   solver.NewModel(),
		x:   make(map[*optgraph.OptEdge]map[*linegraph.Line][]int),
		o:   make(map[*optgraph.OptEdge]map[linePair]int),
		adj: make(map[*optgraph.OptEdge]map[linePair]int),
	}

	for _, e := range compEdges(comp) {
		o.addAssignment(im, e)
	}

	for _, n := range comp {
		o.addNodeTerms(im, n)
	}

	return im
}

// addAssignment creates the position variables of one edge: every position
// holds exactly one line, every line one position.
func (o *ILPOptimizer) addAssignment(im *ilpModel, e *optgraph.OptEdge) {
	card := e.Cardinality()
	im.x[e] = make(map[*linegraph.Line][]int, card)
	im.o[e] = make(map[linePair]int)
	im.adj[e] = make(map[linePair]int)

	for li, lo := range e.Lines {
		xs := make([]int, card)
		for p := 0; p < card; p++ {
			xs[p] = im.m.AddVar(fmt.Sprintf("x_%p_%d_%d", e, li, p), solver.Binary, 0, 1, 0)
		}
		im.x[e][lo.Line] = xs
	}

	for p := 0; p < card; p++ {
		terms := []solver.Term{}
		for _, xs := range im.x[e] {
			terms = append(terms, solver.Term{Var: xs[p], Coef: 1})
		}
		im.m.AddEQ("pos_one_line", terms, 1)
	}
	for _, xs := range im.x[e] {
		terms := []solver.Term{}
		for p := 0; p < card; p++ {
			terms = append(terms, solver.Term{Var: xs[p], Coef: 1})
		}
		im.m.AddEQ("line_one_pos", terms, 1)
	}
}

// posTerms is the position expression sum_p p * x[e,l,p].
func (im *ilpModel) posTerms(e *optgraph.OptEdge, l *linegraph.Line, coef float64) []solver.Term {
	terms := []solver.Term{}
	for p, v := range im.x[e][l] {
		if p == 0 {
			continue
		}
		terms = append(terms, solver.Term{Var: v, Coef: coef * float64(p)})
	}
	return terms
}

// orderVar returns (creating on demand) the binary that is 1 iff lp.a sits
// before lp.b in e's stored transversal order.
func (im *ilpModel) orderVar(e *optgraph.OptEdge, lp linePair) int {
	if v, ok := im.o[e][lp]; ok {
		return v
	}
	v := im.m.AddVar("ord", solver.Binary, 0, 1, 0)
	im.o[e][lp] = v

	card := float64(e.Cardinality())

	// o=1 forces pos(a) < pos(b), o=0 the opposite
	terms := im.posTerms(e, lp.a, 1)
	terms = append(terms, im.posTerms(e, lp.b, -1)...)
	terms = append(terms, solver.Term{Var: v, Coef: card})
	im.m.AddLE("ord_lt", terms, card-1)

	terms = im.posTerms(e, lp.b, 1)
	terms = append(terms, im.posTerms(e, lp.a, -1)...)
	terms = append(terms, solver.Term{Var: v, Coef: -card})
	im.m.AddLE("ord_gt", terms, -1)

	return v
}

// adjVar returns the binary that is 1 iff the pair is adjacent on e.
func (im *ilpModel) adjVar(e *optgraph.OptEdge, lp linePair) int {
	if v, ok := im.adj[e][lp]; ok {
		return v
	}
	card := e.Cardinality()
	a := im.m.AddVar("adj", solver.Binary, 0, 1, 0)
	im.adj[e][lp] = a

	ys := []solver.Term{}
	addNeighborhood := func(l1, l2 *linegraph.Line) {
		for p := 0; p < card-1; p++ {
			y := im.m.AddVar("adj_y", solver.Binary, 0, 1, 0)
			x1 := im.x[e][l1][p]
			x2 := im.x[e][l2][p+1]
			im.m.AddGE("y_and", []solver.Term{
				{Var: y, Coef: 1}, {Var: x1, Coef: -1}, {Var: x2, Coef: -1},
			}, -1)
			im.m.AddLE("y_le1", []solver.Term{{Var: y, Coef: 1}, {Var: x1, Coef: -1}}, 0)
			im.m.AddLE("y_le2", []solver.Term{{Var: y, Coef: 1}, {Var: x2, Coef: -1}}, 0)
			ys = append(ys, solver.Term{Var: y, Coef: 1})
		}
	}
	addNeighborhood(lp.a, lp.b)
	addNeighborhood(lp.b, lp.a)

	// adjacency is the disjunction of the neighborhood indicators, at most
	// one of them can be 1
	terms := append([]solver.Term{{Var: a, Coef: 1}}, negate(ys)...)
	im.m.AddEQ("adj_sum", terms, 0)

	return a
}

func negate(terms []solver.Term) []solver.Term {
	out := make([]solver.Term, len(terms))
	for i, t := range terms {
		out[i] = solver.Term{Var: t.Var, Coef: -t.Coef}
	}
	return out
}

// addNodeTerms writes the crossing and separation costs of one node into the
// objective.
func (o *ILPOptimizer) addNodeTerms(im *ilpModel, n *optgraph.OptNode) {
	scorer := NewScorer(o.pens)

	cw := n.ClockwiseEdges()
	cwIdx := make(map[*optgraph.OptEdge]int, len(cw))
	for i, e := range cw {
		cwIdx[e] = i
	}
	cwDist := func(from, to *optgraph.OptEdge) int {
		return (cwIdx[to] - cwIdx[from] + len(cw)) % len(cw)
	}

	proced := make(map[linePair]map[*optgraph.OptEdge]bool)

	for _, ea := range n.Adj {
		for _, lp := range linePairs(ea) {
			if proced[lp] == nil {
				proced[lp] = make(map[*optgraph.OptEdge]bool)
			}
			proced[lp][ea] = true

			// orientation of the stored order seen at n: +1 keeps it, -1
			// flips it
			sA, kA := orientCoef(ea, n, true)

			for _, eb := range edgePartners(n, ea, lp) {
				if proced[lp][eb] {
					continue
				}
				oa := im.orderVar(ea, lp)
				ob := im.orderVar(eb, lp)
				sB, kB := orientCoef(eb, n, false)

				// cross = inA XOR outB with inA = kA + sA*oa
				c := im.m.AddVar("cross", solver.Binary, 0, 1, scorer.crossSameSegPen(n))
				im.m.AddGE("cross_a", []solver.Term{
					{Var: c, Coef: 1}, {Var: oa, Coef: -sA}, {Var: ob, Coef: sB},
				}, kA-kB)
				im.m.AddGE("cross_b", []solver.Term{
					{Var: c, Coef: 1}, {Var: oa, Coef: sA}, {Var: ob, Coef: -sB},
				}, kB-kA)

				// separation: adjacent on ea but not on eb
				aa := im.adjVar(ea, lp)
				ab := im.adjVar(eb, lp)
				s := im.m.AddVar("sep", solver.Binary, 0, 1, scorer.splitPen(n))
				im.m.AddGE("sep_def", []solver.Term{
					{Var: s, Coef: 1}, {Var: aa, Coef: -1}, {Var: ab, Coef: 1},
				}, 0)
			}

			for _, ebc := range edgePartnerPairs(n, ea, lp) {
				oa := im.orderVar(ea, lp)
				// the side the pair leaves through is fixed by the topology,
				// crossing is then linear in the order variable alone
				if cwDist(ea, ebc[0]) < cwDist(ea, ebc[1]) {
					// cross iff inA == 0: pen * (1 - inA), constants drop
					im.m.AddObj(oa, -sA*scorer.crossDiffSegPen(n))
				} else {
					im.m.AddObj(oa, sA*scorer.crossDiffSegPen(n))
				}
			}
		}
	}
}

// orientCoef expresses the node-oriented order bit as k + s*o of the stored
// order bit. toward selects walking into n, away walking out.
func orientCoef(e *optgraph.OptEdge, n *optgraph.OptNode, toward bool) (float64, float64) {
	keep := e.To == n
	if !toward {
		keep = e.From == n
	}
	if keep {
		return 1, 0
	}
	return -1, 1
}
