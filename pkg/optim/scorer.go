package optim

import (
	"sort"

	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/pvnkmrksk/magga/pkg/optgraph"
	"gonum.org/v1/gonum/floats"
)

// Pens weighs crossings and separations, in-station events are worse than
// events at plain topological nodes.
type Pens struct {
	CrossSameSeg float64
	CrossDiffSeg float64
	Split        float64

	InStatCrossSameSeg float64
	InStatCrossDiffSeg float64
	InStatSplit        float64
}

func DefaultPens() Pens {
	return Pens{
		CrossSameSeg: 4,
		CrossDiffSeg: 1,
		Split:        3,

		InStatCrossSameSeg: 12,
		InStatCrossDiffSeg: 3,
		InStatSplit:        9,
	}
}

// Scorer counts line crossings and separations of an ordering configuration
// on the optimization graph.
type Scorer struct {
	pens Pens
}

func NewScorer(pens Pens) *Scorer {
	return &Scorer{pens: pens}
}

func (s *Scorer) crossSameSegPen(n *optgraph.OptNode) float64 {
	if n.P != nil && n.P.Station {
		return s.pens.InStatCrossSameSeg
	}
	return s.pens.CrossSameSeg
}

func (s *Scorer) crossDiffSegPen(n *optgraph.OptNode) float64 {
	if n.P != nil && n.P.Station {
		return s.pens.InStatCrossDiffSeg
	}
	return s.pens.CrossDiffSeg
}

func (s *Scorer) splitPen(n *optgraph.OptNode) float64 {
	if n.P != nil && n.P.Station {
		return s.pens.InStatSplit
	}
	return s.pens.Split
}

// Score is the full ordering score of a component.
func (s *Scorer) Score(comp []*optgraph.OptNode, cfg optgraph.OrderCfg) float64 {
	return floats.Sum([]float64{
		s.CrossingScore(comp, cfg),
		s.SplittingScore(comp, cfg),
	})
}

func (s *Scorer) CrossingScore(comp []*optgraph.OptNode, cfg optgraph.OrderCfg) float64 {
	ret := 0.0
	for _, n := range comp {
		same, diff := s.NumCrossings(n, cfg)
		ret += float64(same)*s.crossSameSegPen(n) + float64(diff)*s.crossDiffSegPen(n)
	}
	return ret
}

func (s *Scorer) SplittingScore(comp []*optgraph.OptNode, cfg optgraph.OrderCfg) float64 {
	ret := 0.0
	for _, n := range comp {
		ret += float64(s.NumSeparations(n, cfg)) * s.splitPen(n)
	}
	return ret
}

type linePair struct {
	a *linegraph.Line
	b *linegraph.Line
}

// linePairs lists the unordered line pairs of an edge, sorted by id so every
// pair appears exactly once.
func linePairs(e *optgraph.OptEdge) []linePair {
	lines := append([]optgraph.OptLO{}, e.Lines...)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Line.ID < lines[j].Line.ID
	})
	pairs := []linePair{}
	for i := 0; i < len(lines); i++ {
		for j := i + 1; j < len(lines); j++ {
			pairs = append(pairs, linePair{a: lines[i].Line, b: lines[j].Line})
		}
	}
	return pairs
}

// edgePartners lists the edges at n both pair lines continue into.
func edgePartners(n *optgraph.OptNode, ea *optgraph.OptEdge, lp linePair) []*optgraph.OptEdge {
	out := []*optgraph.OptEdge{}
	loA, okA := edgeLO(ea, lp.a)
	loB, okB := edgeLO(ea, lp.b)
	if !okA || !okB {
		return out
	}
	for _, eb := range n.Adj {
		if eb == ea {
			continue
		}
		if optgraph.ContinuedOver(loA, ea, eb, n) && optgraph.ContinuedOver(loB, ea, eb, n) {
			out = append(out, eb)
		}
	}
	return out
}

// edgePartnerPairs lists the (eb, ec) pairs where the first line continues
// into eb and the second into a different ec.
func edgePartnerPairs(n *optgraph.OptNode, ea *optgraph.OptEdge, lp linePair) [][2]*optgraph.OptEdge {
	out := [][2]*optgraph.OptEdge{}
	loA, okA := edgeLO(ea, lp.a)
	loB, okB := edgeLO(ea, lp.b)
	if !okA || !okB {
		return out
	}
	for _, eb := range n.Adj {
		if eb == ea || !optgraph.ContinuedOver(loA, ea, eb, n) {
			continue
		}
		for _, ec := range n.Adj {
			if ec == ea || ec == eb || !optgraph.ContinuedOver(loB, ea, ec, n) {
				continue
			}
			out = append(out, [2]*optgraph.OptEdge{eb, ec})
		}
	}
	return out
}

func edgeLO(e *optgraph.OptEdge, l *linegraph.Line) (optgraph.OptLO, bool) {
	for _, lo := range e.Lines {
		if lo.Line == l {
			return lo, true
		}
	}
	return optgraph.OptLO{}, false
}

func posIn(cfg optgraph.OrderCfg, e *optgraph.OptEdge, l *linegraph.Line) int {
	for i, cl := range cfg[e] {
		if cl == l {
			return i
		}
	}
	return -1
}

// posToward normalizes a position to the transversal order seen walking into
// n, posAway to the order walking out of n.
func posToward(cfg optgraph.OrderCfg, e *optgraph.OptEdge, n *optgraph.OptNode, l *linegraph.Line) int {
	p := posIn(cfg, e, l)
	if p < 0 {
		return p
	}
	if e.To == n {
		return p
	}
	return len(cfg[e]) - 1 - p
}

func posAway(cfg optgraph.OrderCfg, e *optgraph.OptEdge, n *optgraph.OptNode, l *linegraph.Line) int {
	p := posIn(cfg, e, l)
	if p < 0 {
		return p
	}
	if e.From == n {
		return p
	}
	return len(cfg[e]) - 1 - p
}

// NumCrossings counts the same-segment and different-segment crossings at n.
// Every unordered edge pair is counted once, tracked by a processed set.
func (s *Scorer) NumCrossings(n *optgraph.OptNode, cfg optgraph.OrderCfg) (int, int) {
	sameSeg := 0
	diffSeg := 0

	proced := make(map[linePair]map[*optgraph.OptEdge]bool)

	cw := n.ClockwiseEdges()
	cwIdx := make(map[*optgraph.OptEdge]int, len(cw))
	for i, e := range cw {
		cwIdx[e] = i
	}
	cwDist := func(from, to *optgraph.OptEdge) int {
		return (cwIdx[to] - cwIdx[from] + len(cw)) % len(cw)
	}

	for _, ea := range n.Adj {
		for _, lp := range linePairs(ea) {
			if proced[lp] == nil {
				proced[lp] = make(map[*optgraph.OptEdge]bool)
			}
			proced[lp][ea] = true

			for _, eb := range edgePartners(n, ea, lp) {
				if proced[lp][eb] {
					continue
				}
				aIn := posToward(cfg, ea, n, lp.a)
				bIn := posToward(cfg, ea, n, lp.b)
				aOut := posAway(cfg, eb, n, lp.a)
				bOut := posAway(cfg, eb, n, lp.b)
				if (aIn < bIn) != (aOut < bOut) {
					sameSeg++
				}
			}

			for _, ebc := range edgePartnerPairs(n, ea, lp) {
				aIn := posToward(cfg, ea, n, lp.a)
				bIn := posToward(cfg, ea, n, lp.b)
				// entering the node, the left line leaves through the first
				// edge met sweeping clockwise from ea
				if (aIn < bIn) != (cwDist(ea, ebc[0]) < cwDist(ea, ebc[1])) {
					diffSeg++
				}
			}
		}
	}

	return sameSeg, diffSeg
}

// NumSeparations counts line pairs adjacent on an edge but not on its
// partner.
func (s *Scorer) NumSeparations(n *optgraph.OptNode, cfg optgraph.OrderCfg) int {
	seps := 0
	for _, ea := range n.Adj {
		for _, lp := range linePairs(ea) {
			for _, eb := range edgePartners(n, ea, lp) {
				aInA := posIn(cfg, ea, lp.a)
				bInA := posIn(cfg, ea, lp.b)
				aInB := posIn(cfg, eb, lp.a)
				bInB := posIn(cfg, eb, lp.b)
				if abs(aInA-bInA) == 1 && abs(aInB-bInB) != 1 {
					seps++
				}
			}
		}
	}
	return seps
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
