package optgraph

import (
	"math"
	"sort"

	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
)

// OptLO is one line occurrence on an opt edge. Dir is the opt node the line
// travels towards, nil means both directions.
type OptLO struct {
	Line *linegraph.Line
	Dir  *OptNode
}

// EtgPart references one underlying line edge of an opt edge. Dir is true
// when the line edge runs in the opt edge's From -> To orientation. WasCut
// marks views whose ordering is written back only partially.
type EtgPart struct {
	Etg    *linegraph.LineEdge
	Dir    bool
	Order  int
	WasCut bool
}

type OptEdge struct {
	From *OptNode
	To   *OptNode

	// all underlying line edges, equal in their directed line sets
	Etgs []EtgPart

	// the line occurrences actually routed through this edge, ordering of
	// these is the optimization target
	Lines []OptLO

	// position of this view's lines within the parent edge's line list,
	// used to merge partial orderings back onto the underlying edges
	ViewOffset int

	Depth int
}

func (e *OptEdge) OtherNd(n *OptNode) *OptNode {
	if e.From == n {
		return e.To
	}
	return e.From
}

func (e *OptEdge) Cardinality() int {
	return len(e.Lines)
}

func (e *OptEdge) HasLine(l *linegraph.Line) bool {
	_, ok := e.lo(l)
	return ok
}

func (e *OptEdge) lo(l *linegraph.Line) (OptLO, bool) {
	for _, lo := range e.Lines {
		if lo.Line == l {
			return lo, true
		}
	}
	return OptLO{}, false
}

type OptNode struct {
	// the original line node, nil for nodes created by untangling
	P   *linegraph.LineNode
	Pos geo.Point

	Adj []*OptEdge
}

func (n *OptNode) Deg() int {
	return len(n.Adj)
}

// ClockwiseEdges orders the adjacent edges clockwise starting north, by the
// direction towards the opposite endpoint.
func (n *OptNode) ClockwiseEdges() []*OptEdge {
	ord := append([]*OptEdge{}, n.Adj...)
	bearing := func(e *OptEdge) float64 {
		o := e.OtherNd(n)
		ang := geo.Angle(n.Pos, o.Pos)
		return math.Mod(math.Pi/2-ang+4*math.Pi, 2*math.Pi)
	}
	sort.SliceStable(ord, func(i, j int) bool {
		return bearing(ord[i]) < bearing(ord[j])
	})
	return ord
}

type OptGraph struct {
	Nds []*OptNode
}

// New builds the optimization graph as a one-to-one copy of the line graph.
func New(g *linegraph.LineGraph) *OptGraph {
	og := &OptGraph{}

	ndFor := make(map[*linegraph.LineNode]*OptNode)
	for _, n := range g.Nds {
		on := &OptNode{P: n, Pos: n.Pos}
		og.Nds = append(og.Nds, on)
		ndFor[n] = on
	}

	for _, e := range g.Edgs() {
		from := ndFor[e.From]
		to := ndFor[e.To]
		oe := &OptEdge{
			From: from,
			To:   to,
			Etgs: []EtgPart{{Etg: e, Dir: true}},
		}
		for _, occ := range e.Lines {
			lo := OptLO{Line: occ.Line}
			if occ.Direction != nil {
				lo.Dir = ndFor[occ.Direction]
			}
			oe.Lines = append(oe.Lines, lo)
		}
		from.Adj = append(from.Adj, oe)
		to.Adj = append(to.Adj, oe)
	}

	return og
}

func (og *OptGraph) Edgs() []*OptEdge {
	seen := make(map[*OptEdge]struct{})
	out := []*OptEdge{}
	for _, n := range og.Nds {
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

func (og *OptGraph) NumNds() int {
	return len(og.Nds)
}

func (og *OptGraph) MaxCardinality() int {
	m := 0
	for _, e := range og.Edgs() {
		if e.Cardinality() > m {
			m = e.Cardinality()
		}
	}
	return m
}

// Components returns the connected components in deterministic order.
func (og *OptGraph) Components() [][]*OptNode {
	seen := make(map[*OptNode]bool)
	comps := [][]*OptNode{}
	for _, n := range og.Nds {
		if seen[n] {
			continue
		}
		comp := []*OptNode{}
		queue := []*OptNode{n}
		seen[n] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, e := range cur.Adj {
				o := e.OtherNd(cur)
				if !seen[o] {
					seen[o] = true
					queue = append(queue, o)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

func (og *OptGraph) delNd(n *OptNode) {
	for i, nd := range og.Nds {
		if nd == n {
			og.Nds = append(og.Nds[:i], og.Nds[i+1:]...)
			return
		}
	}
}

func (og *OptGraph) addNd(n *OptNode) {
	og.Nds = append(og.Nds, n)
}

func detachEdg(n *OptNode, e *OptEdge) {
	for i, ee := range n.Adj {
		if ee == e {
			n.Adj = append(n.Adj[:i], n.Adj[i+1:]...)
			return
		}
	}
}

func replaceEndpoint(e *OptEdge, old, new *OptNode) {
	if e.From == old {
		e.From = new
	} else {
		e.To = new
	}
	detachEdg(old, e)
	new.Adj = append(new.Adj, e)
}

// linesToward returns e's lines in transversal order as seen walking into n,
// linesAway as seen walking out of n.
func linesToward(e *OptEdge, n *OptNode) []OptLO {
	if e.To == n {
		return e.Lines
	}
	return reverseLOs(e.Lines)
}

func linesAway(e *OptEdge, n *OptNode) []OptLO {
	if e.From == n {
		return e.Lines
	}
	return reverseLOs(e.Lines)
}

func reverseLOs(los []OptLO) []OptLO {
	out := make([]OptLO, len(los))
	for i, lo := range los {
		out[len(los)-1-i] = lo
	}
	return out
}

// ContinuedOver reports whether occurrence lo of edge a continues into b
// over their shared node n, honoring direction anchors.
func ContinuedOver(lo OptLO, a, b *OptEdge, n *OptNode) bool {
	return dirContinuedOver(lo, a, b, n)
}

// dirContinuedOver reports whether occurrence lo of edge a continues into b
// over their shared node n, honoring direction anchors.
func dirContinuedOver(lo OptLO, a, b *OptEdge, n *OptNode) bool {
	if lo.Dir != nil && lo.Dir != n {
		return false
	}
	lob, ok := b.lo(lo.Line)
	if !ok {
		return false
	}
	if lob.Dir != nil && lob.Dir == n {
		return false
	}
	return true
}

// dirLineEqualIn reports whether a and b carry exactly the same directed
// line set over their shared node n.
func dirLineEqualIn(a, b *OptEdge, n *OptNode) bool {
	if len(a.Lines) != len(b.Lines) {
		return false
	}
	for _, lo := range a.Lines {
		if !dirContinuedOver(lo, a, b, n) {
			return false
		}
	}
	for _, lo := range b.Lines {
		if !dirContinuedOver(lo, b, a, n) {
			return false
		}
	}
	return true
}

func sharedNode(a, b *OptEdge) *OptNode {
	if a.From == b.From || a.From == b.To {
		return a.From
	}
	if a.To == b.From || a.To == b.To {
		return a.To
	}
	return nil
}

// Optimize runs simplification and untangling until neither does work.
func (og *OptGraph) Optimize() {
	for {
		changed := false
		for og.Simplify() {
			changed = true
		}
		if og.Untangle() {
			changed = true
		}
		if !changed {
			break
		}
	}
}
