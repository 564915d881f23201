package combgraph

import (
	"math"
	"sort"

	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
)

// CombNode wraps one junction of the line graph. Idx is the stable handle
// used to address the node on a base graph.
type CombNode struct {
	Idx int32
	P   *linegraph.LineNode

	Adj []*CombEdge

	ordered []*CombEdge
}

// CombEdge wraps a maximal degree-2 chain of line edges between two
// junctions. Chain is ordered from From to To, Course is the merged
// geographic course in the same orientation.
type CombEdge struct {
	Idx  int32
	From *CombNode
	To   *CombNode

	Chain  []*linegraph.LineEdge
	Course geo.Polyline
}

func (e *CombEdge) OtherNd(n *CombNode) *CombNode {
	if e.From == n {
		return e.To
	}
	return e.From
}

// OutAngle is the geographic tangent of the edge course leaving n.
func (e *CombEdge) OutAngle(n *CombNode) float64 {
	course := e.Course
	if e.To == n {
		course = course.Reverse()
	}
	return geo.Angle(course[0], course[1])
}

// NumLines is the line cardinality of the chain's first edge.
func (e *CombEdge) NumLines() int {
	if len(e.Chain) == 0 {
		return 0
	}
	return len(e.Chain[0].Lines)
}

func (n *CombNode) Deg() int {
	return len(n.Adj)
}

func (n *CombNode) Pos() geo.Point {
	return n.P.Pos
}

// ClockwiseEdges returns the adjacent edges in clockwise order by geographic
// out-angle, starting north. Ties keep input order.
func (n *CombNode) ClockwiseEdges() []*CombEdge {
	return n.ordered
}

type CombGraph struct {
	Nds  []*CombNode
	Edgs []*CombEdge
}

// New contracts the line graph. With deg2Heur, maximal degree-2 chains
// collapse into single comb edges, otherwise the combinatorial graph is
// one-to-one.
func New(g *linegraph.LineGraph, deg2Heur bool) *CombGraph {
	cg := &CombGraph{}

	isJunction := func(n *linegraph.LineNode) bool {
		if !deg2Heur {
			return true
		}
		return n.Deg() != 2
	}

	ndFor := make(map[*linegraph.LineNode]*CombNode)
	addNd := func(n *linegraph.LineNode) *CombNode {
		if cn, ok := ndFor[n]; ok {
			return cn
		}
		cn := &CombNode{Idx: int32(len(cg.Nds)), P: n}
		cg.Nds = append(cg.Nds, cn)
		ndFor[n] = cn
		return cn
	}

	// degree-2 cycles have no junction, break them at the first node
	seen := make(map[*linegraph.LineNode]bool)
	var junctions []*linegraph.LineNode
	for _, n := range g.Nds {
		if isJunction(n) {
			junctions = append(junctions, n)
			seen[n] = true
		}
	}
	for _, n := range g.Nds {
		if seen[n] || n.Deg() == 0 {
			continue
		}
		// walk from n; n seeds a cycle only if no junction is met
		junctions = append(junctions, n)
		seen[n] = true
		cur, prev := n, (*linegraph.LineEdge)(nil)
		for {
			var next *linegraph.LineEdge
			for _, e := range cur.Adj {
				if e != prev {
					next = e
					break
				}
			}
			if next == nil {
				break
			}
			cur = next.OtherNd(cur)
			prev = next
			if cur == n {
				break
			}
			if isJunction(cur) {
				// a chain between junctions, not a cycle
				junctions = junctions[:len(junctions)-1]
				break
			}
			seen[cur] = true
		}
	}

	isSeed := make(map[*linegraph.LineNode]bool)
	for _, j := range junctions {
		isSeed[j] = true
	}

	done := make(map[*linegraph.LineEdge]bool)
	for _, j := range junctions {
		from := addNd(j)
		for _, e := range j.Adj {
			if done[e] {
				continue
			}

			chain := []*linegraph.LineEdge{e}
			courses := []geo.Polyline{orientCourse(e, j)}
			cur := e.OtherNd(j)
			prev := e
			for !isSeed[cur] {
				var next *linegraph.LineEdge
				for _, ee := range cur.Adj {
					if ee != prev {
						next = ee
						break
					}
				}
				if next == nil {
					break
				}
				chain = append(chain, next)
				courses = append(courses, orientCourse(next, cur))
				prev = next
				cur = next.OtherNd(cur)
			}
			for _, ce := range chain {
				done[ce] = true
			}

			to := addNd(cur)
			ce := &CombEdge{
				Idx:    int32(len(cg.Edgs)),
				From:   from,
				To:     to,
				Chain:  chain,
				Course: geo.Merge(courses...),
			}
			cg.Edgs = append(cg.Edgs, ce)
			from.Adj = append(from.Adj, ce)
			to.Adj = append(to.Adj, ce)
		}
	}

	// isolated nodes keep a comb node so they get settled too
	for _, n := range g.Nds {
		if n.Deg() == 0 {
			addNd(n)
		}
	}

	for _, cn := range cg.Nds {
		cn.ordered = clockwise(cn)
	}

	return cg
}

func orientCourse(e *linegraph.LineEdge, from *linegraph.LineNode) geo.Polyline {
	if e.From == from {
		return e.Course
	}
	return e.Course.Reverse()
}

func clockwise(n *CombNode) []*CombEdge {
	ord := append([]*CombEdge{}, n.Adj...)
	bearing := func(e *CombEdge) float64 {
		return math.Mod(math.Pi/2-e.OutAngle(n)+4*math.Pi, 2*math.Pi)
	}
	sort.SliceStable(ord, func(i, j int) bool {
		return bearing(ord[i]) < bearing(ord[j])
	})
	return ord
}
