package linegraph

import "github.com/pvnkmrksk/magga/pkg/geo"

// RemoveEdgesShorterThan merges nodes joined by an edge shorter than d into
// one node at the segment midpoint. Station nodes survive the merge. The
// scan restarts after every merge until no mergeable edge is left, each merge
// strictly decreases the node count so the loop terminates.
func (g *LineGraph) RemoveEdgesShorterThan(d float64) {
	changed := true
	for changed {
		changed = false
		for _, n1 := range g.Nds {
			for _, e1 := range n1.Adj {
				if e1.Course.Length() >= d {
					continue
				}
				other := e1.OtherNd(n1)
				if other.Deg() <= 1 || n1.Deg() <= 1 {
					continue
				}
				if n1.Station && other.Station {
					continue
				}

				mid := geo.NewPoint((n1.Pos.X+other.Pos.X)/2, (n1.Pos.Y+other.Pos.Y)/2)

				var surv *LineNode
				if e1.To.Station {
					surv = g.MergeNds(e1.From, e1.To)
				} else if e1.From.Station {
					surv = g.MergeNds(e1.To, e1.From)
				} else {
					surv = g.MergeNds(e1.To, e1.From)
				}

				surv.Pos = mid
				changed = true
				break
			}
			if changed {
				break
			}
		}
	}
}
