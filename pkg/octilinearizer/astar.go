package octilinearizer

import (
	"github.com/pvnkmrksk/magga/pkg/basegraph"
	"github.com/pvnkmrksk/magga/pkg/combgraph"
	"github.com/pvnkmrksk/magga/pkg/datastructure"
	"github.com/pvnkmrksk/magga/pkg/util"
)

// https://www.cs.princeton.edu/courses/archive/spr06/cos423/Handouts/GH05.pdf

type cameFromPair struct {
	Edge   *basegraph.GridEdge
	NodeID int32
	Cost   float64
}

type searchResult struct {
	frCell basegraph.CellID
	toCell basegraph.CellID

	// hops in traversal order, source cell to target cell
	hops []combgraph.Hop

	hopCost  float64
	bendCost float64

	// port dirs used to leave the source center and enter the target center
	firstPort int
	lastPort  int
}

// shortestPath runs A* over the port graph from the source cell centers to
// the nearest target cell center. Expansion stops once every open node's
// f-value exceeds the cutoff.
func shortestPath(gg basegraph.BaseGraph, frs, tos []basegraph.CellID,
	cutoff float64, geoPens map[int32]float64) (*searchResult, bool) {

	if len(frs) == 0 || len(tos) == 0 {
		return nil, false
	}

	heur := gg.Heur(tos)

	targets := make(map[int32]basegraph.CellID, len(tos))
	for _, t := range tos {
		targets[gg.CenterNd(t)] = t
	}
	sources := make(map[int32]basegraph.CellID, len(frs))
	for _, f := range frs {
		sources[gg.CenterNd(f)] = f
	}

	pq := datastructure.NewMinHeap[int32]()
	costSoFar := make(map[int32]float64)
	cameFrom := make(map[int32]cameFromPair)
	visited := make(map[int32]struct{})

	for _, f := range frs {
		nd := gg.CenterNd(f)
		costSoFar[nd] = 0
		cameFrom[nd] = cameFromPair{NodeID: -1}
		pq.Insert(datastructure.NewPriorityQueueNode(heur(nd), nd))
	}

	for pq.Size() > 0 {
		current, _ := pq.ExtractMin()
		if current.Rank > cutoff {
			return nil, false
		}
		if _, ok := visited[current.Item]; ok {
			continue
		}
		visited[current.Item] = struct{}{}

		if toCell, ok := targets[current.Item]; ok {
			return reconstruct(gg, cameFrom, sources, current.Item, toCell, geoPens)
		}

		for _, arc := range gg.Expand(current.Item) {
			if _, ok := visited[arc.To]; ok {
				continue
			}
			cost := arc.Cost
			if arc.Edge != nil && arc.Edge.IsHop() && geoPens != nil {
				cost += geoPens[arc.Edge.ID()]
			}
			newCost := costSoFar[current.Item] + cost

			old, seen := costSoFar[arc.To]
			if !seen {
				costSoFar[arc.To] = newCost
				cameFrom[arc.To] = cameFromPair{Edge: arc.Edge, NodeID: current.Item, Cost: cost}
				pq.Insert(datastructure.NewPriorityQueueNode(newCost+heur(arc.To), arc.To))
			} else if newCost < old {
				costSoFar[arc.To] = newCost
				cameFrom[arc.To] = cameFromPair{Edge: arc.Edge, NodeID: current.Item, Cost: cost}
				pq.DecreaseKey(datastructure.NewPriorityQueueNode(newCost+heur(arc.To), arc.To))
			}
		}
	}

	return nil, false
}

func reconstruct(gg basegraph.BaseGraph, cameFrom map[int32]cameFromPair,
	sources map[int32]basegraph.CellID, target int32, toCell basegraph.CellID,
	geoPens map[int32]float64) (*searchResult, bool) {

	res := &searchResult{toCell: toCell, firstPort: -1, lastPort: -1}

	hops := []combgraph.Hop{}
	cur := target
	for {
		pair := cameFrom[cur]
		if pair.NodeID == -1 {
			break
		}
		if pair.Edge != nil {
			if pair.Edge.IsHop() {
				frCl := gg.CellOfNd(pair.NodeID)
				toCl := gg.CellOfNd(cur)
				hops = append(hops, combgraph.Hop{From: frCl, To: toCl})
				res.hopCost += pair.Edge.RawCost()
				if geoPens != nil {
					res.hopCost += geoPens[pair.Edge.ID()]
				}
			} else {
				res.bendCost += pair.Edge.Cost()
			}
		} else {
			// sink traversal
			if gg.PortDir(cur) >= 0 {
				// leaving a source center
				res.firstPort = gg.PortDir(cur)
			} else {
				res.lastPort = gg.PortDir(pair.NodeID)
			}
		}
		cur = pair.NodeID
	}

	frCell, ok := sources[cur]
	if !ok {
		return nil, false
	}
	res.frCell = frCell
	res.hops = util.ReverseG(hops)
	return res, true
}
