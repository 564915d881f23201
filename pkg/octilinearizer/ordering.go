package octilinearizer

import (
	"sort"

	"github.com/pvnkmrksk/magga/pkg/combgraph"
	"golang.org/x/exp/rand"
)

// getOrdering computes the routing order of the comb edges: high-degree
// nodes seed a traversal that follows the clockwise adjacency, every edge is
// emitted the first time it is reached. With randr the per-node adjacency is
// shuffled, the seed order stays fixed.
func getOrdering(cg *combgraph.CombGraph, randr bool, rng *rand.Rand) []*combgraph.CombEdge {
	seeds := append([]*combgraph.CombNode{}, cg.Nds...)
	sort.SliceStable(seeds, func(i, j int) bool {
		if seeds[i].Deg() != seeds[j].Deg() {
			return seeds[i].Deg() > seeds[j].Deg()
		}
		return seeds[i].Idx < seeds[j].Idx
	})

	settled := make(map[*combgraph.CombNode]struct{})
	done := make(map[*combgraph.CombEdge]struct{})
	order := []*combgraph.CombEdge{}

	for _, seed := range seeds {
		dangling := []*combgraph.CombNode{seed}

		for len(dangling) > 0 {
			// highest degree first, ties by id
			sort.SliceStable(dangling, func(i, j int) bool {
				if dangling[i].Deg() != dangling[j].Deg() {
					return dangling[i].Deg() > dangling[j].Deg()
				}
				return dangling[i].Idx < dangling[j].Idx
			})
			n := dangling[0]
			dangling = dangling[1:]

			if _, ok := settled[n]; ok {
				continue
			}

			odSet := append([]*combgraph.CombEdge{}, n.ClockwiseEdges()...)
			if randr && rng != nil {
				rng.Shuffle(len(odSet), func(i, j int) {
					odSet[i], odSet[j] = odSet[j], odSet[i]
				})
			}

			for _, e := range odSet {
				if _, ok := done[e]; ok {
					continue
				}
				done[e] = struct{}{}
				dangling = append(dangling, e.OtherNd(n))
				order = append(order, e)
			}
			settled[n] = struct{}{}
		}
	}

	return order
}
