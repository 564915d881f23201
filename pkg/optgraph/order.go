package optgraph

import (
	"sort"

	"github.com/pvnkmrksk/magga/pkg/linegraph"
)

// OrderCfg assigns each opt edge a permutation of its lines, in the edge's
// From -> To transversal order.
type OrderCfg map[*OptEdge][]*linegraph.Line

// NullCfg is the identity configuration: every edge keeps its input order.
func NullCfg(edges []*OptEdge) OrderCfg {
	cfg := make(OrderCfg, len(edges))
	for _, e := range edges {
		perm := make([]*linegraph.Line, 0, len(e.Lines))
		for _, lo := range e.Lines {
			perm = append(perm, lo.Line)
		}
		cfg[e] = perm
	}
	return cfg
}

type viewOrder struct {
	offset int
	dir    bool
	lines  []*linegraph.Line
}

// WriteEdgeOrder merges the per-view orderings back onto the underlying line
// edges: views sort by their offset within the parent edge, a flipped
// direction bit reverses the transversal order. Lines without an ordered
// view keep their relative input order at the tail.
func WriteEdgeOrder(cfg OrderCfg) {
	views := make(map[*linegraph.LineEdge][]viewOrder)

	for e, perm := range cfg {
		for _, part := range e.Etgs {
			restricted := make([]*linegraph.Line, 0, len(perm))
			for _, l := range perm {
				if part.Etg.HasLine(l) {
					restricted = append(restricted, l)
				}
			}
			if len(restricted) == 0 {
				continue
			}
			views[part.Etg] = append(views[part.Etg], viewOrder{
				offset: e.ViewOffset,
				dir:    part.Dir,
				lines:  restricted,
			})
		}
	}

	for etg, vs := range views {
		sort.SliceStable(vs, func(i, j int) bool {
			return vs[i].offset < vs[j].offset
		})

		dir := vs[0].dir
		seq := []*linegraph.Line{}
		seen := make(map[*linegraph.Line]bool)
		for _, v := range vs {
			for _, l := range v.lines {
				if !seen[l] {
					seen[l] = true
					seq = append(seq, l)
				}
			}
		}
		if !dir {
			for i, j := 0, len(seq)-1; i < j; i, j = i+1, j-1 {
				seq[i], seq[j] = seq[j], seq[i]
			}
		}

		pos := make(map[*linegraph.Line]int, len(seq))
		for i, l := range seq {
			pos[l] = i
		}

		occs := append([]linegraph.LineOcc{}, etg.Lines...)
		sort.SliceStable(occs, func(i, j int) bool {
			pi, iok := pos[occs[i].Line]
			pj, jok := pos[occs[j].Line]
			if iok && jok {
				return pi < pj
			}
			// unordered occurrences keep their input order at the tail
			return iok && !jok
		})
		etg.Lines = occs
	}
}
