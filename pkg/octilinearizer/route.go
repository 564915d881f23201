package octilinearizer

import (
	"github.com/pvnkmrksk/magga/pkg/basegraph"
	"github.com/pvnkmrksk/magga/pkg/combgraph"
	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/util"
)

// routeEdge embeds one comb edge: pick candidate cells for both endpoints,
// open them as sinks, run A* over the port graph and settle the result.
func (oc *Octilinearizer) routeEdge(ce *combgraph.CombEdge,
	preSettled map[int32]basegraph.CellID, gg basegraph.BaseGraph,
	d *combgraph.Drawing, cutoff float64, geoPens map[int32]float64) bool {

	frCmb, toCmb := ce.From, ce.To

	frGrNds, toGrNds := oc.getRtPair(frCmb, toCmb, preSettled, gg)
	if len(frGrNds) == 0 || len(toGrNds) == 0 {
		return false
	}

	// orient the search towards the smaller candidate set
	rev := false
	if len(toGrNds) > len(frGrNds) {
		frCmb, toCmb = toCmb, frCmb
		frGrNds, toGrNds = toGrNds, frGrNds
		rev = true
	}

	frSettled := gg.IsSettled(frCmb.Idx)
	toSettled := gg.IsSettled(toCmb.Idx)

	// if we open node sinks, we have to offset their cost by the highest
	// possible turn cost difference to not distort turn penalties
	costOffsetFrom := 0.0
	costOffsetTo := 0.0

	for _, n := range frGrNds {
		if frSettled {
			// only count displacement penalty once
			gg.OpenSinkFr(n, 0)
		} else {
			costOffsetFrom = gg.Pens().P45 - gg.Pens().P135
			gg.OpenSinkFr(n, costOffsetFrom+gg.NdMovePen(frCmb.Pos(), n))
		}
	}
	for _, n := range toGrNds {
		if toSettled {
			gg.OpenSinkTo(n, 0)
		} else {
			costOffsetTo = gg.Pens().P45 - gg.Pens().P135
			gg.OpenSinkTo(n, costOffsetTo+gg.NdMovePen(toCmb.Pos(), n))
		}
	}

	// node costs only exist between two or more settled adjacent edges, so
	// they are written only to already settled endpoints
	wroteFr, wroteTo := basegraph.InvalidCell, basegraph.InvalidCell
	if len(frGrNds) == 1 && frSettled {
		gg.WriteNdCosts(frGrNds[0], ndCostVec(gg, d, frGrNds[0], frCmb, ce))
		wroteFr = frGrNds[0]
	}
	if len(toGrNds) == 1 && toSettled {
		gg.WriteNdCosts(toGrNds[0], ndCostVec(gg, d, toGrNds[0], toCmb, ce))
		wroteTo = toGrNds[0]
	}

	cleanup := func() {
		for _, n := range frGrNds {
			gg.CloseSinkFr(n)
		}
		for _, n := range toGrNds {
			gg.CloseSinkTo(n)
		}
		if wroteFr != basegraph.InvalidCell {
			gg.ClearNdCosts(wroteFr)
		}
		if wroteTo != basegraph.InvalidCell {
			gg.ClearNdCosts(wroteTo)
		}
	}

	res, ok := shortestPath(gg, frGrNds, toGrNds, cutoff+costOffsetFrom+costOffsetTo, geoPens)
	if !ok {
		cleanup()
		return false
	}

	// cost split: hop and turn costs come from the path, the sink biases at
	// settled endpoints stand in for the bend inside the station
	cost := combgraph.Score{Hop: res.hopCost, Bend: res.bendCost}
	if wroteFr != basegraph.InvalidCell && res.firstPort >= 0 {
		cost.Bend += gg.NdCostBias(wroteFr, res.firstPort)
	}
	if wroteTo != basegraph.InvalidCell && res.lastPort >= 0 {
		cost.Bend += gg.NdCostBias(wroteTo, res.lastPort)
	}

	cleanup()

	hops := res.hops
	if rev {
		rhops := util.ReverseG(hops)
		for i := range rhops {
			rhops[i].From, rhops[i].To = rhops[i].To, rhops[i].From
		}
		hops = rhops
	}

	d.Draw(ce, hops, cost)

	oc.settleRes(res.frCell, res.toCell, gg, frCmb, toCmb, frSettled, toSettled, ce, d, hops)

	return true
}

// settleRes settles both endpoints and marks every hop of the path as
// occupied by the edge.
func (oc *Octilinearizer) settleRes(frGrNd, toGrNd basegraph.CellID,
	gg basegraph.BaseGraph, frCmb, toCmb *combgraph.CombNode,
	frWasSettled, toWasSettled bool, ce *combgraph.CombEdge,
	d *combgraph.Drawing, hops []combgraph.Hop) {

	gg.SettleNd(toGrNd, toCmb.Idx)
	gg.SettleNd(frGrNd, frCmb.Idx)

	d.SetGrNd(frCmb, frGrNd)
	d.SetGrNd(toCmb, toGrNd)

	if !frWasSettled {
		d.SetNdCosts(frCmb, combgraph.Score{
			Move:  gg.NdMovePen(frCmb.Pos(), frGrNd),
			Dense: gg.CellDensityPen(frGrNd),
		})
	}
	if !toWasSettled {
		d.SetNdCosts(toCmb, combgraph.Score{
			Move:  gg.NdMovePen(toCmb.Pos(), toGrNd),
			Dense: gg.CellDensityPen(toGrNd),
		})
	}

	for _, h := range hops {
		gg.SettleEdg(h.From, h.To, ce.Idx)
	}
}

// getRtPair determines the candidate cell sets for both endpoints. When the
// candidate discs intersect, the intersection is split by the nearer
// geographic endpoint, a Voronoi split. The radius grows on empty sets.
func (oc *Octilinearizer) getRtPair(frCmb, toCmb *combgraph.CombNode,
	preSettled map[int32]basegraph.CellID,
	gg basegraph.BaseGraph) ([]basegraph.CellID, []basegraph.CellID) {

	if gg.IsSettled(frCmb.Idx) && gg.IsSettled(toCmb.Idx) {
		return oc.getCands(frCmb, preSettled, gg, 0), oc.getCands(toCmb, preSettled, gg, 0)
	}

	maxDis := gg.CellSize() * oc.cfg.MaxGrDist

	var frGrNds, toGrNds []basegraph.CellID

	for i := 0; (len(frGrNds) == 0 || len(toGrNds) == 0) && i < 10; i++ {
		frCands := oc.getCands(frCmb, preSettled, gg, maxDis)
		toCands := oc.getCands(toCmb, preSettled, gg, maxDis)

		inFr := make(map[basegraph.CellID]bool, len(frCands))
		for _, c := range frCands {
			inFr[c] = true
		}
		inTo := make(map[basegraph.CellID]bool, len(toCands))
		for _, c := range toCands {
			inTo[c] = true
		}

		frGrNds = frGrNds[:0]
		toGrNds = toGrNds[:0]
		for _, c := range frCands {
			if !inTo[c] {
				frGrNds = append(frGrNds, c)
				continue
			}
			// this effectively builds a Voronoi diagram
			if geo.Dist(gg.CellPos(c), frCmb.Pos()) < geo.Dist(gg.CellPos(c), toCmb.Pos()) {
				frGrNds = append(frGrNds, c)
			}
		}
		for _, c := range toCands {
			if !inFr[c] {
				toGrNds = append(toGrNds, c)
				continue
			}
			if geo.Dist(gg.CellPos(c), frCmb.Pos()) >= geo.Dist(gg.CellPos(c), toCmb.Pos()) {
				toGrNds = append(toGrNds, c)
			}
		}

		maxDis += float64(i) * 2
	}

	return frGrNds, toGrNds
}

func (oc *Octilinearizer) getCands(cmbNd *combgraph.CombNode,
	preSettled map[int32]basegraph.CellID, gg basegraph.BaseGraph,
	maxDis float64) []basegraph.CellID {

	if c, ok := gg.Settled(cmbNd.Idx); ok {
		return []basegraph.CellID{c}
	}
	if c, ok := preSettled[cmbNd.Idx]; ok {
		if !gg.CellSettled(c) && !gg.CellClosed(c) {
			return []basegraph.CellID{c}
		}
		return nil
	}
	return gg.GrNdCands(cmbNd.Pos(), maxDis)
}
