package octilinearizer

import (
	"math"

	"github.com/pvnkmrksk/magga/pkg/basegraph"
	"github.com/pvnkmrksk/magga/pkg/combgraph"
)

type occupiedPort struct {
	edge *combgraph.CombEdge
	// grid port the drawn edge occupies at this cell
	port int
	// travel direction heading into the cell along the drawn edge
	travelIn int
}

// occupiedPorts lists the ports at cmbNd's cell used by already-drawn
// adjacent edges.
func occupiedPorts(gg basegraph.BaseGraph, d *combgraph.Drawing,
	cmbNd *combgraph.CombNode, skip *combgraph.CombEdge) []occupiedPort {

	occ := []occupiedPort{}
	k := gg.NumNeighbors()

	for _, ae := range cmbNd.Adj {
		if ae == skip {
			continue
		}
		p, ok := d.Path(ae)
		if !ok || len(p.Hops) == 0 {
			continue
		}
		if ae.From == cmbNd {
			h := p.Hops[0]
			dir, ok := gg.PortOfHop(h.From, h.To)
			if !ok {
				continue
			}
			occ = append(occ, occupiedPort{
				edge:     ae,
				port:     dir,
				travelIn: (dir + k/2) % k,
			})
		} else {
			h := p.Hops[len(p.Hops)-1]
			dir, ok := gg.PortOfHop(h.From, h.To)
			if !ok {
				continue
			}
			occ = append(occ, occupiedPort{
				edge:     ae,
				port:     (dir + k/2) % k,
				travelIn: dir,
			})
		}
	}
	return occ
}

// ndCostVec is the per-port cost of attaching e at the settled cell of
// cmbNd: the expected bend against the already-drawn edges, a spacing
// penalty for crowded ports, and an infinite block for ports that would
// break the clockwise edge ordering of the node.
func ndCostVec(gg basegraph.BaseGraph, d *combgraph.Drawing, c basegraph.CellID,
	cmbNd *combgraph.CombNode, e *combgraph.CombEdge) basegraph.NodeCost {

	k := gg.NumNeighbors()
	v := basegraph.NewNodeCost(k)
	occ := occupiedPorts(gg, d, cmbNd, e)

	used := make(map[int]bool, len(occ))
	for _, o := range occ {
		used[o.port] = true
	}

	for dir := 0; dir < k; dir++ {
		if used[dir] {
			v[dir] = math.Inf(1)
			continue
		}

		// expected bend against every drawn edge of the node
		for _, o := range occ {
			v[dir] += gg.BendPenBetween(o.travelIn, dir)
		}

		// spacing: keep free ports between bundled edges
		for _, o := range occ {
			if circDist(dir, o.port, k) == 1 {
				v[dir] += gg.Pens().DensityPen
			}
		}
	}

	writeTopoBlock(gg, v, occ, cmbNd, e)

	return v
}

func circDist(a, b, k int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if k-d < d {
		d = k - d
	}
	return d
}

// writeTopoBlock closes all ports where inserting e would destroy the
// clockwise order of the node's drawn edges.
func writeTopoBlock(gg basegraph.BaseGraph, v basegraph.NodeCost,
	occ []occupiedPort, cmbNd *combgraph.CombNode, e *combgraph.CombEdge) {

	if len(occ) < 2 {
		return
	}

	cwIdx := make(map[*combgraph.CombEdge]int)
	for i, ce := range cmbNd.ClockwiseEdges() {
		cwIdx[ce] = i
	}

	k := gg.NumNeighbors()
	for dir := 0; dir < k; dir++ {
		if math.IsInf(v[dir], 1) {
			continue
		}

		slots := make([]struct{ cw, port int }, 0, len(occ)+1)
		for _, o := range occ {
			slots = append(slots, struct{ cw, port int }{cwIdx[o.edge], o.port})
		}
		slots = append(slots, struct{ cw, port int }{cwIdx[e], dir})

		// read ports in clockwise edge order, a consistent assignment is a
		// rotation of an increasing sequence: exactly one cyclic descent
		sortSlots(slots)
		descents := 0
		for i := range slots {
			j := (i + 1) % len(slots)
			if slots[j].port <= slots[i].port {
				descents++
			}
		}
		if descents != 1 {
			v[dir] = math.Inf(1)
		}
	}
}

func sortSlots(slots []struct{ cw, port int }) {
	for i := 1; i < len(slots); i++ {
		for j := i; j > 0 && slots[j].cw < slots[j-1].cw; j-- {
			slots[j], slots[j-1] = slots[j-1], slots[j]
		}
	}
}
