package basegraph

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/pvnkmrksk/magga/pkg/geo"
)

var dirDelta8 = [8][2]int{
	{0, 1},   // N
	{1, 1},   // NE
	{1, 0},   // E
	{1, -1},  // SE
	{0, -1},  // S
	{-1, -1}, // SW
	{-1, 0},  // W
	{-1, 1},  // NW
}

var dirDelta4 = [4][2]int{
	{0, 1},  // N
	{1, 0},  // E
	{0, -1}, // S
	{-1, 0}, // W
}

type gridCell struct {
	id  CellID
	x   int
	y   int
	pos geo.Point

	turns []*GridEdge
	// outgoing hop edge per direction, nil at the border
	hops []*GridEdge

	sinkFrOpen bool
	sinkToOpen bool
	sinkFrCost float64
	sinkToCost float64

	// injected per-port node cost bias, see WriteNdCosts
	bias NodeCost

	item *cellItem
}

type cellItem struct {
	rect rtreego.Rect
	cell CellID
}

func (ci *cellItem) Bounds() rtreego.Rect {
	return ci.rect
}

// grid implements BaseGraph for both the 4- and the 8-neighborhood variant.
type grid struct {
	pens     Penalties
	box      geo.BBox
	cellSize float64
	spacer   float64
	numNb    int

	x0, y0     float64
	cols, rows int

	cells []gridCell

	settled   map[int32]CellID
	settledAt []int32
	closedCl  []bool

	tree *rtreego.Rtree

	hopEdges []*GridEdge
}

func newGrid(box geo.BBox, cellSize, spacer float64, pens Penalties, numNb int) *grid {
	g := &grid{
		pens:     pens,
		box:      box,
		cellSize: cellSize,
		spacer:   spacer,
		numNb:    numNb,
		settled:  make(map[int32]CellID),
	}
	return g
}

func (g *grid) dirDelta(d int) (int, int) {
	if g.numNb == 8 {
		return dirDelta8[d][0], dirDelta8[d][1]
	}
	return dirDelta4[d][0], dirDelta4[d][1]
}

func (g *grid) dirPen(d int) float64 {
	if g.numNb == 8 {
		switch {
		case d == 0 || d == 4:
			return g.pens.VerticalPen
		case d == 2 || d == 6:
			return g.pens.HorizontalPen
		default:
			return g.pens.DiagonalPen
		}
	}
	if d == 0 || d == 2 {
		return g.pens.VerticalPen
	}
	return g.pens.HorizontalPen
}

func circDiff(a, b, k int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if k-d < d {
		d = k - d
	}
	return d
}

// BendPenBetween is the bend penalty for changing the travel heading from
// dirA to dirB. A heading change of x is a pass between ports 180-x apart.
func (g *grid) BendPenBetween(dirA, dirB int) float64 {
	steps := circDiff(dirA, dirB, g.numNb)
	portSteps := g.numNb/2 - steps
	if portSteps < 0 {
		portSteps = 0
	}
	return g.portAnglePen(portSteps)
}

// turnCost between two port directions: ports at opposite sides form a
// straight pass-through, the narrower the wedge between the ports, the
// sharper the bend.
func (g *grid) turnCost(portA, portB int) float64 {
	return g.portAnglePen(circDiff(portA, portB, g.numNb))
}

// portAnglePen keys the bend penalties by the angle between the two port
// directions: p_45 for 45 degrees (sharpest), p_0 for the straight 180
// degree pass.
func (g *grid) portAnglePen(portSteps int) float64 {
	if g.numNb == 8 {
		switch portSteps {
		case 4:
			return g.pens.P0
		case 3:
			return g.pens.P135
		case 2:
			return g.pens.P90
		default:
			return g.pens.P45
		}
	}
	switch portSteps {
	case 2:
		return g.pens.P0
	case 1:
		return g.pens.P90
	default:
		return g.pens.P45
	}
}

func (g *grid) Init() {
	x0 := g.box.Min.X - g.spacer*g.cellSize
	y0 := g.box.Min.Y - g.spacer*g.cellSize
	x1 := g.box.Max.X + g.spacer*g.cellSize
	y1 := g.box.Max.Y + g.spacer*g.cellSize

	g.x0, g.y0 = x0, y0
	g.cols = int(math.Floor((x1-x0)/g.cellSize)) + 1
	g.rows = int(math.Floor((y1-y0)/g.cellSize)) + 1
	if g.cols < 1 {
		g.cols = 1
	}
	if g.rows < 1 {
		g.rows = 1
	}

	n := g.cols * g.rows
	g.cells = make([]gridCell, n)
	g.settledAt = make([]int32, n)
	g.closedCl = make([]bool, n)
	g.tree = rtreego.NewTree(2, 8, 32)

	var edgeID int32

	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			id := CellID(y*g.cols + x)
			c := &g.cells[id]
			c.id = id
			c.x, c.y = x, y
			c.pos = geo.NewPoint(x0+float64(x)*g.cellSize, y0+float64(y)*g.cellSize)
			c.hops = make([]*GridEdge, g.numNb)
			c.bias = NewNodeCost(g.numNb)
			g.settledAt[id] = -1

			c.item = &cellItem{
				rect: rtreego.Point{c.pos.X, c.pos.Y}.ToRect(1e-9),
				cell: id,
			}
			g.tree.Insert(c.item)

			// turn edges, fully connected port set
			for a := 0; a < g.numNb; a++ {
				for b := a + 1; b < g.numNb; b++ {
					cost := g.turnCost(a, b)
					e := &GridEdge{
						id:      edgeID,
						kind:    turnEdge,
						cell:    id,
						dirA:    a,
						dirB:    b,
						ndA:     g.portNd(id, a),
						ndB:     g.portNd(id, b),
						rawCost: cost,
						cost:    cost,
						res:     -1,
					}
					edgeID++
					c.turns = append(c.turns, e)
				}
			}
		}
	}

	// hop edges, one per neighboring cell pair
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			id := CellID(y*g.cols + x)
			c := &g.cells[id]
			for d := 0; d < g.numNb; d++ {
				if c.hops[d] != nil {
					continue
				}
				dx, dy := g.dirDelta(d)
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= g.cols || ny < 0 || ny >= g.rows {
					continue
				}
				nid := CellID(ny*g.cols + nx)
				opp := (d + g.numNb/2) % g.numNb
				cost := g.pens.Hop + g.dirPen(d)
				e := &GridEdge{
					id:      edgeID,
					kind:    hopEdge,
					cell:    id,
					toCell:  nid,
					dirA:    d,
					dirB:    opp,
					ndA:     g.portNd(id, d),
					ndB:     g.portNd(nid, opp),
					rawCost: cost,
					cost:    cost,
					res:     -1,
				}
				edgeID++
				c.hops[d] = e
				g.cells[nid].hops[opp] = e
				g.hopEdges = append(g.hopEdges, e)
			}
		}
	}
}

// routing graph node ids: cell*(numNb+1) is the cell center, +1+d the port
// in direction d.
func (g *grid) centerNd(c CellID) int32 {
	return c * int32(g.numNb+1)
}

func (g *grid) portNd(c CellID, d int) int32 {
	return c*int32(g.numNb+1) + 1 + int32(d)
}

func (g *grid) CenterNd(c CellID) int32 { return g.centerNd(c) }

func (g *grid) CellOfNd(nd int32) CellID {
	return nd / int32(g.numNb+1)
}

// PortDir returns the port direction of a routing graph node, -1 for cell
// centers.
func (g *grid) PortDir(nd int32) int {
	r := int(nd % int32(g.numNb+1))
	return r - 1
}

func (g *grid) NumNeighbors() int  { return g.numNb }
func (g *grid) CellSize() float64  { return g.cellSize }
func (g *grid) Spacer() float64    { return g.spacer }
func (g *grid) Pens() Penalties    { return g.pens }
func (g *grid) NumCells() int      { return len(g.cells) }

func (g *grid) CellPos(c CellID) geo.Point {
	return g.cells[c].pos
}

func (g *grid) Neighbor(c CellID, pos int) CellID {
	if pos == g.numNb {
		return c
	}
	cell := &g.cells[c]
	dx, dy := g.dirDelta(pos)
	nx, ny := cell.x+dx, cell.y+dy
	if nx < 0 || nx >= g.cols || ny < 0 || ny >= g.rows {
		return InvalidCell
	}
	return CellID(ny*g.cols + nx)
}

func (g *grid) PortOfHop(from, to CellID) (int, bool) {
	a := &g.cells[from]
	b := &g.cells[to]
	dx := b.x - a.x
	dy := b.y - a.y
	for d := 0; d < g.numNb; d++ {
		ddx, ddy := g.dirDelta(d)
		if ddx == dx && ddy == dy {
			return d, true
		}
	}
	return 0, false
}

func (g *grid) GrNdCands(p geo.Point, maxDist float64) []CellID {
	if maxDist <= 0 {
		return nil
	}
	rect, err := rtreego.NewRect(
		rtreego.Point{p.X - maxDist, p.Y - maxDist},
		[]float64{2 * maxDist, 2 * maxDist})
	if err != nil {
		return nil
	}
	hits := g.tree.SearchIntersect(rect)

	cands := []CellID{}
	for _, h := range hits {
		ci := h.(*cellItem)
		if g.settledAt[ci.cell] >= 0 || g.closedCl[ci.cell] {
			continue
		}
		if geo.Dist(p, g.cells[ci.cell].pos) > maxDist {
			continue
		}
		cands = append(cands, ci.cell)
	}
	// rtree result order is unspecified, sort for determinism
	sort.Slice(cands, func(i, j int) bool {
		di := geo.Dist(p, g.cells[cands[i]].pos)
		dj := geo.Dist(p, g.cells[cands[j]].pos)
		if di != dj {
			return di < dj
		}
		return cands[i] < cands[j]
	})
	return cands
}

func (g *grid) OpenSinkFr(c CellID, extraCost float64) {
	g.cells[c].sinkFrOpen = true
	g.cells[c].sinkFrCost = extraCost
}

func (g *grid) OpenSinkTo(c CellID, extraCost float64) {
	g.cells[c].sinkToOpen = true
	g.cells[c].sinkToCost = extraCost
}

func (g *grid) CloseSinkFr(c CellID) {
	g.cells[c].sinkFrOpen = false
	g.cells[c].sinkFrCost = 0
}

func (g *grid) CloseSinkTo(c CellID) {
	g.cells[c].sinkToOpen = false
	g.cells[c].sinkToCost = 0
}

func (g *grid) SettleNd(c CellID, nd int32) {
	if prev, ok := g.settled[nd]; ok {
		if prev == c {
			return
		}
		g.UnSettleNd(nd)
	}
	g.settled[nd] = c
	g.settledAt[c] = nd
	for _, e := range g.cells[c].turns {
		e.Close()
	}
	g.tree.Delete(g.cells[c].item)
}

func (g *grid) UnSettleNd(nd int32) {
	c, ok := g.settled[nd]
	if !ok {
		return
	}
	delete(g.settled, nd)
	g.settledAt[c] = -1
	for _, e := range g.cells[c].turns {
		e.Open()
	}
	if !g.closedCl[c] {
		g.tree.Insert(g.cells[c].item)
	}
}

func (g *grid) IsSettled(nd int32) bool {
	_, ok := g.settled[nd]
	return ok
}

func (g *grid) Settled(nd int32) (CellID, bool) {
	c, ok := g.settled[nd]
	return c, ok
}

func (g *grid) CellSettled(c CellID) bool {
	return g.settledAt[c] >= 0
}

func (g *grid) CellClosed(c CellID) bool {
	return g.closedCl[c]
}

// SettleEdg marks the hop edge between two neighboring cells as occupied.
// Idempotent for the same resident. On the 8-grid the crossing hop edge of
// the same diamond is blocked.
func (g *grid) SettleEdg(from, to CellID, e int32) {
	d, ok := g.PortOfHop(from, to)
	if !ok {
		return
	}
	hop := g.cells[from].hops[d]
	if hop == nil || hop.Res() == e {
		return
	}
	if hop.HasRes() {
		// a hop edge belongs to at most one comb edge, reaching this is a
		// bookkeeping bug, not a recoverable condition
		panic(fmt.Sprintf("internal: hop edge %d already occupied by %d, refusing %d",
			hop.ID(), hop.Res(), e))
	}
	hop.SetRes(e)
	if cross := g.crossingHop(from, d); cross != nil {
		cross.Block()
	}
}

func (g *grid) UnSettleEdg(from, to CellID) {
	d, ok := g.PortOfHop(from, to)
	if !ok {
		return
	}
	hop := g.cells[from].hops[d]
	if hop == nil || !hop.HasRes() {
		return
	}
	hop.ClearRes()
	if cross := g.crossingHop(from, d); cross != nil {
		cross.Unblock()
	}
}

func (g *grid) Resident(from, to CellID) (int32, bool) {
	d, ok := g.PortOfHop(from, to)
	if !ok {
		return 0, false
	}
	hop := g.cells[from].hops[d]
	if hop == nil || !hop.HasRes() {
		return 0, false
	}
	return hop.Res(), true
}

// crossingHop returns the opposing diagonal of the diamond spanned by a
// diagonal hop out of cell c in direction d, nil on 4-grids and for
// non-diagonal hops.
func (g *grid) crossingHop(c CellID, d int) *GridEdge {
	if g.numNb != 8 || d%2 == 0 {
		return nil
	}
	cell := &g.cells[c]
	dx, dy := g.dirDelta(d)
	// the diamond partners share one coordinate with each endpoint
	ax, ay := cell.x+dx, cell.y
	bx, by := cell.x, cell.y+dy
	if ax < 0 || ax >= g.cols || ay < 0 || ay >= g.rows ||
		bx < 0 || bx >= g.cols || by < 0 || by >= g.rows {
		return nil
	}
	a := CellID(ay*g.cols + ax)
	b := CellID(by*g.cols + bx)
	pd, ok := g.PortOfHop(a, b)
	if !ok {
		return nil
	}
	return g.cells[a].hops[pd]
}

func (g *grid) WriteNdCosts(c CellID, v NodeCost) {
	copy(g.cells[c].bias, v)
}

func (g *grid) ClearNdCosts(c CellID) {
	for i := range g.cells[c].bias {
		g.cells[c].bias[i] = 0
	}
}

func (g *grid) NdCostBias(c CellID, dir int) float64 {
	return g.cells[c].bias[dir]
}

// NdMovePen is the displacement penalty of placing a node at cell c,
// normalized to cell units and capped.
func (g *grid) NdMovePen(p geo.Point, c CellID) float64 {
	d := geo.Dist(p, g.cells[c].pos) / g.cellSize
	pen := g.pens.DisplacementPen * d
	if limit := g.pens.DisplacementPen * 3; pen > limit {
		return limit
	}
	return pen
}

func (g *grid) CellDensityPen(c CellID) float64 {
	if g.pens.DensityPen == 0 {
		return 0
	}
	n := 0
	for d := 0; d < g.numNb; d++ {
		nb := g.Neighbor(c, d)
		if nb != InvalidCell && g.settledAt[nb] >= 0 {
			n++
		}
	}
	return g.pens.DensityPen * float64(n)
}

func (g *grid) Expand(nd int32) []Arc {
	c := g.CellOfNd(nd)
	cell := &g.cells[c]
	d := g.PortDir(nd)

	arcs := []Arc{}

	if d < 0 {
		// cell center, usable as a source only when opened
		if !cell.sinkFrOpen {
			return arcs
		}
		for p := 0; p < g.numNb; p++ {
			bias := cell.bias[p]
			if math.IsInf(bias, 1) {
				continue
			}
			arcs = append(arcs, Arc{
				To:   g.portNd(c, p),
				Cost: g.pens.SinkPen + cell.sinkFrCost + bias,
			})
		}
		return arcs
	}

	// port -> center when the cell is an open target
	if cell.sinkToOpen && !math.IsInf(cell.bias[d], 1) {
		arcs = append(arcs, Arc{
			To:   g.centerNd(c),
			Cost: g.pens.SinkPen + cell.sinkToCost + cell.bias[d],
		})
	}

	// turn edges to sibling ports
	for _, e := range cell.turns {
		if e.Closed() {
			continue
		}
		if e.ndA != nd && e.ndB != nd {
			continue
		}
		arcs = append(arcs, Arc{To: e.Other(nd), Edge: e, Cost: e.Cost()})
	}

	// the hop edge out of this port
	if hop := cell.hops[d]; hop != nil && !hop.Closed() && !hop.Blocked() && !hop.HasRes() {
		arcs = append(arcs, Arc{To: hop.Other(nd), Edge: hop, Cost: hop.Cost()})
	}

	return arcs
}

func (g *grid) HopEdges() []*GridEdge {
	return g.hopEdges
}

func (g *grid) WriteGeoCoursePens(course geo.Polyline, weight float64) map[int32]float64 {
	pens := make(map[int32]float64, len(g.hopEdges))
	for _, e := range g.hopEdges {
		a := g.cells[e.cell].pos
		b := g.cells[e.toCell].pos
		mid := geo.NewPoint((a.X+b.X)/2, (a.Y+b.Y)/2)
		pens[e.id] = weight * course.DistTo(mid)
	}
	return pens
}

func (g *grid) minHopCost() float64 {
	m := g.pens.VerticalPen
	if g.pens.HorizontalPen < m {
		m = g.pens.HorizontalPen
	}
	if g.numNb == 8 && g.pens.DiagonalPen < m {
		m = g.pens.DiagonalPen
	}
	return g.pens.Hop + m
}

func (g *grid) Heur(targets []CellID) func(nd int32) float64 {
	type xy struct{ x, y int }
	ts := make([]xy, 0, len(targets))
	for _, t := range targets {
		ts = append(ts, xy{g.cells[t].x, g.cells[t].y})
	}
	minHop := g.minHopCost()

	return func(nd int32) float64 {
		c := g.CellOfNd(nd)
		cx, cy := g.cells[c].x, g.cells[c].y
		best := math.Inf(1)
		for _, t := range ts {
			dx := math.Abs(float64(t.x - cx))
			dy := math.Abs(float64(t.y - cy))
			var hops float64
			if g.numNb == 8 {
				hops = math.Max(dx, dy)
			} else {
				hops = dx + dy
			}
			if h := hops * minHop; h < best {
				best = h
			}
		}
		if math.IsInf(best, 1) {
			return 0
		}
		return best
	}
}

func (g *grid) AddObstacle(ring []geo.Point) {
	for i := range g.cells {
		c := &g.cells[i]
		if !geo.PointInPolygon(c.pos, ring) {
			continue
		}
		if g.closedCl[c.id] {
			continue
		}
		g.closedCl[c.id] = true
		if g.settledAt[c.id] < 0 {
			g.tree.Delete(c.item)
		}
		for _, e := range c.turns {
			e.Close()
		}
		for d := 0; d < g.numNb; d++ {
			if c.hops[d] != nil {
				c.hops[d].Close()
			}
		}
	}
}
