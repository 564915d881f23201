package basegraph

import (
	"math"

	"github.com/pvnkmrksk/magga/pkg/geo"
)

// CellID addresses a grid cell. Cell ids are identical across independently
// built copies of the same grid, drawings can therefore be moved between
// worker copies.
type CellID = int32

const InvalidCell CellID = -1

// NodeCost is a per-port cost vector. Inf closes the port.
type NodeCost []float64

func NewNodeCost(n int) NodeCost {
	return make(NodeCost, n)
}

func (c NodeCost) Add(o NodeCost) NodeCost {
	for i := range c {
		if math.IsInf(o[i], 1) {
			c[i] = math.Inf(1)
		} else if !math.IsInf(c[i], 1) {
			c[i] += o[i]
		}
	}
	return c
}

// Arc is one expansion step of the routing graph, used by the shortest path
// search in the embedding engine.
type Arc struct {
	To   int32
	Edge *GridEdge
	Cost float64
}

type BaseGraphType int

const (
	Grid BaseGraphType = iota
	OctiGrid
)

// BaseGraph is the routing substrate shared by the 4- and 8-direction grid
// variants.
type BaseGraph interface {
	Init()

	NumNeighbors() int
	CellSize() float64
	Spacer() float64
	Pens() Penalties
	NumCells() int

	CellPos(c CellID) geo.Point
	CenterNd(c CellID) int32
	CellOfNd(nd int32) CellID
	PortDir(nd int32) int

	// Neighbor returns the adjacent cell in direction pos, or the cell itself
	// for pos == NumNeighbors(). InvalidCell outside the grid.
	Neighbor(c CellID, pos int) CellID
	PortOfHop(from, to CellID) (int, bool)

	GrNdCands(p geo.Point, maxDist float64) []CellID

	OpenSinkFr(c CellID, extraCost float64)
	OpenSinkTo(c CellID, extraCost float64)
	CloseSinkFr(c CellID)
	CloseSinkTo(c CellID)

	SettleNd(c CellID, nd int32)
	UnSettleNd(nd int32)
	IsSettled(nd int32) bool
	Settled(nd int32) (CellID, bool)
	CellSettled(c CellID) bool
	CellClosed(c CellID) bool

	SettleEdg(from, to CellID, e int32)
	UnSettleEdg(from, to CellID)
	Resident(from, to CellID) (int32, bool)

	WriteNdCosts(c CellID, v NodeCost)
	ClearNdCosts(c CellID)
	NdCostBias(c CellID, dir int) float64

	NdMovePen(p geo.Point, c CellID) float64
	CellDensityPen(c CellID) float64
	BendPenBetween(dirA, dirB int) float64

	// Expand lists the usable arcs out of a routing graph node. Geo course
	// penalties are added by the caller, keyed by hop edge id.
	Expand(nd int32) []Arc
	HopEdges() []*GridEdge
	WriteGeoCoursePens(course geo.Polyline, weight float64) map[int32]float64

	// Heur is an admissible lower bound on the routing cost from a node to
	// the nearest of the target cells.
	Heur(targets []CellID) func(nd int32) float64

	AddObstacle(ring []geo.Point)
}

// New builds a grid of the requested variant over the bounding box.
func New(t BaseGraphType, box geo.BBox, cellSize, spacer float64, pens Penalties) BaseGraph {
	switch t {
	case OctiGrid:
		return newGrid(box, cellSize, spacer, pens, 8)
	default:
		return newGrid(box, cellSize, spacer, pens, 4)
	}
}
