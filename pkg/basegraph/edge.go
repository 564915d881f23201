package basegraph

type edgeKind int

const (
	hopEdge edgeKind = iota
	turnEdge
)

// GridEdge is a hop edge between two neighboring cells or a turn edge between
// two ports of the same cell. Edges keep a raw and an effective cost,
// Reset restores the raw one.
type GridEdge struct {
	id   int32
	kind edgeKind

	// hop: owning cell and target cell, dir is the hop direction seen from
	// the owning cell. turn: the two port dirs within cell.
	cell   CellID
	toCell CellID
	dirA   int
	dirB   int

	ndA int32
	ndB int32

	rawCost float64
	cost    float64

	closed  int
	blocked int

	res int32
}

func (e *GridEdge) ID() int32        { return e.id }
func (e *GridEdge) IsHop() bool      { return e.kind == hopEdge }
func (e *GridEdge) IsSecondary() bool { return e.kind != hopEdge }
func (e *GridEdge) Cell() CellID     { return e.cell }
func (e *GridEdge) ToCell() CellID   { return e.toCell }
func (e *GridEdge) Dir() int         { return e.dirA }

func (e *GridEdge) Cost() float64    { return e.cost }
func (e *GridEdge) RawCost() float64 { return e.rawCost }

func (e *GridEdge) SetCost(c float64) { e.cost = c }
func (e *GridEdge) Reset()            { e.cost = e.rawCost }

func (e *GridEdge) Close()       { e.closed++ }
func (e *GridEdge) Open()        { e.closed-- }
func (e *GridEdge) Closed() bool { return e.closed > 0 }

// Block marks the edge as crossed by a settled edge of the opposing
// diagonal.
func (e *GridEdge) Block()        { e.blocked++ }
func (e *GridEdge) Unblock()      { e.blocked-- }
func (e *GridEdge) Blocked() bool { return e.blocked > 0 }

func (e *GridEdge) Res() int32    { return e.res }
func (e *GridEdge) HasRes() bool  { return e.res >= 0 }
func (e *GridEdge) SetRes(r int32) { e.res = r }
func (e *GridEdge) ClearRes()     { e.res = -1 }

// Other returns the opposite routing graph node of the edge.
func (e *GridEdge) Other(nd int32) int32 {
	if e.ndA == nd {
		return e.ndB
	}
	return e.ndA
}
