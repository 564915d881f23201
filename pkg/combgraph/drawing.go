package combgraph

import (
	"math"

	"github.com/pvnkmrksk/magga/pkg/basegraph"
	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"gonum.org/v1/gonum/floats"
)

// Score is the cost decomposition of a drawing.
type Score struct {
	Hop   float64
	Bend  float64
	Move  float64
	Dense float64
}

func (s Score) Sum() float64 {
	return floats.Sum([]float64{s.Hop, s.Bend, s.Move, s.Dense})
}

func (s Score) Add(o Score) Score {
	return Score{
		Hop:   s.Hop + o.Hop,
		Bend:  s.Bend + o.Bend,
		Move:  s.Move + o.Move,
		Dense: s.Dense + o.Dense,
	}
}

// Hop is one occupied hop edge, oriented along the path.
type Hop struct {
	From basegraph.CellID
	To   basegraph.CellID
}

// EdgePath is the grid course of a comb edge, hops run from the edge's From
// cell to its To cell.
type EdgePath struct {
	Hops []Hop
	Cost Score
}

// Drawing is the mutable embedding state: node placements, edge paths and
// the accumulated score split. A drawing without a complete embedding
// scores infinite.
type Drawing struct {
	ndPos   map[*CombNode]basegraph.CellID
	paths   map[*CombEdge]*EdgePath
	ndCosts map[*CombNode]Score

	valid bool
}

func NewDrawing() *Drawing {
	return &Drawing{
		ndPos:   make(map[*CombNode]basegraph.CellID),
		paths:   make(map[*CombEdge]*EdgePath),
		ndCosts: make(map[*CombNode]Score),
	}
}

func (d *Drawing) Valid() bool { return d.valid }

func (d *Drawing) SetValid(v bool) { d.valid = v }

func (d *Drawing) Score() float64 {
	if !d.valid {
		return math.Inf(1)
	}
	return d.FullScore().Sum()
}

func (d *Drawing) FullScore() Score {
	s := Score{}
	for _, p := range d.paths {
		s = s.Add(p.Cost)
	}
	for _, c := range d.ndCosts {
		s = s.Add(c)
	}
	return s
}

func (d *Drawing) Draw(e *CombEdge, hops []Hop, cost Score) {
	d.paths[e] = &EdgePath{Hops: hops, Cost: cost}
}

func (d *Drawing) SetGrNd(nd *CombNode, c basegraph.CellID) {
	d.ndPos[nd] = c
}

func (d *Drawing) SetNdCosts(nd *CombNode, s Score) {
	d.ndCosts[nd] = s
}

func (d *Drawing) GrNd(nd *CombNode) (basegraph.CellID, bool) {
	c, ok := d.ndPos[nd]
	return c, ok
}

func (d *Drawing) Path(e *CombEdge) (*EdgePath, bool) {
	p, ok := d.paths[e]
	return p, ok
}

func (d *Drawing) Erase(e *CombEdge) {
	delete(d.paths, e)
}

func (d *Drawing) EraseNd(nd *CombNode) {
	delete(d.ndPos, nd)
	delete(d.ndCosts, nd)
}

// Crumble resets the drawing after a failed try.
func (d *Drawing) Crumble() {
	d.ndPos = make(map[*CombNode]basegraph.CellID)
	d.paths = make(map[*CombEdge]*EdgePath)
	d.ndCosts = make(map[*CombNode]Score)
	d.valid = false
}

func (d *Drawing) Copy() *Drawing {
	cp := NewDrawing()
	cp.valid = d.valid
	for k, v := range d.ndPos {
		cp.ndPos[k] = v
	}
	for k, v := range d.paths {
		hops := make([]Hop, len(v.Hops))
		copy(hops, v.Hops)
		cp.paths[k] = &EdgePath{Hops: hops, Cost: v.Cost}
	}
	for k, v := range d.ndCosts {
		cp.ndCosts[k] = v
	}
	return cp
}

// ApplyEdgToGrid re-settles one edge path on a grid copy.
func (d *Drawing) ApplyEdgToGrid(e *CombEdge, gg basegraph.BaseGraph) {
	p, ok := d.paths[e]
	if !ok {
		return
	}
	for _, h := range p.Hops {
		gg.SettleEdg(h.From, h.To, e.Idx)
	}
}

func (d *Drawing) EraseEdgFromGrid(e *CombEdge, gg basegraph.BaseGraph) {
	p, ok := d.paths[e]
	if !ok {
		return
	}
	for _, h := range p.Hops {
		gg.UnSettleEdg(h.From, h.To)
	}
}

// ApplyToGrid settles every node and edge of the drawing on a grid copy.
func (d *Drawing) ApplyToGrid(gg basegraph.BaseGraph) {
	for nd, c := range d.ndPos {
		gg.SettleNd(c, nd.Idx)
	}
	for e := range d.paths {
		d.ApplyEdgToGrid(e, gg)
	}
}

func (d *Drawing) EraseFromGrid(gg basegraph.BaseGraph) {
	for e := range d.paths {
		d.EraseEdgFromGrid(e, gg)
	}
	for nd := range d.ndPos {
		gg.UnSettleNd(nd.Idx)
	}
}

// GetLineGraph renders the schematic line graph: node positions move to
// their cells, every chain edge course is replaced by its share of the
// embedded grid course.
func (d *Drawing) GetLineGraph(cg *CombGraph, gg basegraph.BaseGraph) *linegraph.LineGraph {
	out := linegraph.New()

	lineFor := func(l *linegraph.Line) *linegraph.Line {
		return out.AddLine(l.ID, l.Label, l.Color)
	}

	for _, cn := range cg.Nds {
		pos := cn.Pos()
		if c, ok := d.ndPos[cn]; ok {
			pos = gg.CellPos(c)
		}
		out.AddNd(cn.P.ID, pos, cn.P.Station, cn.P.Label)
	}

	for _, ce := range cg.Edgs {
		full := d.edgeCourse(ce, gg)

		// distribute the embedded course to the chain edges by their share
		// of the original course length
		total := 0.0
		for _, le := range ce.Chain {
			total += le.Course.Length()
		}

		walked := 0.0
		cur := ce.From.P
		for i, le := range ce.Chain {
			a := 0.0
			if total > 0 {
				a = walked / total
			}
			walked += le.Course.Length()
			b := 1.0
			if total > 0 && i < len(ce.Chain)-1 {
				b = walked / total
			}

			next := le.OtherNd(cur)
			sub := full.SubLine(a, b)

			frOut := out.AddNd(cur.ID, sub[0], cur.Station, cur.Label)
			toOut := out.AddNd(next.ID, sub[len(sub)-1], next.Station, next.Label)
			// direction anchors may have added these nodes early with their
			// geographic position, pin them to the embedded course
			frOut.Pos = sub[0]
			toOut.Pos = sub[len(sub)-1]

			course := sub
			from, to := frOut, toOut
			if le.From != cur {
				course = sub.Reverse()
				from, to = toOut, frOut
			}

			occs := make([]linegraph.LineOcc, 0, len(le.Lines))
			for _, occ := range le.Lines {
				o := linegraph.LineOcc{Line: lineFor(occ.Line)}
				if occ.Direction != nil {
					o.Direction = out.AddNd(occ.Direction.ID, occ.Direction.Pos,
						occ.Direction.Station, occ.Direction.Label)
				}
				occs = append(occs, o)
			}
			out.AddEdg(from, to, course, occs)

			cur = next
		}
	}

	return out
}

func (d *Drawing) edgeCourse(ce *CombEdge, gg basegraph.BaseGraph) geo.Polyline {
	p, ok := d.paths[ce]
	if !ok || len(p.Hops) == 0 {
		return ce.Course
	}
	pl := geo.Polyline{gg.CellPos(p.Hops[0].From)}
	for _, h := range p.Hops {
		pl = append(pl, gg.CellPos(h.To))
	}
	return pl
}
