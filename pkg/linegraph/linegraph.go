package linegraph

import (
	"errors"

	"github.com/pvnkmrksk/magga/pkg/geo"
)

var ErrInvalidInput = errors.New("invalid input")

// Line is a transit line. Lines are compared by identity (pointer), the ID is
// the stable external identity.
type Line struct {
	ID    string
	Label string
	Color string
}

// LineOcc is one occurrence of a line on an edge. Direction is the node the
// line travels towards on this edge, nil means the line runs in both
// directions.
type LineOcc struct {
	Line      *Line
	Direction *LineNode
}

type LineNode struct {
	ID      string
	Pos     geo.Point
	Station bool
	Label   string
	Adj     []*LineEdge
}

// LineEdge carries an ordered line list. The order is the transversal order
// left-to-right when walking the edge From -> To.
type LineEdge struct {
	From   *LineNode
	To     *LineNode
	Course geo.Polyline
	Lines  []LineOcc
}

func (e *LineEdge) OtherNd(n *LineNode) *LineNode {
	if e.From == n {
		return e.To
	}
	return e.From
}

// OutAngle is the tangent direction of the edge course leaving n.
func (e *LineEdge) OutAngle(n *LineNode) float64 {
	course := e.Course
	if len(course) < 2 {
		course = geo.Polyline{e.From.Pos, e.To.Pos}
	}
	if e.To == n {
		course = course.Reverse()
	}
	return geo.Angle(course[0], course[1])
}

func (e *LineEdge) HasLine(l *Line) bool {
	for _, occ := range e.Lines {
		if occ.Line == l {
			return true
		}
	}
	return false
}

func (n *LineNode) Deg() int {
	return len(n.Adj)
}

// LineGraph is the frozen input graph. Node and edge iteration order is the
// insertion order, which keeps all downstream passes deterministic.
type LineGraph struct {
	Nds []*LineNode

	nodeByID map[string]*LineNode
	lines    map[string]*Line
	lineOrd  []*Line
}

func New() *LineGraph {
	return &LineGraph{
		nodeByID: make(map[string]*LineNode),
		lines:    make(map[string]*Line),
	}
}

func (g *LineGraph) AddNd(id string, pos geo.Point, station bool, label string) *LineNode {
	if n, ok := g.nodeByID[id]; ok {
		return n
	}
	n := &LineNode{ID: id, Pos: pos, Station: station, Label: label}
	g.Nds = append(g.Nds, n)
	g.nodeByID[id] = n
	return n
}

func (g *LineGraph) GetNd(id string) *LineNode {
	return g.nodeByID[id]
}

func (g *LineGraph) AddLine(id, label, color string) *Line {
	if l, ok := g.lines[id]; ok {
		return l
	}
	l := &Line{ID: id, Label: label, Color: color}
	g.lines[id] = l
	g.lineOrd = append(g.lineOrd, l)
	return l
}

func (g *LineGraph) GetLine(id string) *Line {
	return g.lines[id]
}

func (g *LineGraph) Lines() []*Line {
	return g.lineOrd
}

func (g *LineGraph) AddEdg(from, to *LineNode, course geo.Polyline, lines []LineOcc) *LineEdge {
	if len(course) < 2 {
		course = geo.Polyline{from.Pos, to.Pos}
	}
	e := &LineEdge{From: from, To: to, Course: course, Lines: lines}
	from.Adj = append(from.Adj, e)
	to.Adj = append(to.Adj, e)
	return e
}

// Edgs returns all edges in deterministic order, each once.
func (g *LineGraph) Edgs() []*LineEdge {
	seen := make(map[*LineEdge]struct{})
	out := []*LineEdge{}
	for _, n := range g.Nds {
		for _, e := range n.Adj {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

func (g *LineGraph) NumNds() int {
	return len(g.Nds)
}

func (g *LineGraph) BBox() geo.BBox {
	box := geo.NewBBox()
	for _, n := range g.Nds {
		box = box.Extend(n.Pos)
		for _, e := range n.Adj {
			for _, p := range e.Course {
				box = box.Extend(p)
			}
		}
	}
	return box
}

func (g *LineGraph) delNd(n *LineNode) {
	for i, nd := range g.Nds {
		if nd == n {
			g.Nds = append(g.Nds[:i], g.Nds[i+1:]...)
			break
		}
	}
	delete(g.nodeByID, n.ID)
}

func (g *LineGraph) delEdg(e *LineEdge) {
	for _, n := range []*LineNode{e.From, e.To} {
		for i, ee := range n.Adj {
			if ee == e {
				n.Adj = append(n.Adj[:i], n.Adj[i+1:]...)
				break
			}
		}
	}
}

// MergeNds merges node a into node b, b survives. Edges between a and b are
// dropped, all other edges of a are re-attached to b with their direction
// anchors rewritten.
func (g *LineGraph) MergeNds(a, b *LineNode) *LineNode {
	for _, e := range append([]*LineEdge{}, a.Adj...) {
		if e.OtherNd(a) == b {
			g.delEdg(e)
			continue
		}
		if e.From == a {
			e.From = b
		} else {
			e.To = b
		}
		for i := range e.Lines {
			if e.Lines[i].Direction == a {
				e.Lines[i].Direction = b
			}
		}
		b.Adj = append(b.Adj, e)
	}
	g.delNd(a)
	return b
}
