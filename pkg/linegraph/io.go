package linegraph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/twpayne/go-polyline"
)

type jsonNode struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Station bool    `json:"station,omitempty"`
	Label   string  `json:"label,omitempty"`
}

type jsonLine struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Color string `json:"color,omitempty"`
}

type jsonLineOcc struct {
	Line      string `json:"line"`
	Direction string `json:"direction,omitempty"`
}

type jsonEdge struct {
	From    string        `json:"from"`
	To      string        `json:"to"`
	Course  [][]float64   `json:"course,omitempty"`
	Encoded string        `json:"encodedCourse,omitempty"`
	Lines   []jsonLineOcc `json:"lines"`
}

type jsonGraph struct {
	Nodes []jsonNode `json:"nodes"`
	Lines []jsonLine `json:"lines"`
	Edges []jsonEdge `json:"edges"`
}

// ReadJSON parses a LineGraph. Unknown node or line references and empty
// graphs are rejected with ErrInvalidInput.
func ReadJSON(r io.Reader) (*LineGraph, error) {
	var jg jsonGraph
	dec := json.NewDecoder(r)
	if err := dec.Decode(&jg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(jg.Nodes) == 0 {
		return nil, fmt.Errorf("%w: graph has no nodes", ErrInvalidInput)
	}

	g := New()
	for _, jn := range jg.Nodes {
		g.AddNd(jn.ID, geo.NewPoint(jn.X, jn.Y), jn.Station, jn.Label)
	}
	for _, jl := range jg.Lines {
		g.AddLine(jl.ID, jl.Label, jl.Color)
	}
	for _, je := range jg.Edges {
		from := g.GetNd(je.From)
		to := g.GetNd(je.To)
		if from == nil || to == nil {
			return nil, fmt.Errorf("%w: edge references unknown node %q-%q", ErrInvalidInput, je.From, je.To)
		}
		course := geo.Polyline{}
		for _, p := range je.Course {
			if len(p) != 2 {
				return nil, fmt.Errorf("%w: malformed course point", ErrInvalidInput)
			}
			course = append(course, geo.NewPoint(p[0], p[1]))
		}
		occs := []LineOcc{}
		for _, jo := range je.Lines {
			l := g.GetLine(jo.Line)
			if l == nil {
				return nil, fmt.Errorf("%w: edge references unknown line %q", ErrInvalidInput, jo.Line)
			}
			var dir *LineNode
			if jo.Direction != "" {
				dir = g.GetNd(jo.Direction)
				if dir == nil {
					return nil, fmt.Errorf("%w: direction references unknown node %q", ErrInvalidInput, jo.Direction)
				}
			}
			occs = append(occs, LineOcc{Line: l, Direction: dir})
		}
		g.AddEdg(from, to, course, occs)
	}
	return g, nil
}

// WriteJSON serializes the graph, edge courses both as raw point lists and as
// an encoded polyline string.
func (g *LineGraph) WriteJSON(w io.Writer) error {
	jg := jsonGraph{}
	for _, n := range g.Nds {
		jg.Nodes = append(jg.Nodes, jsonNode{
			ID: n.ID, X: n.Pos.X, Y: n.Pos.Y, Station: n.Station, Label: n.Label,
		})
	}
	for _, l := range g.Lines() {
		jg.Lines = append(jg.Lines, jsonLine{ID: l.ID, Label: l.Label, Color: l.Color})
	}
	for _, e := range g.Edgs() {
		je := jsonEdge{From: e.From.ID, To: e.To.ID}
		coords := make([][]float64, 0, len(e.Course))
		for _, p := range e.Course {
			je.Course = append(je.Course, []float64{p.X, p.Y})
			coords = append(coords, []float64{p.X, p.Y})
		}
		je.Encoded = string(polyline.EncodeCoords(coords))
		for _, occ := range e.Lines {
			jo := jsonLineOcc{Line: occ.Line.ID}
			if occ.Direction != nil {
				jo.Direction = occ.Direction.ID
			}
			je.Lines = append(je.Lines, jo)
		}
		jg.Edges = append(jg.Edges, je)
	}

	enc := json.NewEncoder(w)
	return enc.Encode(jg)
}
