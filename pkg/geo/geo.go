package geo

import (
	"math"

	"github.com/golang/geo/r2"
)

// Point is a planar point in world units. All drawing computations happen on
// the plane, inputs are expected to be in a projected coordinate system.
type Point = r2.Point

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func Dist(a, b Point) float64 {
	return a.Sub(b).Norm()
}

// Angle returns the direction from a to b in radians, counterclockwise from
// the positive x axis, in (-pi, pi].
func Angle(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

type BBox struct {
	Min Point
	Max Point
}

func NewBBox() BBox {
	return BBox{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

func (b BBox) Extend(p Point) BBox {
	return BBox{
		Min: Point{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y)},
		Max: Point{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y)},
	}
}

func (b BBox) Pad(d float64) BBox {
	return BBox{
		Min: Point{X: b.Min.X - d, Y: b.Min.Y - d},
		Max: Point{X: b.Max.X + d, Y: b.Max.Y + d},
	}
}

func (b BBox) Width() float64 {
	return b.Max.X - b.Min.X
}

func (b BBox) Height() float64 {
	return b.Max.Y - b.Min.Y
}

func (b BBox) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// ProjectPointToSegment projects p onto the segment a-b.
func ProjectPointToSegment(p, a, b Point) Point {
	ab := b.Sub(a)
	ab2 := ab.Dot(ab)
	if ab2 == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / ab2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Mul(t))
}

func DistPointSegment(p, a, b Point) float64 {
	return Dist(p, ProjectPointToSegment(p, a, b))
}

// PointInPolygon tests p against the closed ring via ray casting. The ring
// does not need an explicit closing point.
func PointInPolygon(p Point, ring []Point) bool {
	if len(ring) < 3 {
		return false
	}
	in := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		pi, pj := ring[i], ring[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			in = !in
		}
		j = i
	}
	return in
}
