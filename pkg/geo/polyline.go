package geo

// Polyline is an ordered point sequence, the geographic course of an edge.
type Polyline []Point

func (pl Polyline) Length() float64 {
	l := 0.0
	for i := 0; i < len(pl)-1; i++ {
		l += Dist(pl[i], pl[i+1])
	}
	return l
}

func (pl Polyline) Reverse() Polyline {
	rev := make(Polyline, len(pl))
	for i, p := range pl {
		rev[len(pl)-1-i] = p
	}
	return rev
}

// DistTo returns the minimum distance from p to any segment of the polyline.
func (pl Polyline) DistTo(p Point) float64 {
	if len(pl) == 0 {
		return 0
	}
	if len(pl) == 1 {
		return Dist(p, pl[0])
	}
	best := Dist(p, pl[0])
	for i := 0; i < len(pl)-1; i++ {
		d := DistPointSegment(p, pl[i], pl[i+1])
		if d < best {
			best = d
		}
	}
	return best
}

// At returns the point at arc-length fraction t in [0, 1].
func (pl Polyline) At(t float64) Point {
	if len(pl) == 0 {
		return Point{}
	}
	if len(pl) == 1 || t <= 0 {
		return pl[0]
	}
	if t >= 1 {
		return pl[len(pl)-1]
	}
	target := t * pl.Length()
	walked := 0.0
	for i := 0; i < len(pl)-1; i++ {
		seg := Dist(pl[i], pl[i+1])
		if walked+seg >= target && seg > 0 {
			f := (target - walked) / seg
			d := pl[i+1].Sub(pl[i])
			return pl[i].Add(d.Mul(f))
		}
		walked += seg
	}
	return pl[len(pl)-1]
}

// SubLine cuts the polyline between arc-length fractions a and b, a <= b.
func (pl Polyline) SubLine(a, b float64) Polyline {
	if len(pl) < 2 {
		return pl
	}
	if a < 0 {
		a = 0
	}
	if b > 1 {
		b = 1
	}
	total := pl.Length()
	if total == 0 {
		return Polyline{pl[0], pl[len(pl)-1]}
	}
	from := a * total
	to := b * total

	out := Polyline{pl.At(a)}
	walked := 0.0
	for i := 0; i < len(pl)-1; i++ {
		seg := Dist(pl[i], pl[i+1])
		walked += seg
		if walked > from && walked < to {
			out = append(out, pl[i+1])
		}
	}
	out = append(out, pl.At(b))
	return out
}

// Merge concatenates courses, dropping duplicated joint points.
func Merge(pls ...Polyline) Polyline {
	out := Polyline{}
	for _, pl := range pls {
		for _, p := range pl {
			if len(out) > 0 && Dist(out[len(out)-1], p) < 1e-9 {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
