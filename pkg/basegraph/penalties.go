package basegraph

// Penalties holds the full cost model of a grid. Bend penalties are keyed by
// the angle between the two port directions of a pass-through: p_45 is the
// sharpest usable bend and the most expensive, p_0 the straight pass.
type Penalties struct {
	P0   float64 `toml:"p_0"`
	P45  float64 `toml:"p_45"`
	P90  float64 `toml:"p_90"`
	P135 float64 `toml:"p_135"`

	Hop           float64 `toml:"hop"`
	VerticalPen   float64 `toml:"vertical"`
	HorizontalPen float64 `toml:"horizontal"`
	DiagonalPen   float64 `toml:"diagonal"`

	DensityPen      float64 `toml:"density"`
	DisplacementPen float64 `toml:"displacement"`
	SinkPen         float64 `toml:"sink"`
}

func DefaultPenalties() Penalties {
	return Penalties{
		P0:   0,
		P45:  3,
		P90:  1.5,
		P135: 1,

		Hop:           0,
		VerticalPen:   1,
		HorizontalPen: 1,
		DiagonalPen:   1.5,

		DensityPen:      0.5,
		DisplacementPen: 0.5,
		SinkPen:         0,
	}
}
