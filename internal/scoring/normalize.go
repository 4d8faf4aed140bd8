package scoring

import "math"

// DefaultSlope is the sigmoid steepness, calibrated so z=1 maps to ~65,
// z=2 to ~79, z=3 to ~88, z=4 to ~93, z=5 to ~96.
const DefaultSlope = 0.65

// Normalize maps a z-score onto the 0-100 display scale with the default
// slope. The curve approaches but never reaches 0 or 100, so escalation
// always has headroom, and Normalize(0) = 50.
func Normalize(z float64) float64 {
	return NormalizeWith(z, DefaultSlope)
}

// NormalizeWith is Normalize with an explicit slope. Total over the
// reals; non-finite inputs saturate at the clip bounds.
func NormalizeWith(z, slope float64) float64 {
	if math.IsNaN(z) {
		return 50.0
	}
	s := 100 / (1 + math.Exp(-slope*z))
	if s < 0.1 {
		s = 0.1
	}
	if s > 99.9 {
		s = 99.9
	}
	return round1(s)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
