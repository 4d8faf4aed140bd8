package scoring

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		z    float64
		want float64
	}{
		{"neutral", 0, 50.0},
		{"one sigma up", 1, 65.7},
		{"two sigma up", 2, 78.6},
		{"two sigma down", -2, 21.4},
		{"extreme up clips", 20, 99.9},
		{"extreme down clips", -20, 0.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.z); got != tc.want {
				t.Fatalf("Normalize(%v) = %v, want %v", tc.z, got, tc.want)
			}
		})
	}
}

func TestNormalizeSymmetry(t *testing.T) {
	for _, z := range []float64{0.3, 1.0, 1.7, 2.5, 4.0} {
		up := Normalize(z)
		down := Normalize(-z)
		if math.Abs(up+down-100) > 0.11 {
			t.Fatalf("Normalize(%v)+Normalize(-%v) = %v, want ~100", z, z, up+down)
		}
	}
}

func TestNormalizeMonotonic(t *testing.T) {
	prev := Normalize(-6)
	for z := -5.5; z <= 6; z += 0.5 {
		cur := Normalize(z)
		if cur < prev {
			t.Fatalf("Normalize not monotonic at z=%v: %v < %v", z, cur, prev)
		}
		prev = cur
	}
}

func TestNormalizeNaN(t *testing.T) {
	if got := Normalize(math.NaN()); got != 50.0 {
		t.Fatalf("Normalize(NaN) = %v, want 50", got)
	}
}
