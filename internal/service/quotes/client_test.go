package quotes

import (
	"math"
	"testing"
)

func TestPercentChanges(t *testing.T) {
	got := percentChanges([]float64{100, 102, 51})
	want := []float64{2, -50}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("changes[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if percentChanges([]float64{100}) != nil {
		t.Fatal("a single close has no changes")
	}
}

func TestCompactClosesDropsNulls(t *testing.T) {
	v1, v2 := 10.0, 12.0
	zero := 0.0
	got := compactCloses([]*float64{&v1, nil, &zero, &v2})
	if len(got) != 2 || got[0] != 10 || got[1] != 12 {
		t.Fatalf("closes = %v, want [10 12]", got)
	}
}
