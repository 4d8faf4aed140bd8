package scoring

import (
	"math"
	"testing"
	"time"

	"GeoPulse/internal/domain/models"
)

func hourlyObs(itemID string, values []float64, now time.Time) []models.Observation {
	obs := make([]models.Observation, len(values))
	for i, v := range values {
		obs[i] = models.Observation{
			ItemID: itemID,
			At:     now.Add(-time.Duration(len(values)-1-i) * time.Hour),
			Value:  v,
		}
	}
	return obs
}

func TestComputeBaselineEmpty(t *testing.T) {
	_, ok := ComputeBaseline("x", nil, time.Now(), BaselineConfig{})
	if ok {
		t.Fatal("expected ok=false for empty history")
	}
}

func TestComputeBaselineStats(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	obs := hourlyObs("c1", []float64{0.10, 0.20, 0.30, 0.40}, now)

	b, ok := ComputeBaseline("c1", obs, now, BaselineConfig{})
	if !ok {
		t.Fatal("expected ok=true")
	}
	if math.Abs(b.Mean-0.25) > 1e-9 {
		t.Fatalf("Mean = %v, want 0.25", b.Mean)
	}
	if math.Abs(b.RawStd-math.Sqrt(0.0125)) > 1e-9 {
		t.Fatalf("RawStd = %v, want %v", b.RawStd, math.Sqrt(0.0125))
	}
	if b.Count != 4 || b.Mature {
		t.Fatalf("Count=%d Mature=%v, want 4 immature", b.Count, b.Mature)
	}
}

func TestComputeBaselineStdFloor(t *testing.T) {
	now := time.Now()
	obs := hourlyObs("flat", []float64{0.5, 0.5, 0.5, 0.5, 0.5}, now)

	b, _ := ComputeBaseline("flat", obs, now, BaselineConfig{})
	if b.Std != 0.01 {
		t.Fatalf("Std = %v, want floor 0.01", b.Std)
	}
	if b.RawStd != 0 {
		t.Fatalf("RawStd = %v, want 0", b.RawStd)
	}
	if z := b.Z(0.5); z != 0 {
		t.Fatalf("Z at mean = %v, want 0", z)
	}
}

func TestComputeBaselineMaturity(t *testing.T) {
	now := time.Now()
	values := make([]float64, 50)
	for i := range values {
		values[i] = float64(i)
	}
	b, _ := ComputeBaseline("m", hourlyObs("m", values, now), now, BaselineConfig{})
	if !b.Mature {
		t.Fatalf("expected mature at %d observations", len(values))
	}
	b, _ = ComputeBaseline("m", hourlyObs("m", values[:49], now), now, BaselineConfig{})
	if b.Mature {
		t.Fatal("expected immature at 49 observations")
	}
}

func TestComputeBaselineSparkline(t *testing.T) {
	now := time.Now()
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	// 100 hourly points, 47 of them inside the 48h window.
	b, _ := ComputeBaseline("s", hourlyObs("s", values, now), now, BaselineConfig{})
	if len(b.Sparkline) == 0 || len(b.Sparkline) > 12 {
		t.Fatalf("sparkline length = %d, want 1..12", len(b.Sparkline))
	}
	if last := b.Sparkline[len(b.Sparkline)-1]; last != 99 {
		t.Fatalf("sparkline final point = %v, want latest value 99", last)
	}
}

func TestComputeBaselineValueDayAgo(t *testing.T) {
	now := time.Now()
	values := make([]float64, 30)
	for i := range values {
		values[i] = float64(i)
	}
	b, _ := ComputeBaseline("d", hourlyObs("d", values, now), now, BaselineConfig{})
	if b.ValueDayAgo == nil {
		t.Fatal("expected a 24h-old reference value")
	}
	// 30 hourly points ending now: index 5 is exactly 24h old.
	if *b.ValueDayAgo != 5 {
		t.Fatalf("ValueDayAgo = %v, want 5", *b.ValueDayAgo)
	}

	b, _ = ComputeBaseline("d", hourlyObs("d", values[:10], now), now, BaselineConfig{})
	if b.ValueDayAgo != nil {
		t.Fatalf("ValueDayAgo = %v, want nil for a short history", *b.ValueDayAgo)
	}
}

func TestWindowShiftZ(t *testing.T) {
	var flat []float64
	for i := 0; i < 30; i++ {
		flat = append(flat, 50)
	}
	if z, ok := WindowShiftZ(flat, 7); !ok || z != 0 {
		t.Fatalf("flat series: z=%v ok=%v, want 0 true", z, ok)
	}

	// Quiet history then a one-week spike.
	series := []float64{48, 52, 50, 49, 51, 50, 48, 52, 50, 49, 51, 50, 48, 52}
	for i := 0; i < 7; i++ {
		series = append(series, 80)
	}
	z, ok := WindowShiftZ(series, 7)
	if !ok || z <= 3 {
		t.Fatalf("spike series: z=%v ok=%v, want large positive", z, ok)
	}

	if _, ok := WindowShiftZ(series[:10], 7); ok {
		t.Fatal("expected ok=false for a short series")
	}
}

func TestSameHourZ(t *testing.T) {
	// 10 days of hourly data with a clean diurnal cycle.
	base := make([]float64, 240)
	for i := range base {
		base[i] = 100 + 20*math.Sin(2*math.Pi*float64(i%24)/24)
	}
	if z, ok := SameHourZ(base); !ok || z != 0 {
		t.Fatalf("cyclic series: z=%v ok=%v, want 0 true", z, ok)
	}

	// Same cycle with noise, current hour collapsed.
	noisy := make([]float64, 240)
	for i := range noisy {
		noisy[i] = base[i] + float64(i%5)
	}
	noisy[len(noisy)-1] = 10
	z, ok := SameHourZ(noisy)
	if !ok || z >= -2 {
		t.Fatalf("collapse: z=%v ok=%v, want strongly negative", z, ok)
	}

	if _, ok := SameHourZ(base[:48]); ok {
		t.Fatal("expected ok=false below 72 points")
	}
}
