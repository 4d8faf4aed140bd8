package scoring

import (
	"math"
	"testing"
	"time"

	"GeoPulse/internal/domain/models"
)

func matureBaseline(mean, std float64) models.Baseline {
	return models.Baseline{Mean: mean, Std: std, RawStd: std, Count: 60, Mature: true}
}

func TestAggregateItemsWeighted(t *testing.T) {
	now := time.Now()
	items := []Item{
		{ID: "a", Value: 0.70, Weight: 3000, Baseline: matureBaseline(0.50, 0.10)}, // z = 2
		{ID: "b", Value: 0.50, Weight: 1000, Baseline: matureBaseline(0.50, 0.10)}, // z = 0
	}
	sig := AggregateItems(models.SignalMarket, "europe", items, now)

	if sig.Insufficient {
		t.Fatal("expected a data-backed signal")
	}
	if math.Abs(sig.Z-1.5) > 1e-9 {
		t.Fatalf("Z = %v, want 1.5 (volume weighted)", sig.Z)
	}
	if sig.Score != Normalize(1.5) {
		t.Fatalf("Score = %v, want %v", sig.Score, Normalize(1.5))
	}
	if sig.MatureItems != 2 || sig.ImmatureItems != 0 {
		t.Fatalf("counts = %d/%d, want 2/0", sig.MatureItems, sig.ImmatureItems)
	}
}

func TestAggregateItemsUnweightedFallback(t *testing.T) {
	items := []Item{
		{ID: "a", Value: 0.70, Baseline: matureBaseline(0.50, 0.10)}, // z = 2
		{ID: "b", Value: 0.40, Baseline: matureBaseline(0.50, 0.10)}, // z = -1
	}
	sig := AggregateItems(models.SignalFinancial, "global", items, time.Now())
	if math.Abs(sig.Z-0.5) > 1e-9 {
		t.Fatalf("Z = %v, want 0.5 (plain mean)", sig.Z)
	}
}

func TestAggregateItemsNoMature(t *testing.T) {
	items := []Item{
		{ID: "young", Value: 0.9, Baseline: models.Baseline{Mean: 0.5, Std: 0.1, Count: 3}},
	}
	sig := AggregateItems(models.SignalMarket, "asia_pacific", items, time.Now())

	if !sig.Insufficient {
		t.Fatal("expected Insufficient with no mature items")
	}
	if sig.Score != 50.0 || sig.Z != 0 {
		t.Fatalf("score/z = %v/%v, want 50/0", sig.Score, sig.Z)
	}
	if sig.ImmatureItems != 1 {
		t.Fatalf("ImmatureItems = %d, want 1", sig.ImmatureItems)
	}
	if sig.ScoreOrNil() != nil {
		t.Fatal("insufficient signal must read as missing in composites")
	}
}

func TestAggregateItemsContributions(t *testing.T) {
	items := []Item{
		{ID: "a", Label: "A", Value: 0.70, Weight: 1000, Baseline: matureBaseline(0.50, 0.10)}, // |z*w| = 2000
		{ID: "b", Label: "B", Value: 0.40, Weight: 1000, Baseline: matureBaseline(0.50, 0.10)}, // |z*w| = 1000
		{ID: "c", Label: "C", Value: 0.50, Weight: 9999, Baseline: matureBaseline(0.50, 0.10)}, // |z*w| = 0
	}
	sig := AggregateItems(models.SignalMarket, "middle_east", items, time.Now())

	if len(sig.Contributions) != 3 {
		t.Fatalf("contributions = %d, want 3", len(sig.Contributions))
	}
	top := sig.Contributions[0]
	if top.ID != "a" {
		t.Fatalf("top contributor = %s, want a", top.ID)
	}
	if math.Abs(top.Percent-66.7) > 0.05 {
		t.Fatalf("top percent = %v, want ~66.7", top.Percent)
	}
	if top.Direction != "up" {
		t.Fatalf("top direction = %s, want up", top.Direction)
	}
	if sig.Contributions[1].Direction != "down" {
		t.Fatalf("second direction = %s, want down", sig.Contributions[1].Direction)
	}
	if sig.Contributions[2].Direction != "neutral" {
		t.Fatalf("flat item direction = %s, want neutral", sig.Contributions[2].Direction)
	}

	var total float64
	for _, c := range sig.Contributions {
		total += c.Percent
	}
	if math.Abs(total-100) > 0.3 {
		t.Fatalf("percents sum to %v, want ~100", total)
	}
}
