package scoring

import (
	"sort"
	"time"

	"GeoPulse/internal/domain/models"
)

// BaselineConfig controls baseline derivation. Zero values fall back to
// the defaults below.
type BaselineConfig struct {
	StdFloor          float64       // minimum effective std, guards near-zero-volatility items
	MaturityThreshold int           // observation count before an item is trusted
	SparkWindow       time.Duration // sparkline sampling window
	SparkPoints       int           // max sparkline points, final point always kept
	DeltaLookback     time.Duration // age of the reference value for 24h deltas
}

// DefaultBaselineConfig returns the standard baseline parameters.
func DefaultBaselineConfig() BaselineConfig {
	return BaselineConfig{
		StdFloor:          0.01,
		MaturityThreshold: 50,
		SparkWindow:       48 * time.Hour,
		SparkPoints:       12,
		DeltaLookback:     24 * time.Hour,
	}
}

func (c BaselineConfig) withDefaults() BaselineConfig {
	d := DefaultBaselineConfig()
	if c.StdFloor <= 0 {
		c.StdFloor = d.StdFloor
	}
	if c.MaturityThreshold <= 0 {
		c.MaturityThreshold = d.MaturityThreshold
	}
	if c.SparkWindow <= 0 {
		c.SparkWindow = d.SparkWindow
	}
	if c.SparkPoints <= 0 {
		c.SparkPoints = d.SparkPoints
	}
	if c.DeltaLookback <= 0 {
		c.DeltaLookback = d.DeltaLookback
	}
	return c
}

// ComputeBaseline derives rolling statistics for one item from its
// retained observation history. Mean and std are computed over the full
// history for stability; the sparkline is a display-only sub-sample.
// Returns ok=false when there are no observations.
func ComputeBaseline(itemID string, obs []models.Observation, now time.Time, cfg BaselineConfig) (models.Baseline, bool) {
	if len(obs) == 0 {
		return models.Baseline{}, false
	}
	cfg = cfg.withDefaults()

	sorted := make([]models.Observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	values := make([]float64, len(sorted))
	for i, o := range sorted {
		values[i] = o.Value
	}

	raw := Std(values)
	std := raw
	if std < cfg.StdFloor {
		std = cfg.StdFloor
	}

	b := models.Baseline{
		ItemID:    itemID,
		Mean:      Mean(values),
		Std:       std,
		RawStd:    raw,
		Count:     len(sorted),
		Mature:    len(sorted) >= cfg.MaturityThreshold,
		Sparkline: sparkline(sorted, now, cfg),
	}

	// Most recent value at least DeltaLookback old, for delta displays.
	cutoff := now.Add(-cfg.DeltaLookback)
	for _, o := range sorted {
		if !o.At.After(cutoff) {
			v := o.Value
			b.ValueDayAgo = &v
		}
	}
	return b, true
}

func sparkline(sorted []models.Observation, now time.Time, cfg BaselineConfig) []float64 {
	recent := make([]float64, 0, len(sorted))
	windowStart := now.Add(-cfg.SparkWindow)
	for _, o := range sorted {
		if o.At.After(windowStart) {
			recent = append(recent, o.Value)
		}
	}
	if len(recent) == 0 {
		// Fall back to whatever is available.
		n := len(sorted)
		from := n - cfg.SparkPoints
		if from < 0 {
			from = 0
		}
		for _, o := range sorted[from:] {
			recent = append(recent, o.Value)
		}
	}
	if len(recent) <= cfg.SparkPoints {
		return recent
	}
	step := len(recent) / (cfg.SparkPoints - 1)
	if step < 1 {
		step = 1
	}
	out := make([]float64, 0, cfg.SparkPoints)
	for i := 0; i < len(recent) && len(out) < cfg.SparkPoints-1; i += step {
		out = append(out, recent[i])
	}
	return append(out, recent[len(recent)-1])
}

// WindowShiftZ measures how the trailing `recent` values of a series
// deviate from the rest of it: (mean(recent) - mean(rest)) / std(rest).
// Used for daily search-interest series. Returns ok=false when the
// series is too short for a stable read (needs recent+7 points).
func WindowShiftZ(values []float64, recent int) (float64, bool) {
	if recent <= 0 || len(values) < recent+7 {
		return 0, false
	}
	head := values[:len(values)-recent]
	tail := values[len(values)-recent:]
	std := Std(head)
	if std <= 0 {
		return 0, true
	}
	return (Mean(tail) - Mean(head)) / std, true
}

// SameHourZ compares the latest value of an hourly series against the
// same hour on previous days, removing the diurnal cycle. Needs at
// least 72 hourly points and 7 same-hour samples; a flat baseline
// (std < 0.01) reads as z=0.
func SameHourZ(values []float64) (float64, bool) {
	if len(values) < 72 {
		return 0, false
	}
	current := values[len(values)-1]
	var same []float64
	for day := 1; day < len(values)/24; day++ {
		idx := len(values) - 1 - day*24
		if idx >= 0 {
			same = append(same, values[idx])
		}
	}
	if len(same) < 7 {
		return 0, false
	}
	std := Std(same)
	if std < 0.01 {
		return 0, true
	}
	return (current - Mean(same)) / std, true
}
