package models

import "time"

// Observation is a timestamped scalar for one trackable item: a contract
// risk price, a ticker daily move, a search-term interest value or an
// hourly connectivity volume. Immutable once recorded.
type Observation struct {
	ItemID string
	At     time.Time
	Value  float64
	Weight float64 // traded volume or importance; 0 means unweighted
	Region string
	Source string
}

// Baseline is derived from the trailing observation history of one item.
// It is recomputed each refresh cycle and replaced wholesale, never
// mutated in place.
type Baseline struct {
	ItemID      string
	Mean        float64
	Std         float64 // floored, safe to divide by
	RawStd      float64
	Count       int
	Mature      bool
	Sparkline   []float64 // display only, last 48h sub-sampled
	ValueDayAgo *float64  // most recent value at least 24h old, nil if unknown
}

// Z returns the z-score of v against the baseline.
func (b Baseline) Z(v float64) float64 {
	return (v - b.Mean) / b.Std
}
