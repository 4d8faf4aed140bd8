package scoring

import (
	"math"
	"sort"
	"time"

	"GeoPulse/internal/domain/models"
)

// Item is one scoreable input to a signal: its latest value, baseline
// and display label. Weight is the aggregation weight (traded volume,
// layer share); zero weights trigger the unweighted fallback.
type Item struct {
	ID       string
	Label    string
	Value    float64
	Weight   float64
	Baseline models.Baseline
}

// AggregateItems combines mature items into a single signal. The signal
// z is the weight-normalized mean of item z-scores; when every weight is
// zero it degrades to a plain mean. Immature items are counted but carry
// no influence. With no mature items the signal reads neutral and is
// flagged Insufficient.
func AggregateItems(name, scope string, items []Item, now time.Time) *models.Signal {
	sig := &models.Signal{
		Name:      name,
		Scope:     scope,
		UpdatedAt: now,
	}

	var mature []Item
	for _, it := range items {
		if it.Baseline.Mature {
			mature = append(mature, it)
		} else {
			sig.ImmatureItems++
		}
	}
	sig.MatureItems = len(mature)

	if len(mature) == 0 {
		sig.Z = 0
		sig.Score = 50.0
		sig.Insufficient = true
		return sig
	}

	var totalWeight float64
	for _, it := range mature {
		totalWeight += it.Weight
	}

	var zSum float64
	zs := make([]float64, len(mature))
	for i, it := range mature {
		z := it.Baseline.Z(it.Value)
		zs[i] = z
		if totalWeight > 0 {
			zSum += z * it.Weight / totalWeight
		} else {
			zSum += z / float64(len(mature))
		}
	}

	sig.Z = zSum
	sig.Score = Normalize(zSum)
	sig.Contributions = contributions(mature, zs, totalWeight)
	return sig
}

// contributions breaks the aggregate down per item: each mature item's
// percent share of total |z*w| plus the display fields the baseline
// carries. Sorted by share, largest first.
func contributions(mature []Item, zs []float64, totalWeight float64) []models.ItemContribution {
	weights := make([]float64, len(mature))
	var influence float64
	for i, it := range mature {
		w := it.Weight
		if totalWeight <= 0 {
			w = 1
		}
		weights[i] = math.Abs(zs[i]) * w
		influence += weights[i]
	}

	out := make([]models.ItemContribution, 0, len(mature))
	for i, it := range mature {
		pct := 0.0
		if influence > 0 {
			pct = weights[i] / influence * 100
		}
		dir := "neutral"
		if zs[i] > 0.1 {
			dir = "up"
		} else if zs[i] < -0.1 {
			dir = "down"
		}
		c := models.ItemContribution{
			ID:        it.ID,
			Label:     it.Label,
			Z:         zs[i],
			Current:   it.Value,
			Mean:      it.Baseline.Mean,
			Std:       it.Baseline.RawStd,
			Count:     it.Baseline.Count,
			Percent:   math.Round(pct*10) / 10,
			Direction: dir,
			Sparkline: it.Baseline.Sparkline,
		}
		if it.Baseline.ValueDayAgo != nil {
			d := it.Value - *it.Baseline.ValueDayAgo
			c.ChangeDay = &d
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	return out
}

// SignalFromZ wraps an externally-computed z (layered trends, same-hour
// connectivity) in a Signal without item contributions.
func SignalFromZ(name, scope string, z float64, matureItems int, now time.Time) *models.Signal {
	return &models.Signal{
		Name:        name,
		Scope:       scope,
		Z:           z,
		Score:       Normalize(z),
		MatureItems: matureItems,
		UpdatedAt:   now,
	}
}

// InsufficientSignal is the neutral placeholder for a source with no
// usable data yet.
func InsufficientSignal(name, scope string, now time.Time) *models.Signal {
	return &models.Signal{
		Name:         name,
		Scope:        scope,
		Z:            0,
		Score:        50.0,
		Insufficient: true,
		UpdatedAt:    now,
	}
}
