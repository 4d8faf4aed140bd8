package scoring

import (
	"math"

	"GeoPulse/internal/domain/models"
)

// Weights is the regional blend over scored signals. Defaults put the
// two fast-moving sources ahead of the slower ground layer.
type Weights struct {
	Market    float64
	Financial float64
	Ground    float64
}

// DefaultWeights returns the standard regional blend.
func DefaultWeights() Weights {
	return Weights{Market: 0.375, Financial: 0.375, Ground: 0.25}
}

// Elevated / depressed thresholds shared by amplification and
// convergence. Scores inside (42, 58) read as the quiet band.
const (
	ElevatedThreshold  = 58.0
	DepressedThreshold = 42.0
)

// RegionalComposite blends the scored signals of one region. Signals
// flagged Insufficient are treated as absent and the remaining weights
// renormalized; with nothing present the region reads neutral.
func RegionalComposite(scope string, signals map[string]*models.Signal, w Weights) models.Composite {
	type part struct {
		score  *float64
		weight float64
	}
	parts := []part{
		{signals[models.SignalMarket].ScoreOrNil(), w.Market},
		{signals[models.SignalFinancial].ScoreOrNil(), w.Financial},
		{signals[models.SignalGround].ScoreOrNil(), w.Ground},
	}

	var weighted, total float64
	for _, p := range parts {
		if p.score == nil {
			continue
		}
		weighted += *p.score * p.weight
		total += p.weight
	}

	score := 50.0
	if total > 0 {
		score = round1(weighted / total)
	}

	c := models.Composite{
		Scope:       scope,
		Score:       score,
		Signals:     signals,
		Convergence: Classify(signals),
	}
	c.RiskLevel, c.Colour = RiskLevel(score)
	return c
}

// GlobalComposite blends regional composites into the headline score.
// Regions far from neutral pull extra weight, so one hot region moves
// the global number more than a flat average would, with escalation
// amplified twice as hard as calm. A global-scope market signal, when
// present, is blended in at a fixed 15% share. The returned map carries
// each region's effective percent share of the blend in its Weight
// field; regions are otherwise unchanged.
func GlobalComposite(regions map[string]models.Composite, globalMarket *models.Signal) (models.Composite, map[string]models.Composite) {
	var sum, total float64
	for _, rc := range regions {
		amp := amplification(rc.Score)
		sum += rc.Score * amp
		total += amp
	}

	score := 50.0
	if total > 0 {
		score = sum / total
	}

	if s := globalMarket.ScoreOrNil(); s != nil {
		score = score*0.85 + *s*0.15
	}
	score = math.Max(0, math.Min(100, score))
	score = round1(score)

	weighted := make(map[string]models.Composite, len(regions))
	for key, rc := range regions {
		if total > 0 {
			rc.Weight = round1(amplification(rc.Score) / total * 100)
		}
		weighted[key] = rc
	}

	globalSignals := map[string]*models.Signal{}
	if globalMarket != nil {
		globalSignals[models.SignalMarket] = globalMarket
	}

	c := models.Composite{
		Scope:   "global",
		Score:   score,
		Signals: globalSignals,
	}
	c.RiskLevel, c.Colour = RiskLevel(score)
	return c, weighted
}

// amplification scales a region's weight by how far it sits outside the
// quiet band. Neutral regions contribute weight 1.
func amplification(score float64) float64 {
	switch {
	case score > ElevatedThreshold:
		return 1 + (score-ElevatedThreshold)*0.02
	case score < DepressedThreshold:
		return 1 + (DepressedThreshold-score)*0.01
	default:
		return 1.0
	}
}

// RiskLevel buckets a composite score into its display label and colour.
func RiskLevel(score float64) (string, string) {
	switch {
	case score < 15:
		return "UNUSUALLY CALM", "#34d399"
	case score < 30:
		return "CALM", "#6ee7b7"
	case score < DepressedThreshold:
		return "BELOW NORMAL", "#a3b8a0"
	case score < ElevatedThreshold:
		return "NORMAL", "#b0b0b0"
	case score < 70:
		return "ELEVATED", "#fbbf24"
	case score < 85:
		return "HIGH", "#fb923c"
	default:
		return "CRITICAL", "#f87171"
	}
}
