package models

import "time"

// Signal names. Market, Financial and Ground are scored (they enter the
// composite blend); the rest are context-only layers.
const (
	SignalMarket       = "market"
	SignalFinancial    = "financial"
	SignalGround       = "ground"
	SignalGroundWide   = "ground_wide"
	SignalNarrative    = "narrative"
	SignalConnectivity = "connectivity"
)

// ItemContribution is one mature item's share of a signal-level score.
type ItemContribution struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Z         float64   `json:"z"`
	Current   float64   `json:"current"`
	Mean      float64   `json:"mean"`
	Std       float64   `json:"std"`
	Count     int       `json:"count"`
	Percent   float64   `json:"percent"`
	Direction string    `json:"direction"` // "up", "down", "neutral"
	Sparkline []float64 `json:"sparkline,omitempty"`
	ChangeDay *float64  `json:"change_24h,omitempty"`
}

// Signal is a named, scoped score derived from one source. Insufficient
// distinguishes a neutral 50 caused by missing data from a genuinely
// calm reading.
type Signal struct {
	Name          string             `json:"name"`
	Scope         string             `json:"scope"` // region key or "global"
	Z             float64            `json:"z"`
	Score         float64            `json:"score"` // within (0.1, 99.9)
	Insufficient  bool               `json:"insufficient"`
	MatureItems   int                `json:"mature_items"`
	ImmatureItems int                `json:"immature_items"`
	Contributions []ItemContribution `json:"contributions,omitempty"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ScoreOrNil returns the score when backed by data, nil otherwise.
// Composite blending treats nil as a missing signal.
func (s *Signal) ScoreOrNil() *float64 {
	if s == nil || s.Insufficient {
		return nil
	}
	v := s.Score
	return &v
}

// Convergence is the qualitative agreement classification across one
// scope's scored signals.
type Convergence struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
	Colour string `json:"colour"`
}

// Composite is the blended 0-100 score for one scope together with its
// constituent signals. Built entirely off-line and swapped in as a unit.
type Composite struct {
	Scope       string             `json:"scope"`
	Score       float64            `json:"score"`
	RiskLevel   string             `json:"risk_level"`
	Colour      string             `json:"colour"`
	Convergence Convergence        `json:"convergence"`
	Signals     map[string]*Signal `json:"signals"`
	Weight      float64            `json:"weight,omitempty"` // share of the global blend, regions only
}
