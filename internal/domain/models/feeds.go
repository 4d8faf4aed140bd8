package models

import "time"

// Contract is one open prediction-market contract already classified by
// the source: risk-priced (de-escalation questions inverted) and scoped
// to a region or "global".
type Contract struct {
	ID           string
	Question     string
	YesPrice     float64
	RiskPrice    float64
	Volume       float64
	Region       string
	DeEscalation bool
	EndsAt       time.Time
}

// InstrumentQuote is one financial instrument's daily history: percent
// moves over the lookback window, most recent last. Inverted instruments
// (safe-haven indices, local currencies) flip the z sign so that a drop
// reads as escalation.
type InstrumentQuote struct {
	Ticker   string
	Name     string
	Kind     string // "defence", "commodity", "index", "currency"
	Region   string
	Inverted bool
	Changes  []float64
	Close    float64
}

// TrendTerm is one search-interest query: a region-wide term (Geo empty)
// or an in-country panic term.
type TrendTerm struct {
	Term  string
	Geo   string
	Label string
}

// TermSeries is the fetched interest series for one term.
type TermSeries struct {
	Term   TrendTerm
	Values []float64 // daily interest, oldest first
}

// ToneDay is one day of conflict-news tone for a region.
type ToneDay struct {
	Day      time.Time
	Tone     float64
	Articles int
}

// TrafficSeries is an hourly connectivity series for one country.
type TrafficSeries struct {
	Country string
	Values  []float64 // hourly, oldest first
}

// Outage is a connectivity outage annotation.
type Outage struct {
	Countries   []string
	Start       time.Time
	End         *time.Time
	Description string
	Kind        string
}

// ForecastRow is one country-month of the supplemental conflict forecast.
type ForecastRow struct {
	Country      string
	Total        int
	Battles      int
	Remote       int
	CivilianHarm int
}

// ForecastBatch is the supplemental forecast for one period.
type ForecastBatch struct {
	Period string
	Rows   []ForecastRow
}

// ScoreRecord is one persisted composite score row, the flat shape
// appended to history storage.
type ScoreRecord struct {
	At           time.Time `json:"at"`
	Scope        string    `json:"scope"`
	Composite    float64   `json:"composite"`
	RiskLevel    string    `json:"risk_level"`
	Market       *float64  `json:"market,omitempty"`
	Financial    *float64  `json:"financial,omitempty"`
	Ground       *float64  `json:"ground,omitempty"`
	Narrative    *float64  `json:"narrative,omitempty"`
	Connectivity *float64  `json:"connectivity,omitempty"`
	Contracts    int       `json:"contracts"`
	Volume       float64   `json:"volume"`
}
