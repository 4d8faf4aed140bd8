package models

import "time"

// Alert is one entry in the snapshot's alert feed: a contract mover, a
// panic-search spike or a connectivity drop.
type Alert struct {
	Type       string `json:"type"` // "contract", "panic", "connectivity"
	Region     string `json:"region"`
	Text       string `json:"text"`
	RiskRising bool   `json:"risk_rising"`
}

// ForecastSummary is the supplemental monthly conflict forecast for one
// scope. Display only; never enters scoring.
type ForecastSummary struct {
	Scope        string            `json:"scope"`
	Period       string            `json:"period"`
	TotalEvents  int               `json:"total_events"`
	Battles      int               `json:"battles"`
	Remote       int               `json:"remote"`
	CivilianHarm int               `json:"civilian_harm"`
	TopCountries []CountryForecast `json:"top_countries,omitempty"`
	CountryCount int               `json:"country_count"`
}

// CountryForecast is one country's slice of a ForecastSummary.
type CountryForecast struct {
	Country string `json:"country"`
	Total   int    `json:"total"`
}

// Snapshot is the full computed state served to readers: one global
// composite, one composite per region, the alert feed and supplemental
// layers. Replaced as a whole unit; readers see either the old snapshot
// or the new one, never a mix.
type Snapshot struct {
	Global    Composite                  `json:"global"`
	Regions   map[string]Composite       `json:"regions"`
	Alerts    []Alert                    `json:"alerts,omitempty"`
	Forecasts map[string]ForecastSummary `json:"forecasts,omitempty"`
	BuiltAt   time.Time                  `json:"built_at"`
}

// Age returns how old the snapshot is.
func (s *Snapshot) Age(now time.Time) time.Duration {
	if s == nil {
		return 1<<62 - 1
	}
	return now.Sub(s.BuiltAt)
}

// SourceStatus is the liveness view of one refresh task, consumed by
// operational tooling only.
type SourceStatus struct {
	Name        string    `json:"name"`
	Fetching    bool      `json:"fetching"`
	LastUpdated time.Time `json:"last_updated"`
	LastError   string    `json:"last_error,omitempty"`
}
