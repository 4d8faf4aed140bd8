package cast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	pkghttp "GeoPulse/pkg/http"
)

// Country names as the forecast publishes them, mapped to the ISO codes
// the rest of the pipeline keys on. Unmapped countries still count in
// global totals.
var countryCodes = map[string]string{
	"ukraine":      "UA",
	"poland":       "PL",
	"estonia":      "EE",
	"lithuania":    "LT",
	"finland":      "FI",
	"israel":       "IL",
	"iran":         "IR",
	"lebanon":      "LB",
	"saudi arabia": "SA",
	"taiwan":       "TW",
	"south korea":  "KR",
	"japan":        "JP",
	"philippines":  "PH",
}

// Client implements SupplementalForecastSource against a monthly
// conflict-event forecast API.
type Client struct {
	http    *pkghttp.Client
	baseURL string
	apiKey  string
}

// New creates a forecast source.
func New(httpClient *pkghttp.Client, baseURL, apiKey string) drepo.SupplementalForecastSource {
	return &Client{http: httpClient, baseURL: baseURL, apiKey: apiKey}
}

type forecastResponse struct {
	Period string `json:"period"` // "2026-08"
	Rows   []struct {
		Country      string `json:"country"`
		Total        int    `json:"total_events"`
		Battles      int    `json:"battles"`
		Remote       int    `json:"remote_violence"`
		CivilianHarm int    `json:"violence_against_civilians"`
	} `json:"data"`
}

// Fetch pulls the current month's forecast.
func (c *Client) Fetch(ctx context.Context) (*models.ForecastBatch, error) {
	params := map[string][]string{
		"month": {time.Now().UTC().Format("2006-01")},
	}
	if c.apiKey != "" {
		params["key"] = []string{c.apiKey}
	}

	var resp forecastResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.baseURL + "/forecast/monthly",
		QueryParams: params,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("monthly forecast: %w", err)
	}
	if len(resp.Rows) == 0 {
		return nil, fmt.Errorf("monthly forecast: empty for %s", resp.Period)
	}

	batch := &models.ForecastBatch{Period: resp.Period}
	for _, r := range resp.Rows {
		batch.Rows = append(batch.Rows, models.ForecastRow{
			Country:      normalizeCountry(r.Country),
			Total:        r.Total,
			Battles:      r.Battles,
			Remote:       r.Remote,
			CivilianHarm: r.CivilianHarm,
		})
	}
	return batch, nil
}

// normalizeCountry maps a published country name to its ISO code where
// the pipeline tracks it, otherwise returns the name unchanged.
func normalizeCountry(name string) string {
	if code, ok := countryCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}
	if _, ok := drepo.RegionForCountry(name); ok {
		return name
	}
	return name
}
