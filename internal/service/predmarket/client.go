package predmarket

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	pkghttp "GeoPulse/pkg/http"
)

// Client implements PredictionMarketSource against a prediction-market
// REST API. Open markets are paged through, filtered to geopolitical
// questions and risk-priced.
type Client struct {
	http      *pkghttp.Client
	baseURL   string
	pageLimit int
	maxPages  int
	minVolume float64
}

// New creates a prediction-market source.
func New(httpClient *pkghttp.Client, baseURL string) drepo.PredictionMarketSource {
	return &Client{
		http:      httpClient,
		baseURL:   baseURL,
		pageLimit: 500,
		maxPages:  4,
		minVolume: 1000,
	}
}

type apiMarket struct {
	ConditionID string   `json:"condition_id"`
	Question    string   `json:"question"`
	Outcomes    []string `json:"outcomes"`
	Prices      []string `json:"outcome_prices"`
	Volume      string   `json:"volume"`
	EndDate     string   `json:"end_date_iso"`
	Active      bool     `json:"active"`
	Closed      bool     `json:"closed"`
}

// Fetch lists open geopolitical contracts.
func (c *Client) Fetch(ctx context.Context) ([]models.Contract, error) {
	var out []models.Contract
	for page := 0; page < c.maxPages; page++ {
		var markets []apiMarket
		err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
			Method: pkghttp.MethodGet,
			URL:    c.baseURL + "/markets",
			QueryParams: map[string][]string{
				"active": {"true"},
				"closed": {"false"},
				"limit":  {strconv.Itoa(c.pageLimit)},
				"offset": {strconv.Itoa(page * c.pageLimit)},
			},
		}, &markets)
		if err != nil {
			return nil, fmt.Errorf("list markets page %d: %w", page, err)
		}
		for _, m := range markets {
			if contract, ok := c.contract(m); ok {
				out = append(out, contract)
			}
		}
		if len(markets) < c.pageLimit {
			break
		}
	}
	return out, nil
}

// contract filters and converts one market. De-escalation questions
// invert: a ceasefire trading at 80% is calm, not risk.
func (c *Client) contract(m apiMarket) (models.Contract, bool) {
	if !m.Active || m.Closed {
		return models.Contract{}, false
	}
	tracked, region, deEscalation := classify(m.Question)
	if !tracked {
		return models.Contract{}, false
	}

	volume, err := strconv.ParseFloat(m.Volume, 64)
	if err != nil || volume < c.minVolume {
		return models.Contract{}, false
	}
	yes, ok := yesPrice(m)
	if !ok {
		return models.Contract{}, false
	}

	risk := yes
	if deEscalation {
		risk = 1 - yes
	}
	contract := models.Contract{
		ID:           m.ConditionID,
		Question:     m.Question,
		YesPrice:     yes,
		RiskPrice:    risk,
		Volume:       volume,
		Region:       region,
		DeEscalation: deEscalation,
	}
	if ends, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		contract.EndsAt = ends
	}
	return contract, true
}

func yesPrice(m apiMarket) (float64, bool) {
	for i, outcome := range m.Outcomes {
		if outcome != "Yes" || i >= len(m.Prices) {
			continue
		}
		p, err := strconv.ParseFloat(m.Prices[i], 64)
		if err != nil || p <= 0 || p >= 1 {
			return 0, false
		}
		return p, true
	}
	return 0, false
}
