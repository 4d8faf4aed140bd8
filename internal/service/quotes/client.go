package quotes

import (
	"context"
	"fmt"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	pkghttp "GeoPulse/pkg/http"
	"GeoPulse/pkg/logger"
)

// Instrument is one configured financial instrument. Inverted
// instruments (safe havens, local currencies) read a drop as escalation.
type Instrument struct {
	Ticker   string `yaml:"ticker" validate:"required"`
	Name     string `yaml:"name" validate:"required"`
	Kind     string `yaml:"kind" validate:"oneof=defence commodity index currency"`
	Region   string `yaml:"region" validate:"required"`
	Inverted bool   `yaml:"inverted"`
}

// DefaultInstruments is the instrument set used when none is configured.
var DefaultInstruments = []Instrument{
	{Ticker: "EUAD.DE", Name: "European Defence", Kind: "defence", Region: "europe"},
	{Ticker: "PLN=X", Name: "Polish Zloty", Kind: "currency", Region: "europe", Inverted: true},
	{Ticker: "BZ=F", Name: "Brent Crude", Kind: "commodity", Region: "middle_east"},
	{Ticker: "ILS=X", Name: "Israeli Shekel", Kind: "currency", Region: "middle_east", Inverted: true},
	{Ticker: "EWT", Name: "Taiwan Index", Kind: "index", Region: "asia_pacific", Inverted: true},
	{Ticker: "TWD=X", Name: "Taiwan Dollar", Kind: "currency", Region: "asia_pacific", Inverted: true},
	{Ticker: "ITA", Name: "Aerospace & Defence", Kind: "defence", Region: "global"},
	{Ticker: "GC=F", Name: "Gold", Kind: "commodity", Region: "global"},
}

// Client implements FinancialSource against a daily-chart quote API.
type Client struct {
	http        *pkghttp.Client
	baseURL     string
	instruments []Instrument
	lookback    string
	log         *logger.Logger
}

// New creates a financial quote source for the given instrument set.
func New(httpClient *pkghttp.Client, baseURL string, instruments []Instrument, log *logger.Logger) drepo.FinancialSource {
	if len(instruments) == 0 {
		instruments = DefaultInstruments
	}
	return &Client{
		http:        httpClient,
		baseURL:     baseURL,
		instruments: instruments,
		lookback:    "3mo",
		log:         log,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch pulls daily histories for every configured instrument. A single
// failing ticker is logged and skipped; the cycle runs on the rest.
func (c *Client) Fetch(ctx context.Context) ([]models.InstrumentQuote, error) {
	out := make([]models.InstrumentQuote, 0, len(c.instruments))
	var lastErr error
	for _, inst := range c.instruments {
		q, err := c.fetchOne(ctx, inst)
		if err != nil {
			c.log.Warn("quote fetch failed",
				logger.String("ticker", inst.Ticker),
				logger.Error(err))
			lastErr = err
			continue
		}
		out = append(out, *q)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all %d instruments failed, last: %w", len(c.instruments), lastErr)
	}
	return out, nil
}

func (c *Client) fetchOne(ctx context.Context, inst Instrument) (*models.InstrumentQuote, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/v8/finance/chart/" + inst.Ticker,
		QueryParams: map[string][]string{
			"range":    {c.lookback},
			"interval": {"1d"},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty chart for %s", inst.Ticker)
	}

	result := resp.Chart.Result[0]
	closes := compactCloses(result.Indicators.Quote[0].Close)
	changes := percentChanges(closes)
	if len(changes) == 0 {
		return nil, fmt.Errorf("no usable closes for %s", inst.Ticker)
	}
	return &models.InstrumentQuote{
		Ticker:   inst.Ticker,
		Name:     inst.Name,
		Kind:     inst.Kind,
		Region:   inst.Region,
		Inverted: inst.Inverted,
		Changes:  changes,
		Close:    result.Meta.RegularMarketPrice,
	}, nil
}

// compactCloses drops nulls (holidays, halts) keeping order.
func compactCloses(closes []*float64) []float64 {
	out := make([]float64, 0, len(closes))
	for _, c := range closes {
		if c != nil && *c > 0 {
			out = append(out, *c)
		}
	}
	return out
}

// percentChanges converts a close series to day-over-day percent moves.
func percentChanges(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out = append(out, (closes[i]-closes[i-1])/closes[i-1]*100)
	}
	return out
}
