package radar

import (
	"context"
	"fmt"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	pkghttp "GeoPulse/pkg/http"
)

// Client implements ConnectivitySource against an internet-radar API:
// hourly HTTP request volume per country plus curated outage
// annotations.
type Client struct {
	http     *pkghttp.Client
	baseURL  string
	token    string
	lookback string
}

// New creates a connectivity source. token may be empty for
// unauthenticated endpoints.
func New(httpClient *pkghttp.Client, baseURL, token string) drepo.ConnectivitySource {
	return &Client{
		http:     httpClient,
		baseURL:  baseURL,
		token:    token,
		lookback: "7d",
	}
}

type timeseriesResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Main struct {
			Timestamps []string  `json:"timestamps"`
			Values     []float64 `json:"values"`
		} `json:"main"`
	} `json:"result"`
}

// FetchTraffic fetches the hourly request-volume series for one country.
func (c *Client) FetchTraffic(ctx context.Context, country string) (*models.TrafficSeries, error) {
	var resp timeseriesResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     c.baseURL + "/http/timeseries",
		Headers: c.headers(),
		QueryParams: map[string][]string{
			"location":    {country},
			"dateRange":   {c.lookback},
			"aggInterval": {"1h"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("traffic %s: %w", country, err)
	}
	if !resp.Success || len(resp.Result.Main.Values) == 0 {
		return nil, fmt.Errorf("traffic %s: empty series", country)
	}
	return &models.TrafficSeries{
		Country: country,
		Values:  resp.Result.Main.Values,
	}, nil
}

type outagesResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Annotations []struct {
			Locations   []string `json:"locations"`
			StartDate   string   `json:"startDate"`
			EndDate     string   `json:"endDate"`
			Description string   `json:"description"`
			EventType   string   `json:"eventType"`
		} `json:"annotations"`
	} `json:"result"`
}

// FetchOutages fetches outage annotations over the lookback window.
func (c *Client) FetchOutages(ctx context.Context) ([]models.Outage, error) {
	var resp outagesResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     c.baseURL + "/annotations/outages",
		Headers: c.headers(),
		QueryParams: map[string][]string{
			"dateRange": {c.lookback},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("outages: %w", err)
	}

	out := make([]models.Outage, 0, len(resp.Result.Annotations))
	for _, a := range resp.Result.Annotations {
		start, err := time.Parse(time.RFC3339, a.StartDate)
		if err != nil {
			continue
		}
		o := models.Outage{
			Countries:   a.Locations,
			Start:       start,
			Description: a.Description,
			Kind:        a.EventType,
		}
		if end, err := time.Parse(time.RFC3339, a.EndDate); err == nil {
			o.End = &end
		}
		out = append(out, o)
	}
	return out, nil
}

func (c *Client) headers() map[string]string {
	if c.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.token}
}
