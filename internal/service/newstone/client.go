package newstone

import (
	"context"
	"fmt"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	pkghttp "GeoPulse/pkg/http"
)

// Per-region news query. Tone is averaged over matching coverage, so
// the query scopes which conflict theater a region's narrative follows.
var regionQueries = map[drepo.Region]string{
	drepo.RegionEurope:      `(ukraine OR russia OR nato) (war OR invasion OR strike OR offensive)`,
	drepo.RegionMiddleEast:  `(israel OR iran OR gaza OR hezbollah) (war OR strike OR missile OR escalation)`,
	drepo.RegionAsiaPacific: `(taiwan OR "south china sea" OR "north korea") (military OR blockade OR missile OR invasion)`,
}

// Client implements NarrativeSource against a news-tone timeline API.
type Client struct {
	http     *pkghttp.Client
	baseURL  string
	lookback string
}

// New creates a news narrative source.
func New(httpClient *pkghttp.Client, baseURL string) drepo.NarrativeSource {
	return &Client{
		http:     httpClient,
		baseURL:  baseURL,
		lookback: "30d",
	}
}

type toneResponse struct {
	Timeline []struct {
		Data []struct {
			Date     string  `json:"date"` // 20260801T000000Z
			Value    float64 `json:"value"`
			Articles int     `json:"count"`
		} `json:"data"`
	} `json:"timeline"`
}

const toneDateLayout = "20060102T150405Z"

// FetchTone fetches the daily tone timeline for one region's conflict
// coverage.
func (c *Client) FetchTone(ctx context.Context, region drepo.Region) ([]models.ToneDay, error) {
	query, ok := regionQueries[region]
	if !ok {
		return nil, fmt.Errorf("no narrative query for region %s", region)
	}

	var resp toneResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/timeline",
		QueryParams: map[string][]string{
			"query":      {query},
			"mode":       {"tone"},
			"timespan":   {c.lookback},
			"resolution": {"day"},
			"format":     {"json"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("tone timeline %s: %w", region, err)
	}
	if len(resp.Timeline) == 0 {
		return nil, fmt.Errorf("tone timeline %s: empty", region)
	}

	data := resp.Timeline[0].Data
	out := make([]models.ToneDay, 0, len(data))
	for _, d := range data {
		day, err := time.Parse(toneDateLayout, d.Date)
		if err != nil {
			continue
		}
		out = append(out, models.ToneDay{Day: day, Tone: d.Value, Articles: d.Articles})
	}
	return out, nil
}
