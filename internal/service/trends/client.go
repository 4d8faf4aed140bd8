package trends

import (
	"context"
	"fmt"
	"strings"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/service/ratelimit"
	pkghttp "GeoPulse/pkg/http"
	"GeoPulse/pkg/logger"
)

const (
	batchSize = 5
	// One batch every five seconds, short bursts of two.
	batchCapacity = 2
	batchRefill   = 0.2
)

// Client implements GroundSignalSource against a search-interest API.
// Terms sharing a geo are batched, and batches are paced through a
// token bucket so a full vocabulary sweep stays under upstream quotas.
type Client struct {
	http      *pkghttp.Client
	baseURL   string
	timeframe string
	limiter   *ratelimit.Limiter
	log       *logger.Logger
}

// New creates a search-interest source.
func New(httpClient *pkghttp.Client, baseURL string, limiter *ratelimit.Limiter, log *logger.Logger) drepo.GroundSignalSource {
	return &Client{
		http:      httpClient,
		baseURL:   baseURL,
		timeframe: "today 3-m",
		limiter:   limiter,
		log:       log,
	}
}

type interestResponse struct {
	Series []struct {
		Term   string    `json:"term"`
		Values []float64 `json:"values"`
	} `json:"series"`
}

// FetchInterest fetches daily interest for every term, grouped by geo
// and batched. A failed batch is logged and skipped; callers judge the
// resulting series count against the previous sweep.
func (c *Client) FetchInterest(ctx context.Context, terms []models.TrendTerm) ([]models.TermSeries, error) {
	groups := groupByGeo(terms)
	var out []models.TermSeries
	var lastErr error
	for _, g := range groups {
		for start := 0; start < len(g.terms); start += batchSize {
			end := start + batchSize
			if end > len(g.terms) {
				end = len(g.terms)
			}
			batch := g.terms[start:end]
			if err := c.wait(ctx); err != nil {
				return out, err
			}
			series, err := c.fetchBatch(ctx, g.geo, batch)
			if err != nil {
				c.log.Warn("interest batch failed",
					logger.String("geo", g.geo),
					logger.Int("terms", len(batch)),
					logger.Error(err))
				lastErr = err
				continue
			}
			out = append(out, series...)
		}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all interest batches failed, last: %w", lastErr)
	}
	return out, nil
}

// wait blocks until the batch bucket yields a token.
func (c *Client) wait(ctx context.Context) error {
	for !c.limiter.Allow("trends_batch", batchCapacity, batchRefill) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil
}

func (c *Client) fetchBatch(ctx context.Context, geo string, batch []models.TrendTerm) ([]models.TermSeries, error) {
	names := make([]string, len(batch))
	for i, t := range batch {
		names[i] = t.Term
	}
	params := map[string][]string{
		"q":         {strings.Join(names, ",")},
		"timeframe": {c.timeframe},
	}
	if geo != "" {
		params["geo"] = []string{geo}
	}

	var resp interestResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.baseURL + "/interest",
		QueryParams: params,
	}, &resp)
	if err != nil {
		return nil, err
	}

	byTerm := make(map[string][]float64, len(resp.Series))
	for _, s := range resp.Series {
		byTerm[s.Term] = s.Values
	}
	out := make([]models.TermSeries, 0, len(batch))
	for _, t := range batch {
		values, ok := byTerm[t.Term]
		if !ok || len(values) == 0 {
			continue
		}
		out = append(out, models.TermSeries{Term: t, Values: values})
	}
	return out, nil
}

type geoGroup struct {
	geo   string
	terms []models.TrendTerm
}

// groupByGeo splits terms by geo keeping first-seen geo order, so a
// sweep is deterministic and the geo-free wide terms go out first.
func groupByGeo(terms []models.TrendTerm) []geoGroup {
	index := make(map[string]int)
	var groups []geoGroup
	for _, t := range terms {
		i, ok := index[t.Geo]
		if !ok {
			i = len(groups)
			index[t.Geo] = i
			groups = append(groups, geoGroup{geo: t.Geo})
		}
		groups[i].terms = append(groups[i].terms, t)
	}
	return groups
}
