package usecase

import (
	"context"
	"fmt"
	"sort"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/store"
	"GeoPulse/pkg/logger"
)

// SupplementalRefresher pulls the monthly conflict forecast and folds
// it into per-scope summaries. Display only.
type SupplementalRefresher struct {
	source  drepo.SupplementalForecastSource
	store   *store.Store
	logger  *logger.Logger
	metrics drepo.Metrics

	topCountries int
}

func NewSupplementalRefresher(
	source drepo.SupplementalForecastSource,
	st *store.Store,
	log *logger.Logger,
	metrics drepo.Metrics,
) *SupplementalRefresher {
	return &SupplementalRefresher{
		source:       source,
		store:        st,
		logger:       log,
		metrics:      metrics,
		topCountries: 5,
	}
}

// Refresh runs one forecast cycle.
func (s *SupplementalRefresher) Refresh(ctx context.Context) error {
	batch, err := s.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch forecast: %w", err)
	}
	if batch == nil || len(batch.Rows) == 0 {
		s.logger.Warn("forecast fetch returned no rows")
		return nil
	}

	summaries := map[string]models.ForecastSummary{
		drepo.ScopeGlobal: summarize(drepo.ScopeGlobal, batch.Period, batch.Rows, s.topCountries),
	}
	byRegion := make(map[string][]models.ForecastRow)
	for _, row := range batch.Rows {
		region, ok := drepo.RegionForCountry(row.Country)
		if !ok {
			continue
		}
		byRegion[string(region)] = append(byRegion[string(region)], row)
	}
	for scope, rows := range byRegion {
		summaries[scope] = summarize(scope, batch.Period, rows, s.topCountries)
	}

	s.store.SetForecasts(summaries)
	return nil
}

func summarize(scope, period string, rows []models.ForecastRow, top int) models.ForecastSummary {
	sum := models.ForecastSummary{
		Scope:        scope,
		Period:       period,
		CountryCount: len(rows),
	}
	ranked := make([]models.ForecastRow, len(rows))
	copy(ranked, rows)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Total > ranked[j].Total })

	for i, row := range ranked {
		sum.TotalEvents += row.Total
		sum.Battles += row.Battles
		sum.Remote += row.Remote
		sum.CivilianHarm += row.CivilianHarm
		if i < top {
			sum.TopCountries = append(sum.TopCountries, models.CountryForecast{
				Country: row.Country,
				Total:   row.Total,
			})
		}
	}
	return sum
}
