package usecase

import (
	"context"
	"fmt"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/scoring"
	"GeoPulse/internal/store"
	"GeoPulse/pkg/logger"
)

// ConnectivityRefresher scores internet connectivity per region from
// hourly traffic series. Traffic is compared against the same hour on
// previous days so the daily cycle cancels out; only drops matter, so
// the aggregate z is inverted and calm countries are down-weighted.
// Context layer only.
type ConnectivityRefresher struct {
	source  drepo.ConnectivitySource
	store   *store.Store
	logger  *logger.Logger
	metrics drepo.Metrics

	alertZ float64
}

func NewConnectivityRefresher(
	source drepo.ConnectivitySource,
	st *store.Store,
	log *logger.Logger,
	metrics drepo.Metrics,
) *ConnectivityRefresher {
	return &ConnectivityRefresher{
		source:  source,
		store:   st,
		logger:  log,
		metrics: metrics,
		alertZ:  -1.5,
	}
}

// Refresh runs one connectivity cycle across all monitored countries.
func (c *ConnectivityRefresher) Refresh(ctx context.Context) error {
	now := time.Now().UTC()
	signals := make(map[string]*models.Signal)
	var alerts []models.Alert

	for _, region := range drepo.AllRegions() {
		scope := string(region)
		sig, regionAlerts := c.scoreRegion(ctx, region, now)
		signals[scope] = sig
		alerts = append(alerts, regionAlerts...)
	}

	if outageAlerts := c.outageAlerts(ctx); outageAlerts != nil {
		alerts = append(alerts, outageAlerts...)
	}

	c.store.SetSignals(models.SignalConnectivity, signals)
	c.store.SetAlerts("connectivity", alerts)
	return nil
}

func (c *ConnectivityRefresher) scoreRegion(ctx context.Context, region drepo.Region, now time.Time) (*models.Signal, []models.Alert) {
	scope := string(region)
	var zs, weights []float64
	var alerts []models.Alert
	readable := 0

	for _, country := range drepo.RegionCountries(region) {
		series, err := c.source.FetchTraffic(ctx, country)
		if err != nil {
			c.metrics.RecordError("connectivity_fetch")
			c.logger.Warn("traffic fetch failed",
				logger.String("country", country), logger.Error(err))
			continue
		}
		z, ok := scoring.SameHourZ(series.Values)
		if !ok {
			continue
		}
		readable++
		zs = append(zs, z)
		weights = append(weights, dropWeight(z))

		if z < c.alertZ {
			alerts = append(alerts, models.Alert{
				Type:   "connectivity",
				Region: scope,
				Text: fmt.Sprintf("internet traffic in %s is %.1f sigma below its hourly baseline",
					country, -z),
				RiskRising: true,
			})
		}
	}

	if readable == 0 {
		return scoring.InsufficientSignal(models.SignalConnectivity, scope, now), alerts
	}

	var sum, total float64
	for i, z := range zs {
		sum += z * weights[i]
		total += weights[i]
	}
	// Inverted: a traffic drop is the risk direction.
	z := -(sum / total)
	sig := scoring.SignalFromZ(models.SignalConnectivity, scope, z, readable, now)
	c.metrics.RecordScore(scope, models.SignalConnectivity, sig.Score)
	return sig, alerts
}

// dropWeight boosts countries whose traffic is falling so one blackout
// is not averaged away by its quiet neighbours.
func dropWeight(z float64) float64 {
	if z >= -1 {
		return 1
	}
	d := -z - 1
	return 1 + d*d*12
}

func (c *ConnectivityRefresher) outageAlerts(ctx context.Context) []models.Alert {
	outages, err := c.source.FetchOutages(ctx)
	if err != nil {
		c.metrics.RecordError("outage_fetch")
		c.logger.Warn("outage fetch failed", logger.Error(err))
		return nil
	}
	var out []models.Alert
	for _, o := range outages {
		if o.End != nil {
			continue // resolved
		}
		for _, country := range o.Countries {
			region, ok := drepo.RegionForCountry(country)
			if !ok {
				continue
			}
			out = append(out, models.Alert{
				Type:   "connectivity",
				Region: string(region),
				Text: fmt.Sprintf("ongoing %s outage in %s: %s",
					o.Kind, country, o.Description),
				RiskRising: true,
			})
		}
	}
	return out
}
