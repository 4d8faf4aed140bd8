package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	"GeoPulse/internal/store"
)

func hourlyTraffic(days int, noise bool) []float64 {
	out := make([]float64, days*24)
	for i := range out {
		out[i] = 1000 + 200*math.Sin(2*math.Pi*float64(i%24)/24)
		if noise {
			out[i] += float64(i % 7)
		}
	}
	return out
}

func steadyTraffic(regions []drepo.Region) map[string]*models.TrafficSeries {
	out := make(map[string]*models.TrafficSeries)
	for _, r := range regions {
		for _, c := range drepo.RegionCountries(r) {
			out[c] = &models.TrafficSeries{Country: c, Values: hourlyTraffic(10, false)}
		}
	}
	return out
}

func TestConnectivitySteadyTrafficIsNeutral(t *testing.T) {
	src := &fakeConnectivitySource{traffic: steadyTraffic(drepo.AllRegions())}
	st := store.New()
	c := NewConnectivityRefresher(src, st, testLogger(t), newFakeMetrics())

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	for _, r := range drepo.AllRegions() {
		sig := st.Signal(models.SignalConnectivity, string(r))
		if sig == nil || sig.Insufficient {
			t.Fatalf("%s signal = %+v, want data-backed", r, sig)
		}
		if sig.Score != 50.0 {
			t.Fatalf("%s score = %v, want 50", r, sig.Score)
		}
	}
	if alerts := st.Alerts(); len(alerts) != 0 {
		t.Fatalf("alerts = %+v, want none", alerts)
	}
}

func TestConnectivityBlackoutRaisesScore(t *testing.T) {
	traffic := steadyTraffic(drepo.AllRegions())
	// Taiwan's traffic collapses in the current hour.
	collapsed := hourlyTraffic(10, true)
	collapsed[len(collapsed)-1] = 50
	traffic["TW"] = &models.TrafficSeries{Country: "TW", Values: collapsed}

	src := &fakeConnectivitySource{traffic: traffic}
	st := store.New()
	c := NewConnectivityRefresher(src, st, testLogger(t), newFakeMetrics())

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	ap := st.Signal(models.SignalConnectivity, "asia_pacific")
	if ap.Score <= 50 {
		t.Fatalf("asia_pacific score = %v, want above 50 on a blackout", ap.Score)
	}
	if eu := st.Signal(models.SignalConnectivity, "europe"); eu.Score != 50.0 {
		t.Fatalf("europe score = %v, want unaffected", eu.Score)
	}

	alerts := st.Alerts()
	if len(alerts) != 1 || alerts[0].Region != "asia_pacific" || !alerts[0].RiskRising {
		t.Fatalf("alerts = %+v, want one asia_pacific drop alert", alerts)
	}
}

func TestConnectivityShortSeriesIsInsufficient(t *testing.T) {
	traffic := make(map[string]*models.TrafficSeries)
	for _, r := range drepo.AllRegions() {
		for _, c := range drepo.RegionCountries(r) {
			traffic[c] = &models.TrafficSeries{Country: c, Values: hourlyTraffic(2, false)}
		}
	}
	src := &fakeConnectivitySource{traffic: traffic}
	st := store.New()
	c := NewConnectivityRefresher(src, st, testLogger(t), newFakeMetrics())

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if sig := st.Signal(models.SignalConnectivity, "europe"); !sig.Insufficient {
		t.Fatalf("signal = %+v, want insufficient on 48h of data", sig)
	}
}

func TestConnectivityOngoingOutageAlert(t *testing.T) {
	ended := time.Now().Add(-time.Hour)
	src := &fakeConnectivitySource{
		traffic: steadyTraffic(drepo.AllRegions()),
		outages: []models.Outage{
			{Countries: []string{"UA"}, Kind: "nationwide", Description: "power grid strikes"},
			{Countries: []string{"IL"}, Kind: "regional", Description: "resolved", End: &ended},
			{Countries: []string{"ZZ"}, Kind: "regional", Description: "unmonitored country"},
		},
	}
	st := store.New()
	c := NewConnectivityRefresher(src, st, testLogger(t), newFakeMetrics())

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	alerts := st.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("alerts = %+v, want only the ongoing monitored outage", alerts)
	}
	if alerts[0].Region != "europe" {
		t.Fatalf("alert region = %s, want europe", alerts[0].Region)
	}
}
