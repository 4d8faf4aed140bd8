package scoring

import (
	"math"
	"testing"
	"time"

	"GeoPulse/internal/domain/models"
)

func scoredSignal(name string, score float64) *models.Signal {
	return &models.Signal{Name: name, Score: score, UpdatedAt: time.Now()}
}

func TestRegionalCompositeFullBlend(t *testing.T) {
	signals := map[string]*models.Signal{
		models.SignalMarket:    scoredSignal(models.SignalMarket, 80),
		models.SignalFinancial: scoredSignal(models.SignalFinancial, 60),
		models.SignalGround:    scoredSignal(models.SignalGround, 40),
	}
	c := RegionalComposite("europe", signals, DefaultWeights())

	// 80*.375 + 60*.375 + 40*.25 = 62.5
	if c.Score != 62.5 {
		t.Fatalf("Score = %v, want 62.5", c.Score)
	}
	if c.RiskLevel != "ELEVATED" {
		t.Fatalf("RiskLevel = %s, want ELEVATED", c.RiskLevel)
	}
}

func TestRegionalCompositeRenormalizes(t *testing.T) {
	signals := map[string]*models.Signal{
		models.SignalMarket: scoredSignal(models.SignalMarket, 80),
		models.SignalFinancial: {
			Name: models.SignalFinancial, Score: 50, Insufficient: true,
		},
		models.SignalGround: scoredSignal(models.SignalGround, 40),
	}
	c := RegionalComposite("middle_east", signals, DefaultWeights())

	// (80*.375 + 40*.25) / .625 = 64
	if c.Score != 64.0 {
		t.Fatalf("Score = %v, want 64 over renormalized weights", c.Score)
	}
}

func TestRegionalCompositeAllMissing(t *testing.T) {
	c := RegionalComposite("asia_pacific", map[string]*models.Signal{}, DefaultWeights())
	if c.Score != 50.0 {
		t.Fatalf("Score = %v, want neutral 50", c.Score)
	}
	if c.RiskLevel != "NORMAL" {
		t.Fatalf("RiskLevel = %s, want NORMAL", c.RiskLevel)
	}
	if c.Convergence.Label != "No Data" {
		t.Fatalf("Convergence = %s, want No Data", c.Convergence.Label)
	}
}

func TestGlobalCompositeEqualRegionsIsMean(t *testing.T) {
	regions := map[string]models.Composite{
		"europe":       {Scope: "europe", Score: 64},
		"middle_east":  {Scope: "middle_east", Score: 64},
		"asia_pacific": {Scope: "asia_pacific", Score: 64},
	}
	g, weighted := GlobalComposite(regions, nil)

	// Identical scores amplify identically, so the blend is the mean.
	if g.Score != 64.0 {
		t.Fatalf("Score = %v, want 64", g.Score)
	}
	for key, rc := range weighted {
		if math.Abs(rc.Weight-33.3) > 0.1 {
			t.Fatalf("region %s weight = %v, want ~33.3", key, rc.Weight)
		}
	}
}

func TestGlobalCompositeAmplifiesHotRegion(t *testing.T) {
	regions := map[string]models.Composite{
		"hot":  {Scope: "hot", Score: 70},
		"calm": {Scope: "calm", Score: 50},
	}
	g, weighted := GlobalComposite(regions, nil)

	// amp(70)=1.24, amp(50)=1: (70*1.24+50)/2.24 = 61.07...
	if g.Score != 61.1 {
		t.Fatalf("Score = %v, want 61.1", g.Score)
	}
	if weighted["hot"].Weight <= weighted["calm"].Weight {
		t.Fatalf("hot weight %v not above calm weight %v",
			weighted["hot"].Weight, weighted["calm"].Weight)
	}
}

func TestGlobalCompositeCalmAmplifiesHalfAsHard(t *testing.T) {
	hot, _ := GlobalComposite(map[string]models.Composite{
		"a": {Score: 70}, "b": {Score: 50},
	}, nil)
	calm, _ := GlobalComposite(map[string]models.Composite{
		"a": {Score: 30}, "b": {Score: 50},
	}, nil)

	// Distance past the flat two-region mean, in each direction.
	hotPull := hot.Score - 60
	calmPull := 40 - calm.Score
	if calmPull <= 0 || hotPull <= calmPull {
		t.Fatalf("pulls = %v up vs %v down, want escalation stronger", hotPull, calmPull)
	}
}

func TestGlobalCompositeMarketOverlay(t *testing.T) {
	regions := map[string]models.Composite{"only": {Score: 50}}
	market := scoredSignal(models.SignalMarket, 90)
	g, _ := GlobalComposite(regions, market)

	// 50*.85 + 90*.15 = 56
	if g.Score != 56.0 {
		t.Fatalf("Score = %v, want 56", g.Score)
	}

	insufficient := &models.Signal{Name: models.SignalMarket, Score: 90, Insufficient: true}
	g, _ = GlobalComposite(regions, insufficient)
	if g.Score != 50.0 {
		t.Fatalf("Score = %v, want 50 when the overlay has no data", g.Score)
	}
}

func TestRiskLevel(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{5, "UNUSUALLY CALM"},
		{20, "CALM"},
		{35, "BELOW NORMAL"},
		{50, "NORMAL"},
		{57.9, "NORMAL"},
		{58, "ELEVATED"},
		{75, "HIGH"},
		{85, "CRITICAL"},
		{99.9, "CRITICAL"},
	}
	for _, tc := range cases {
		level, colour := RiskLevel(tc.score)
		if level != tc.want {
			t.Fatalf("RiskLevel(%v) = %s, want %s", tc.score, level, tc.want)
		}
		if colour == "" {
			t.Fatalf("RiskLevel(%v) returned no colour", tc.score)
		}
	}
}
