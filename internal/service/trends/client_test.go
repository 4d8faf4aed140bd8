package trends

import (
	"testing"

	"GeoPulse/internal/domain/models"
)

func TestGroupByGeoKeepsOrder(t *testing.T) {
	terms := []models.TrendTerm{
		{Term: "world war 3"},
		{Term: "schron", Geo: "PL"},
		{Term: "nuclear war"},
		{Term: "mobilizacja", Geo: "PL"},
		{Term: "varuaseme", Geo: "EE"},
	}
	groups := groupByGeo(terms)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if groups[0].geo != "" || len(groups[0].terms) != 2 {
		t.Fatalf("first group = %q/%d, want the geo-free wide terms", groups[0].geo, len(groups[0].terms))
	}
	if groups[1].geo != "PL" || len(groups[1].terms) != 2 {
		t.Fatalf("second group = %q/%d, want PL", groups[1].geo, len(groups[1].terms))
	}
	if groups[2].geo != "EE" {
		t.Fatalf("third group = %q, want EE", groups[2].geo)
	}
}

func TestPanicTermsAreGeoScoped(t *testing.T) {
	for region, terms := range PanicTerms() {
		for _, term := range terms {
			if term.Geo == "" {
				t.Fatalf("panic term %q in %s has no geo", term.Term, region)
			}
		}
	}
	for _, term := range WideTerms() {
		if term.Geo != "" {
			t.Fatalf("wide term %q must not be geo-scoped", term.Term)
		}
	}
}
