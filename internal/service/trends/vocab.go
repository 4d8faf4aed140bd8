package trends

import "GeoPulse/internal/domain/models"

// WideTerms returns the region-wide anxiety vocabulary, queried without
// a geo restriction.
func WideTerms() []models.TrendTerm {
	return []models.TrendTerm{
		{Term: "world war 3", Label: "ww3"},
		{Term: "nuclear war", Label: "nuclear"},
		{Term: "military draft", Label: "draft"},
		{Term: "martial law", Label: "martial_law"},
		{Term: "bomb shelter", Label: "shelter"},
	}
}

// PanicTerms returns the in-country preparation vocabulary per region.
// These are behavioral queries people run when they expect disruption,
// issued against the countries closest to each flashpoint.
func PanicTerms() map[string][]models.TrendTerm {
	return map[string][]models.TrendTerm{
		"europe": {
			{Term: "schron", Geo: "PL", Label: "shelter_pl"},
			{Term: "jodyna tabletki", Geo: "PL", Label: "iodine_pl"},
			{Term: "varuaseme", Geo: "EE", Label: "shelter_ee"},
			{Term: "mobilizacja", Geo: "PL", Label: "mobilization_pl"},
		},
		"middle_east": {
			{Term: "ממד", Geo: "IL", Label: "saferoom_il"},
			{Term: "אזעקה", Geo: "IL", Label: "siren_il"},
			{Term: "flights out of beirut", Geo: "LB", Label: "evac_lb"},
		},
		"asia_pacific": {
			{Term: "防空洞", Geo: "TW", Label: "shelter_tw"},
			{Term: "戰爭", Geo: "TW", Label: "war_tw"},
			{Term: "緊急避難", Geo: "JP", Label: "evac_jp"},
		},
	}
}
