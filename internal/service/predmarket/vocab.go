package predmarket

import "strings"

// Region keyword vocabulary. A contract question must hit a conflict
// keyword to be tracked at all, then the first region vocabulary it
// hits scopes it; no hit leaves it global.
var conflictKeywords = []string{
	"war", "invasion", "invade", "military", "strike", "missile",
	"ceasefire", "escalat", "attack", "conflict", "troops", "nuclear",
	"blockade", "occupation", "annex", "airspace", "incursion",
}

// deEscalationKeywords mark questions where "yes" means calm, so the
// risk price is the inverse of the yes price.
var deEscalationKeywords = []string{
	"ceasefire", "peace deal", "peace agreement", "truce",
	"withdraw", "de-escalat", "normalization", "normalisation",
}

// Checked in order; the first vocabulary hit wins.
var regionVocab = []struct {
	scope string
	words []string
}{
	{"europe", []string{
		"ukraine", "russia", "nato", "belarus", "kaliningrad",
		"baltic", "poland", "crimea", "moldova", "zaporizhzhia",
	}},
	{"middle_east", []string{
		"israel", "iran", "gaza", "hezbollah", "lebanon", "hamas",
		"houthis", "yemen", "syria", "strait of hormuz", "red sea",
		"saudi", "idf",
	}},
	{"asia_pacific", []string{
		"taiwan", "china", "south china sea", "north korea", "pla",
		"senkaku", "philippines", "korea",
	}},
}

// classify returns whether a question is tracked, its region scope and
// whether it is a de-escalation question.
func classify(question string) (tracked bool, region string, deEscalation bool) {
	q := strings.ToLower(question)
	for _, kw := range deEscalationKeywords {
		if strings.Contains(q, kw) {
			tracked = true
			deEscalation = true
			break
		}
	}
	if !tracked {
		for _, kw := range conflictKeywords {
			if strings.Contains(q, kw) {
				tracked = true
				break
			}
		}
	}
	if !tracked {
		return false, "", false
	}
	region = "global"
	for _, rv := range regionVocab {
		for _, w := range rv.words {
			if strings.Contains(q, w) {
				region = rv.scope
				break
			}
		}
		if region != "global" {
			break
		}
	}
	return tracked, region, deEscalation
}
