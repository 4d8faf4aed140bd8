package scoring

import (
	"fmt"
	"sort"
	"strings"

	"GeoPulse/internal/domain/models"
)

// scored signals that enter convergence, in display order.
var convergenceSignals = []string{
	models.SignalMarket,
	models.SignalFinancial,
	models.SignalGround,
}

// Classify labels how much the scored signals of one scope agree.
// Agreement across independent sources is stronger evidence than any
// single elevated reading. Output is deterministic for a given signal
// map: names are sorted before formatting.
func Classify(signals map[string]*models.Signal) models.Convergence {
	var present, elevated, depressed []string
	for _, name := range convergenceSignals {
		s := signals[name]
		if s.ScoreOrNil() == nil {
			continue
		}
		present = append(present, name)
		switch {
		case s.Score >= ElevatedThreshold:
			elevated = append(elevated, name)
		case s.Score <= DepressedThreshold:
			depressed = append(depressed, name)
		}
	}
	sort.Strings(present)
	sort.Strings(elevated)
	sort.Strings(depressed)

	switch {
	case len(present) == 0:
		return models.Convergence{
			Label:  "No Data",
			Detail: "no signals available",
			Colour: "#b0b0b0",
		}
	case len(elevated) == 0 && len(depressed) == 0:
		return models.Convergence{
			Label:  "Quiet",
			Detail: fmt.Sprintf("all %d signals in normal range", len(present)),
			Colour: "#b0b0b0",
		}
	case len(elevated) >= 3:
		return models.Convergence{
			Label:  "Broad Escalation",
			Detail: fmt.Sprintf("%s all elevated", join(elevated)),
			Colour: "#f87171",
		}
	case len(depressed) >= 3:
		return models.Convergence{
			Label:  "Broad De-escalation",
			Detail: fmt.Sprintf("%s all depressed", join(depressed)),
			Colour: "#34d399",
		}
	case len(elevated) >= 2 && len(depressed) == 0:
		return models.Convergence{
			Label:  "Confirming",
			Detail: fmt.Sprintf("%s elevated together", join(elevated)),
			Colour: "#fb923c",
		}
	case len(depressed) >= 2 && len(elevated) == 0:
		return models.Convergence{
			Label:  "Calming",
			Detail: fmt.Sprintf("%s depressed together", join(depressed)),
			Colour: "#6ee7b7",
		}
	case len(elevated) >= 1 && len(depressed) >= 1:
		return models.Convergence{
			Label:  "Mixed Signals",
			Detail: fmt.Sprintf("%s elevated, %s depressed", join(elevated), join(depressed)),
			Colour: "#fbbf24",
		}
	case len(elevated) == 1:
		return models.Convergence{
			Label:  "Early Signal",
			Detail: fmt.Sprintf("only %s elevated", elevated[0]),
			Colour: "#fbbf24",
		}
	default:
		return models.Convergence{
			Label:  "Early Calm",
			Detail: fmt.Sprintf("only %s depressed", depressed[0]),
			Colour: "#a3b8a0",
		}
	}
}

func join(names []string) string {
	return strings.Join(names, ", ")
}
