// Package dataset assembles labeled training rows from matches, archetypes and deck features.
package dataset

import (
	"github.com/ramonehamilton/cr-analysis/internal/storage/models"
)

// LabeledMatch is a non-drawn match with its binary outcome.
type LabeledMatch struct {
	Match *models.Match
	// Label is 1 when participant A earned more crowns, 0 otherwise.
	Label int64
}

// LabelStats counts the matches dropped by Label.
type LabelStats struct {
	Total   int
	Draws   int
	Invalid int // crowns outside [0, MaxCrowns]
}

// Label drops drawn and invalid matches and labels the rest.
func Label(matches []*models.Match) ([]LabeledMatch, LabelStats) {
	stats := LabelStats{Total: len(matches)}
	labeled := make([]LabeledMatch, 0, len(matches))

	for _, m := range matches {
		if m == nil {
			stats.Invalid++
			continue
		}
		if !validCrowns(m.PlayerACrowns) || !validCrowns(m.PlayerBCrowns) {
			stats.Invalid++
			continue
		}
		if m.IsDraw() {
			stats.Draws++
			continue
		}

		var label int64
		if m.PlayerACrowns > m.PlayerBCrowns {
			label = 1
		}
		labeled = append(labeled, LabeledMatch{Match: m, Label: label})
	}

	return labeled, stats
}

func validCrowns(c int) bool {
	return c >= 0 && c <= models.MaxCrowns
}
