// Package report summarizes the card composition of each archetype.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/ramonehamilton/cr-analysis/internal/archetype"
	"github.com/ramonehamilton/cr-analysis/internal/charts"
	"github.com/ramonehamilton/cr-analysis/internal/storage"
)

// DefaultTopN is the number of cards listed per archetype.
const DefaultTopN = 8

// CardUsage is how often a card appears in one archetype.
type CardUsage struct {
	Name string
	// Decks is the number of decks in the archetype containing the card.
	Decks int
	// Usage is Decks divided by the archetype's deck count.
	Usage float64
}

// ArchetypeSummary describes one archetype.
type ArchetypeSummary struct {
	ID       int
	Decks    int
	TopCards []CardUsage
}

// Summarize lists, for each archetype id in ascending order, the topN cards
// by number of decks containing them. Ties are broken by card name.
// Instances whose card type has no metadata are skipped.
func Summarize(t *storage.Tables, assignment archetype.Assignment, topN int) []ArchetypeSummary {
	if topN <= 0 {
		topN = DefaultTopN
	}

	instances := t.InstanceIndex()
	names := t.CardNames()

	// archetype id -> card name -> decks containing it
	counts := make(map[int]map[string]int)
	seen := make(map[string]bool, len(t.Decks))
	for _, deck := range t.Decks {
		id, ok := assignment[deck.DeckHash]
		if !ok || seen[deck.DeckHash] {
			continue
		}
		seen[deck.DeckHash] = true

		inDeck := make(map[string]bool, len(deck.InstanceHashes))
		for _, hash := range deck.InstanceHashes {
			inst, ok := instances[hash]
			if !ok {
				continue
			}
			if name, ok := names[inst.CardTypeID]; ok {
				inDeck[name] = true
			}
		}

		if counts[id] == nil {
			counts[id] = make(map[string]int)
		}
		for name := range inDeck {
			counts[id][name]++
		}
	}

	sizes := assignment.Clusters()
	ids := make([]int, 0, len(sizes))
	for id := range sizes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	summaries := make([]ArchetypeSummary, 0, len(ids))
	for _, id := range ids {
		s := ArchetypeSummary{ID: id, Decks: sizes[id]}
		for name, n := range counts[id] {
			s.TopCards = append(s.TopCards, CardUsage{
				Name:  name,
				Decks: n,
				Usage: float64(n) / float64(s.Decks),
			})
		}
		sort.Slice(s.TopCards, func(i, j int) bool {
			if s.TopCards[i].Decks != s.TopCards[j].Decks {
				return s.TopCards[i].Decks > s.TopCards[j].Decks
			}
			return s.TopCards[i].Name < s.TopCards[j].Name
		})
		if len(s.TopCards) > topN {
			s.TopCards = s.TopCards[:topN]
		}
		summaries = append(summaries, s)
	}

	return summaries
}

// WriteText renders summaries in a human-readable form.
func WriteText(w io.Writer, summaries []ArchetypeSummary) error {
	if _, err := fmt.Fprintf(w, "Deck archetype analysis (%d archetypes)\n\n", len(summaries)); err != nil {
		return err
	}
	for _, s := range summaries {
		if _, err := fmt.Fprintf(w, "--- Archetype %d (%d decks) ---\n", s.ID, s.Decks); err != nil {
			return err
		}
		if len(s.TopCards) == 0 {
			if _, err := fmt.Fprintln(w, "  No card data available for this archetype."); err != nil {
				return err
			}
		}
		for _, c := range s.TopCards {
			if _, err := fmt.Fprintf(w, "  - %-20s (Used in %.1f%% of decks)\n", c.Name, c.Usage*100); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// RenderCharts writes an HTML page with one bar chart per archetype.
func RenderCharts(summaries []ArchetypeSummary, outputPath string) error {
	groups := make([]charts.BarGroup, 0, len(summaries))
	for _, s := range summaries {
		points := make([]charts.DataPoint, len(s.TopCards))
		for i, c := range s.TopCards {
			points[i] = charts.DataPoint{Label: c.Name, Value: math.Round(c.Usage*1000) / 10}
		}
		groups = append(groups, charts.BarGroup{
			Title:    fmt.Sprintf("Archetype %d", s.ID),
			Subtitle: fmt.Sprintf("%d decks", s.Decks),
			Points:   points,
		})
	}

	config := charts.DefaultChartConfig()
	config.Title = "Deck Archetypes"
	return charts.RenderBarPage(groups, config, outputPath)
}
