// Package features derives per-deck aggregate statistics from card instances.
package features

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/ramonehamilton/cr-analysis/internal/storage/models"
)

// Valid card level range.
const (
	MinCardLevel = 1
	MaxCardLevel = 16
)

// ErrIncompleteDeck is returned for a deck whose card instances cannot all be resolved.
var ErrIncompleteDeck = errors.New("incomplete deck")

// IncompleteDeckError describes why a deck was excluded from the feature table.
type IncompleteDeckError struct {
	DeckHash string
	Slot     int    // 1-based slot, 0 when not slot specific
	Instance string // unresolved instance hash
	Reason   string
}

func (e *IncompleteDeckError) Error() string {
	if e.Slot > 0 {
		return fmt.Sprintf("deck %s slot %d (%s): %s", e.DeckHash, e.Slot, e.Instance, e.Reason)
	}
	return fmt.Sprintf("deck %s: %s", e.DeckHash, e.Reason)
}

func (e *IncompleteDeckError) Unwrap() error {
	return ErrIncompleteDeck
}

// DeckFeatures is the derived feature row of one deck.
type DeckFeatures struct {
	DeckHash       string
	AvgCardLevel   float64
	EvolutionCount int
}

// Slot is one row of the long-form deck relation.
type Slot struct {
	DeckHash     string
	Slot         int // 1-based
	InstanceHash string
}

// Result holds the feature table and the decks excluded from it.
type Result struct {
	// Features maps deck hash to its feature row.
	Features map[string]DeckFeatures

	// Incomplete lists decks excluded because an instance could not be resolved.
	Incomplete []*IncompleteDeckError

	// Duplicates counts repeated rows for an already seen deck hash.
	Duplicates int
}

// Expand turns each deck's fixed slots into a long relation keyed by deck hash.
func Expand(decks []*models.Deck) []Slot {
	slots := make([]Slot, 0, len(decks)*models.DeckSize)
	for _, d := range decks {
		for i, h := range d.InstanceHashes {
			slots = append(slots, Slot{DeckHash: d.DeckHash, Slot: i + 1, InstanceHash: h})
		}
	}
	return slots
}

// Build computes one feature row per deck with all slots resolvable.
func Build(decks []*models.Deck, instances []*models.CardInstance) *Result {
	index := make(map[string]*models.CardInstance, len(instances))
	for _, ci := range instances {
		if _, ok := index[ci.InstanceHash]; !ok {
			index[ci.InstanceHash] = ci
		}
	}

	result := &Result{Features: make(map[string]DeckFeatures, len(decks))}

	// Group the long relation by deck, keeping the first row per deck hash.
	grouped := make(map[string][]Slot, len(decks))
	order := make([]string, 0, len(decks))
	seen := make(map[string]bool, len(decks))
	for _, d := range decks {
		if seen[d.DeckHash] {
			result.Duplicates++
			continue
		}
		seen[d.DeckHash] = true
		order = append(order, d.DeckHash)
	}
	for _, s := range Expand(decks) {
		if len(grouped[s.DeckHash]) == models.DeckSize {
			continue
		}
		grouped[s.DeckHash] = append(grouped[s.DeckHash], s)
	}

	for _, deckHash := range order {
		row, err := aggregate(deckHash, grouped[deckHash], index)
		if err != nil {
			result.Incomplete = append(result.Incomplete, err)
			continue
		}
		result.Features[deckHash] = row
	}

	return result
}

// aggregate resolves a deck's slots and computes its feature row.
func aggregate(deckHash string, slots []Slot, index map[string]*models.CardInstance) (DeckFeatures, *IncompleteDeckError) {
	if len(slots) != models.DeckSize {
		return DeckFeatures{}, &IncompleteDeckError{
			DeckHash: deckHash,
			Reason:   fmt.Sprintf("expected %d slots, got %d", models.DeckSize, len(slots)),
		}
	}

	levels := make([]float64, 0, models.DeckSize)
	evolved := 0
	for _, s := range slots {
		ci, ok := index[s.InstanceHash]
		if !ok || s.InstanceHash == "" {
			return DeckFeatures{}, &IncompleteDeckError{
				DeckHash: deckHash,
				Slot:     s.Slot,
				Instance: s.InstanceHash,
				Reason:   "card instance not found",
			}
		}
		if ci.Level < MinCardLevel || ci.Level > MaxCardLevel {
			return DeckFeatures{}, &IncompleteDeckError{
				DeckHash: deckHash,
				Slot:     s.Slot,
				Instance: s.InstanceHash,
				Reason:   fmt.Sprintf("card level %d outside [%d, %d]", ci.Level, MinCardLevel, MaxCardLevel),
			}
		}

		levels = append(levels, float64(ci.Level))
		if ci.IsEvolved() {
			evolved++
		}
	}

	return DeckFeatures{
		DeckHash:       deckHash,
		AvgCardLevel:   stat.Mean(levels, nil),
		EvolutionCount: evolved,
	}, nil
}
