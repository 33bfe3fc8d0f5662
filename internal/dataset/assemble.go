package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ramonehamilton/cr-analysis/internal/archetype"
	"github.com/ramonehamilton/cr-analysis/internal/features"
)

var (
	// ErrUnmappedArchetype marks a match whose deck has no archetype assignment.
	ErrUnmappedArchetype = errors.New("unmapped archetype")

	// ErrMissingDeckFeatures marks a match whose deck has no feature row.
	ErrMissingDeckFeatures = errors.New("missing deck features")

	// ErrEmptyDataset is returned when no match survives assembly.
	ErrEmptyDataset = errors.New("no training rows")
)

// ExclusionError describes a match dropped during assembly.
type ExclusionError struct {
	MatchID  int64
	DeckHash string
	Err      error
}

func (e *ExclusionError) Error() string {
	return fmt.Sprintf("match %d: deck %s: %v", e.MatchID, e.DeckHash, e.Err)
}

func (e *ExclusionError) Unwrap() error {
	return e.Err
}

// Options configures assembly.
type Options struct {
	FeatureSet FeatureSet
	Imputation Strategy
	// FillValue is used by StrategyConstant.
	FillValue float64
}

// DefaultOptions returns the extended feature set with median imputation.
func DefaultOptions() Options {
	return Options{
		FeatureSet: FeatureSetExtended,
		Imputation: StrategyMedian,
	}
}

// Report counts row-level defects absorbed during assembly.
type Report struct {
	Input               int
	UnmappedArchetype   int
	MissingDeckFeatures int
	Rows                int
	// Imputed maps column name to the number of values filled.
	Imputed map[string]int
	// EmptyColumns lists columns with no observed value, filled with 0.
	EmptyColumns []string
	Exclusions   []*ExclusionError
}

// TrainingRow is one surviving match. Missing covariates are NaN.
type TrainingRow struct {
	MatchID int64

	PlayerAStartingTrophies   float64
	PlayerBStartingTrophies   float64
	PlayerAKingTowerHitPoints float64
	PlayerBKingTowerHitPoints float64

	PlayerAArchetype int
	PlayerBArchetype int

	// Nil unless the extended feature set is selected.
	PlayerADeck *features.DeckFeatures
	PlayerBDeck *features.DeckFeatures

	Label int64
}

// Values returns the row's values in the order of cols.
func (r *TrainingRow) Values(cols []string) []float64 {
	values := make([]float64, len(cols))
	for i, c := range cols {
		values[i] = r.value(c)
	}
	return values
}

func (r *TrainingRow) value(col string) float64 {
	switch col {
	case ColPlayerAStartingTrophies:
		return r.PlayerAStartingTrophies
	case ColPlayerBStartingTrophies:
		return r.PlayerBStartingTrophies
	case ColPlayerAKingTowerHitPoints:
		return r.PlayerAKingTowerHitPoints
	case ColPlayerBKingTowerHitPoints:
		return r.PlayerBKingTowerHitPoints
	case ColPlayerAArchetype:
		return float64(r.PlayerAArchetype)
	case ColPlayerBArchetype:
		return float64(r.PlayerBArchetype)
	case ColPlayerAAvgCardLevel:
		return deckValue(r.PlayerADeck, func(f *features.DeckFeatures) float64 { return f.AvgCardLevel })
	case ColPlayerAEvolutionCount:
		return deckValue(r.PlayerADeck, func(f *features.DeckFeatures) float64 { return float64(f.EvolutionCount) })
	case ColPlayerBAvgCardLevel:
		return deckValue(r.PlayerBDeck, func(f *features.DeckFeatures) float64 { return f.AvgCardLevel })
	case ColPlayerBEvolutionCount:
		return deckValue(r.PlayerBDeck, func(f *features.DeckFeatures) float64 { return float64(f.EvolutionCount) })
	default:
		return math.NaN()
	}
}

func deckValue(f *features.DeckFeatures, get func(*features.DeckFeatures) float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return get(f)
}

// Dataset is the assembled feature matrix and aligned label vector.
type Dataset struct {
	Columns  []string
	Rows     []TrainingRow
	Features [][]float64
	Labels   []int64
	MatchIDs []int64
	Fills    []ColumnFill
	Report   Report
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Positives returns the number of rows labeled 1.
func (d *Dataset) Positives() int {
	n := 0
	for _, l := range d.Labels {
		if l == 1 {
			n++
		}
	}
	return n
}

// Assemble joins archetypes and deck features onto labeled matches, selects
// the columns of opts.FeatureSet and imputes missing values.
//
// Rows whose decks lack an archetype are excluded. With the extended feature
// set, rows whose decks lack a feature row are excluded as well; no joined
// value is ever imputed.
func Assemble(
	labeled []LabeledMatch,
	assignment archetype.Assignment,
	deckFeatures map[string]features.DeckFeatures,
	opts Options,
) (*Dataset, error) {
	if _, err := ParseFeatureSet(string(opts.FeatureSet)); err != nil {
		return nil, err
	}
	if _, err := ParseStrategy(string(opts.Imputation)); err != nil {
		return nil, err
	}

	ordered := append([]LabeledMatch(nil), labeled...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Match.ID < ordered[j].Match.ID
	})

	ds := &Dataset{
		Columns: Columns(opts.FeatureSet),
		Report:  Report{Input: len(labeled), Imputed: make(map[string]int)},
	}

	for _, lm := range ordered {
		m := lm.Match

		archA, okA := assignment[m.PlayerADeckHash]
		archB, okB := assignment[m.PlayerBDeckHash]
		if !okA || !okB {
			ds.Report.UnmappedArchetype++
			ds.Report.Exclusions = append(ds.Report.Exclusions, &ExclusionError{
				MatchID:  m.ID,
				DeckHash: missingKey(okA, m.PlayerADeckHash, m.PlayerBDeckHash),
				Err:      ErrUnmappedArchetype,
			})
			continue
		}

		row := TrainingRow{
			MatchID:                   m.ID,
			PlayerAStartingTrophies:   nullable(m.PlayerAStartingTrophies),
			PlayerBStartingTrophies:   nullable(m.PlayerBStartingTrophies),
			PlayerAKingTowerHitPoints: nullable(m.PlayerAKingTowerHitPoints),
			PlayerBKingTowerHitPoints: nullable(m.PlayerBKingTowerHitPoints),
			PlayerAArchetype:          archA,
			PlayerBArchetype:          archB,
			Label:                     lm.Label,
		}

		if opts.FeatureSet.UsesDeckFeatures() {
			featA, okA := deckFeatures[m.PlayerADeckHash]
			featB, okB := deckFeatures[m.PlayerBDeckHash]
			if !okA || !okB {
				ds.Report.MissingDeckFeatures++
				ds.Report.Exclusions = append(ds.Report.Exclusions, &ExclusionError{
					MatchID:  m.ID,
					DeckHash: missingKey(okA, m.PlayerADeckHash, m.PlayerBDeckHash),
					Err:      ErrMissingDeckFeatures,
				})
				continue
			}
			row.PlayerADeck = &featA
			row.PlayerBDeck = &featB
		}

		ds.Rows = append(ds.Rows, row)
	}

	if len(ds.Rows) == 0 {
		return nil, fmt.Errorf("%w: %d labeled matches, %d unmapped, %d without deck features",
			ErrEmptyDataset, len(labeled), ds.Report.UnmappedArchetype, ds.Report.MissingDeckFeatures)
	}

	raw := make([][]float64, len(ds.Rows))
	ds.Labels = make([]int64, len(ds.Rows))
	ds.MatchIDs = make([]int64, len(ds.Rows))
	for i := range ds.Rows {
		raw[i] = ds.Rows[i].Values(ds.Columns)
		ds.Labels[i] = ds.Rows[i].Label
		ds.MatchIDs[i] = ds.Rows[i].MatchID
	}

	matrix, fills, err := Impute(raw, opts.Imputation, opts.FillValue)
	if err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}
	ds.Features = matrix
	ds.Fills = fills
	for _, f := range fills {
		name := ds.Columns[f.Column]
		ds.Report.Imputed[name] = f.Missing
		if f.Empty {
			ds.Report.EmptyColumns = append(ds.Report.EmptyColumns, name)
		}
	}
	ds.Report.Rows = len(ds.Rows)

	return ds, nil
}

func nullable(v *int64) float64 {
	if v == nil {
		return math.NaN()
	}
	return float64(*v)
}

// missingKey returns deck A's hash if it was the one not found, else deck B's.
func missingKey(okA bool, deckA, deckB string) string {
	if !okA {
		return deckA
	}
	return deckB
}
