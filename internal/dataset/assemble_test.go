package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/cr-analysis/internal/archetype"
	"github.com/ramonehamilton/cr-analysis/internal/features"
	"github.com/ramonehamilton/cr-analysis/internal/storage/models"
)

func deckFeatures(rows ...features.DeckFeatures) map[string]features.DeckFeatures {
	m := make(map[string]features.DeckFeatures, len(rows))
	for _, r := range rows {
		m[r.DeckHash] = r
	}
	return m
}

var (
	featD1 = features.DeckFeatures{DeckHash: "d1", AvgCardLevel: 13.5, EvolutionCount: 1}
	featD2 = features.DeckFeatures{DeckHash: "d2", AvgCardLevel: 14.25, EvolutionCount: 2}
	featD3 = features.DeckFeatures{DeckHash: "d3", AvgCardLevel: 12, EvolutionCount: 0}
)

func TestAssemble_ThreeMatchScenario(t *testing.T) {
	labeled, _ := Label([]*models.Match{
		match(1, "d1", "d2", 3, 1),
		match(2, "d2", "d1", 0, 2),
		match(3, "d1", "d2", 1, 1),
	})

	ds, err := Assemble(labeled, archetype.Assignment{"d1": 0, "d2": 1}, deckFeatures(featD1, featD2), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.Len(t, ds.Features, len(ds.Labels))
	assert.Equal(t, []int64{1, 0}, ds.Labels)
	assert.Equal(t, []int64{1, 2}, ds.MatchIDs)
	assert.Equal(t, 1, ds.Positives())

	assert.Equal(t, []float64{6000, 6000, 4824, 4824, 0, 1, 13.5, 1, 14.25, 2}, ds.Features[0])
	assert.Equal(t, []float64{6000, 6000, 4824, 4824, 1, 0, 14.25, 2, 13.5, 1}, ds.Features[1])
}

func TestAssemble_UnmappedArchetypeExcluded(t *testing.T) {
	labeled, _ := Label([]*models.Match{
		match(1, "d1", "d2", 3, 1),
		match(2, "d1", "d3", 2, 0),
		match(3, "d3", "d2", 0, 1),
	})

	ds, err := Assemble(labeled, archetype.Assignment{"d1": 0, "d2": 1}, deckFeatures(featD1, featD2, featD3), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, ds.MatchIDs)
	assert.Equal(t, 2, ds.Report.UnmappedArchetype)
	assert.Equal(t, 0, ds.Report.MissingDeckFeatures)

	require.Len(t, ds.Report.Exclusions, 2)
	for _, ex := range ds.Report.Exclusions {
		assert.True(t, errors.Is(ex, ErrUnmappedArchetype))
		assert.Equal(t, "d3", ex.DeckHash)
	}
}

func TestAssemble_StrictDeckFeatureJoin(t *testing.T) {
	labeled, _ := Label([]*models.Match{
		match(1, "d1", "d2", 3, 1),
		match(2, "d1", "d3", 2, 0),
	})
	assignment := archetype.Assignment{"d1": 0, "d2": 1, "d3": 1}

	ds, err := Assemble(labeled, assignment, deckFeatures(featD1, featD2), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, ds.MatchIDs)
	assert.Equal(t, 1, ds.Report.MissingDeckFeatures)
	require.Len(t, ds.Report.Exclusions, 1)
	assert.True(t, errors.Is(ds.Report.Exclusions[0], ErrMissingDeckFeatures))
	assert.Empty(t, ds.Report.Imputed)
}

func TestAssemble_BasicSetIgnoresDeckFeatures(t *testing.T) {
	labeled, _ := Label([]*models.Match{
		match(1, "d1", "d2", 3, 1),
		match(2, "d1", "d3", 2, 0),
	})
	assignment := archetype.Assignment{"d1": 0, "d2": 1, "d3": 1}

	opts := DefaultOptions()
	opts.FeatureSet = FeatureSetBasic

	ds, err := Assemble(labeled, assignment, nil, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, Columns(FeatureSetBasic), ds.Columns)
	for _, row := range ds.Features {
		assert.Len(t, row, len(ds.Columns))
	}
}

func TestAssemble_MedianImputesCovariates(t *testing.T) {
	m1 := match(1, "d1", "d2", 3, 1)
	m2 := match(2, "d1", "d2", 0, 1)
	m3 := match(3, "d1", "d2", 2, 1)
	low, high := int64(10), int64(30)
	m1.PlayerAStartingTrophies = &low
	m2.PlayerAStartingTrophies = nil
	m3.PlayerAStartingTrophies = &high

	labeled, _ := Label([]*models.Match{m3, m1, m2})

	ds, err := Assemble(labeled, archetype.Assignment{"d1": 0, "d2": 1}, deckFeatures(featD1, featD2), DefaultOptions())
	require.NoError(t, err)

	col := make([]float64, ds.Len())
	for i, row := range ds.Features {
		col[i] = row[0]
	}
	assert.Equal(t, []float64{10, 20, 30}, col)
	assert.Equal(t, map[string]int{ColPlayerAStartingTrophies: 1}, ds.Report.Imputed)
}

func TestAssemble_ReorderedDeckSharesJoin(t *testing.T) {
	first := [models.DeckSize]string{"a", "b", "c", "d", "e", "f", "g", "h"}
	second := [models.DeckSize]string{"h", "g", "f", "e", "d", "c", "b", "a"}
	deckA := models.DeckHash(first)
	deckB := models.DeckHash(second)

	labeled, _ := Label([]*models.Match{match(1, deckA, deckB, 1, 0)})
	feat := features.DeckFeatures{DeckHash: deckA, AvgCardLevel: 11, EvolutionCount: 1}

	ds, err := Assemble(labeled, archetype.Assignment{deckA: 4}, deckFeatures(feat), DefaultOptions())
	require.NoError(t, err)

	row := ds.Features[0]
	assert.Equal(t, row[4], row[5])
	assert.Equal(t, row[6:8], row[8:10])
}

func TestAssemble_EmptyDataset(t *testing.T) {
	labeled, _ := Label([]*models.Match{match(1, "x", "y", 1, 0)})

	_, err := Assemble(labeled, archetype.Assignment{"d1": 0}, nil, DefaultOptions())
	assert.True(t, errors.Is(err, ErrEmptyDataset))
}

func TestAssemble_InvalidOptions(t *testing.T) {
	_, err := Assemble(nil, nil, nil, Options{FeatureSet: "huge", Imputation: StrategyMedian})
	assert.Error(t, err)

	_, err = Assemble(nil, nil, nil, Options{FeatureSet: FeatureSetBasic, Imputation: "mode"})
	assert.Error(t, err)
}

func TestColumns(t *testing.T) {
	basic := Columns(FeatureSetBasic)
	extended := Columns(FeatureSetExtended)

	assert.Len(t, basic, 6)
	assert.Len(t, extended, 10)
	assert.Equal(t, basic, extended[:6])
	assert.Equal(t, ColPlayerAStartingTrophies, extended[0])
	assert.Equal(t, ColPlayerBEvolutionCount, extended[9])

	// Callers must not be able to alter the column order.
	basic[0] = "changed"
	assert.Equal(t, ColPlayerAStartingTrophies, Columns(FeatureSetBasic)[0])
}

func TestParseFeatureSet(t *testing.T) {
	set, err := ParseFeatureSet("extended")
	require.NoError(t, err)
	assert.True(t, set.UsesDeckFeatures())

	_, err = ParseFeatureSet("full")
	assert.Error(t, err)
}
