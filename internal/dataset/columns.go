package dataset

import "fmt"

// FeatureSet selects the columns of the feature matrix.
type FeatureSet string

const (
	// FeatureSetBasic holds ratings, king tower health and archetypes.
	FeatureSetBasic FeatureSet = "basic"
	// FeatureSetExtended adds average card level and evolution count per deck.
	FeatureSetExtended FeatureSet = "extended"
)

// Column names in matrix order.
const (
	ColPlayerAStartingTrophies   = "player_a_starting_trophies"
	ColPlayerBStartingTrophies   = "player_b_starting_trophies"
	ColPlayerAKingTowerHitPoints = "player_a_king_tower_hit_points"
	ColPlayerBKingTowerHitPoints = "player_b_king_tower_hit_points"
	ColPlayerAArchetype          = "player_a_archetype"
	ColPlayerBArchetype          = "player_b_archetype"
	ColPlayerAAvgCardLevel       = "player_a_avg_card_level"
	ColPlayerAEvolutionCount     = "player_a_evolution_count"
	ColPlayerBAvgCardLevel       = "player_b_avg_card_level"
	ColPlayerBEvolutionCount     = "player_b_evolution_count"
)

var basicColumns = []string{
	ColPlayerAStartingTrophies,
	ColPlayerBStartingTrophies,
	ColPlayerAKingTowerHitPoints,
	ColPlayerBKingTowerHitPoints,
	ColPlayerAArchetype,
	ColPlayerBArchetype,
}

var deckColumns = []string{
	ColPlayerAAvgCardLevel,
	ColPlayerAEvolutionCount,
	ColPlayerBAvgCardLevel,
	ColPlayerBEvolutionCount,
}

// ParseFeatureSet validates a feature set name.
func ParseFeatureSet(s string) (FeatureSet, error) {
	switch FeatureSet(s) {
	case FeatureSetBasic, FeatureSetExtended:
		return FeatureSet(s), nil
	default:
		return "", fmt.Errorf("unknown feature set %q (want %q or %q)", s, FeatureSetBasic, FeatureSetExtended)
	}
}

// Columns returns the column order of the feature matrix for set.
func Columns(set FeatureSet) []string {
	cols := append([]string(nil), basicColumns...)
	if set == FeatureSetExtended {
		cols = append(cols, deckColumns...)
	}
	return cols
}

// UsesDeckFeatures reports whether set joins deck feature rows.
func (s FeatureSet) UsesDeckFeatures() bool {
	return s == FeatureSetExtended
}
