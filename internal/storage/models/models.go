// Package models defines the rows read from the battle store.
package models

// MaxCrowns is the most crowns a participant can earn in one match.
const MaxCrowns = 3

// DeckSize is the number of card slots in a deck.
const DeckSize = 8

// Match represents one completed battle between two participants.
type Match struct {
	ID              int64
	PlayerADeckHash string
	PlayerBDeckHash string

	PlayerAStartingTrophies   *int64 // Nullable
	PlayerBStartingTrophies   *int64 // Nullable
	PlayerAKingTowerHitPoints *int64 // Nullable
	PlayerBKingTowerHitPoints *int64 // Nullable

	PlayerACrowns int
	PlayerBCrowns int
}

// IsDraw reports whether both participants earned the same number of crowns.
func (m *Match) IsDraw() bool {
	return m.PlayerACrowns == m.PlayerBCrowns
}

// Deck is a fixed composition of eight card instances.
type Deck struct {
	DeckHash       string
	InstanceHashes [DeckSize]string
}

// CardInstance is a specific card placed in a deck.
type CardInstance struct {
	InstanceHash   string
	CardTypeID     int64
	Level          int64
	EvolutionLevel *int64 // Nullable: set only for evolved cards
}

// IsEvolved reports whether the instance carries an evolution level.
func (c *CardInstance) IsEvolved() bool {
	return c.EvolutionLevel != nil
}

// CardMetadata is static reference data for a card type.
type CardMetadata struct {
	ID   int64
	Name string
}
