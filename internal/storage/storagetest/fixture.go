// Package storagetest builds battle store fixtures for tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ramonehamilton/cr-analysis/internal/storage"
	"github.com/ramonehamilton/cr-analysis/internal/storage/models"
)

// Builder accumulates rows for a fixture store.
type Builder struct {
	Tables storage.Tables
}

// NewBuilder returns an empty fixture builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Card registers card metadata.
func (b *Builder) Card(id int64, name string) *Builder {
	b.Tables.CardMetadata = append(b.Tables.CardMetadata, &models.CardMetadata{ID: id, Name: name})
	return b
}

// Instance registers a card instance and returns its hash.
func (b *Builder) Instance(cardTypeID, level int64, evolutionLevel *int64) string {
	hash := models.InstanceHash(cardTypeID, level, evolutionLevel)
	b.Tables.CardInstances = append(b.Tables.CardInstances, &models.CardInstance{
		InstanceHash:   hash,
		CardTypeID:     cardTypeID,
		Level:          level,
		EvolutionLevel: evolutionLevel,
	})
	return hash
}

// Deck registers a deck built from eight instance hashes and returns its hash.
func (b *Builder) Deck(instances [models.DeckSize]string) string {
	hash := models.DeckHash(instances)
	b.Tables.Decks = append(b.Tables.Decks, &models.Deck{DeckHash: hash, InstanceHashes: instances})
	return hash
}

// DeckOfCards registers one instance per card type at the given level and a deck using them.
func (b *Builder) DeckOfCards(level int64, cardTypeIDs [models.DeckSize]int64) string {
	var instances [models.DeckSize]string
	for i, id := range cardTypeIDs {
		instances[i] = b.Instance(id, level, nil)
	}
	return b.Deck(instances)
}

// Match registers a match between two decks with the given crowns.
func (b *Builder) Match(deckA, deckB string, crownsA, crownsB int) *models.Match {
	m := &models.Match{
		PlayerADeckHash:           deckA,
		PlayerBDeckHash:           deckB,
		PlayerAStartingTrophies:   Int(5000),
		PlayerBStartingTrophies:   Int(5000),
		PlayerAKingTowerHitPoints: Int(4000),
		PlayerBKingTowerHitPoints: Int(4000),
		PlayerACrowns:             crownsA,
		PlayerBCrowns:             crownsB,
	}
	b.Tables.Matches = append(b.Tables.Matches, m)
	return m
}

// Write seeds a store in a temporary directory and returns its path.
func (b *Builder) Write(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "battles.db")
	if err := storage.Seed(context.Background(), path, &b.Tables); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return path
}

// Int returns a pointer to v.
func Int(v int64) *int64 {
	return &v
}
