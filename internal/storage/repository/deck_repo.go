package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/cr-analysis/internal/storage/models"
)

// DeckRepository handles database operations for decks.
type DeckRepository interface {
	// Create inserts a deck. Inserting an existing deck hash is a no-op.
	Create(ctx context.Context, deck *models.Deck) error

	// List retrieves all decks ordered by deck hash.
	// A NULL slot loads as an empty instance hash.
	List(ctx context.Context) ([]*models.Deck, error)
}

// deckRepository is the concrete implementation of DeckRepository.
type deckRepository struct {
	db Querier
}

// NewDeckRepository creates a new deck repository.
func NewDeckRepository(db Querier) DeckRepository {
	return &deckRepository{db: db}
}

// Create inserts a deck. Inserting an existing deck hash is a no-op.
func (r *deckRepository) Create(ctx context.Context, deck *models.Deck) error {
	query := `
		INSERT OR IGNORE INTO decks (
			deck_hash,
			card_instance_hash_1, card_instance_hash_2, card_instance_hash_3, card_instance_hash_4,
			card_instance_hash_5, card_instance_hash_6, card_instance_hash_7, card_instance_hash_8
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := make([]interface{}, 0, models.DeckSize+1)
	args = append(args, deck.DeckHash)
	for _, h := range deck.InstanceHashes {
		args = append(args, h)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}

	return nil
}

// List retrieves all decks ordered by deck hash.
func (r *deckRepository) List(ctx context.Context) ([]*models.Deck, error) {
	query := `
		SELECT
			deck_hash,
			card_instance_hash_1, card_instance_hash_2, card_instance_hash_3, card_instance_hash_4,
			card_instance_hash_5, card_instance_hash_6, card_instance_hash_7, card_instance_hash_8
		FROM decks
		ORDER BY deck_hash ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query decks: %w", err)
	}
	defer rows.Close()

	var decks []*models.Deck
	for rows.Next() {
		var (
			d     models.Deck
			slots [models.DeckSize]sql.NullString
		)
		dest := make([]interface{}, 0, models.DeckSize+1)
		dest = append(dest, &d.DeckHash)
		for i := range slots {
			dest = append(dest, &slots[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		for i, slot := range slots {
			d.InstanceHashes[i] = slot.String
		}
		decks = append(decks, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decks: %w", err)
	}

	return decks, nil
}
