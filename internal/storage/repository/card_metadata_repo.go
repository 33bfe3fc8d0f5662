package repository

import (
	"context"
	"fmt"

	"github.com/ramonehamilton/cr-analysis/internal/storage/models"
)

// CardMetadataRepository handles database operations for card reference data.
type CardMetadataRepository interface {
	// Upsert inserts or replaces a card's metadata.
	Upsert(ctx context.Context, card *models.CardMetadata) error

	// List retrieves all card metadata ordered by card ID.
	// Only id and name are read; stores may carry extra columns.
	List(ctx context.Context) ([]*models.CardMetadata, error)
}

type cardMetadataRepository struct {
	db Querier
}

// NewCardMetadataRepository creates a new card metadata repository.
func NewCardMetadataRepository(db Querier) CardMetadataRepository {
	return &cardMetadataRepository{db: db}
}

func (r *cardMetadataRepository) Upsert(ctx context.Context, card *models.CardMetadata) error {
	query := `
		INSERT INTO card_metadata (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`

	if _, err := r.db.ExecContext(ctx, query, card.ID, card.Name); err != nil {
		return fmt.Errorf("failed to upsert card metadata: %w", err)
	}

	return nil
}

func (r *cardMetadataRepository) List(ctx context.Context) ([]*models.CardMetadata, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM card_metadata ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query card metadata: %w", err)
	}
	defer rows.Close()

	var cards []*models.CardMetadata
	for rows.Next() {
		var c models.CardMetadata
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan card metadata: %w", err)
		}
		cards = append(cards, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card metadata: %w", err)
	}

	return cards, nil
}
