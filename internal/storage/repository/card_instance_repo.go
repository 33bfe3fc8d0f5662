package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/cr-analysis/internal/storage/models"
)

// CardInstanceRepository handles database operations for card instances.
type CardInstanceRepository interface {
	// Create inserts a card instance. Inserting an existing instance hash is a no-op.
	Create(ctx context.Context, instance *models.CardInstance) error

	// List retrieves all card instances.
	List(ctx context.Context) ([]*models.CardInstance, error)
}

type cardInstanceRepository struct {
	db Querier
}

// NewCardInstanceRepository creates a new card instance repository.
func NewCardInstanceRepository(db Querier) CardInstanceRepository {
	return &cardInstanceRepository{db: db}
}

func (r *cardInstanceRepository) Create(ctx context.Context, instance *models.CardInstance) error {
	query := `
		INSERT OR IGNORE INTO card_instances (instance_hash, card_type_id, level, evolution_level)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		instance.InstanceHash,
		instance.CardTypeID,
		instance.Level,
		nullInt(instance.EvolutionLevel),
	)
	if err != nil {
		return fmt.Errorf("failed to create card instance: %w", err)
	}

	return nil
}

func (r *cardInstanceRepository) List(ctx context.Context) ([]*models.CardInstance, error) {
	query := `
		SELECT instance_hash, card_type_id, level, evolution_level
		FROM card_instances
		ORDER BY instance_hash ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query card instances: %w", err)
	}
	defer rows.Close()

	var instances []*models.CardInstance
	for rows.Next() {
		var (
			ci  models.CardInstance
			evo sql.NullInt64
		)
		if err := rows.Scan(&ci.InstanceHash, &ci.CardTypeID, &ci.Level, &evo); err != nil {
			return nil, fmt.Errorf("failed to scan card instance: %w", err)
		}
		ci.EvolutionLevel = intPtr(evo)
		instances = append(instances, &ci)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card instances: %w", err)
	}

	return instances, nil
}
