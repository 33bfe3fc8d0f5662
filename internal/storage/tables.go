package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ramonehamilton/cr-analysis/internal/storage/models"
	"github.com/ramonehamilton/cr-analysis/internal/storage/repository"
)

// Tables holds the four logical tables of the battle store in memory.
type Tables struct {
	Matches       []*models.Match
	Decks         []*models.Deck
	CardInstances []*models.CardInstance
	CardMetadata  []*models.CardMetadata
}

// Load reads every table from the store at path.
// The store is opened read-only and closed before Load returns, on every path.
func Load(ctx context.Context, path string) (tables *Tables, err error) {
	db, err := Open(DefaultConfig(path))
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrQueryFailure, err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close store: %w", closeErr)
		}
	}()

	return ReadTables(ctx, db)
}

// ReadTables reads every table through an already open connection.
func ReadTables(ctx context.Context, db *DB) (*Tables, error) {
	conn := db.Conn()
	tables := &Tables{}

	var err error
	if tables.Matches, err = repository.NewMatchRepository(conn).List(ctx); err != nil {
		return nil, fmt.Errorf("%w: matches: %w", ErrQueryFailure, err)
	}
	if tables.Decks, err = repository.NewDeckRepository(conn).List(ctx); err != nil {
		return nil, fmt.Errorf("%w: decks: %w", ErrQueryFailure, err)
	}
	if tables.CardInstances, err = repository.NewCardInstanceRepository(conn).List(ctx); err != nil {
		return nil, fmt.Errorf("%w: card_instances: %w", ErrQueryFailure, err)
	}
	if tables.CardMetadata, err = repository.NewCardMetadataRepository(conn).List(ctx); err != nil {
		return nil, fmt.Errorf("%w: card_metadata: %w", ErrQueryFailure, err)
	}

	return tables, nil
}

// InstanceIndex maps instance hash to card instance.
func (t *Tables) InstanceIndex() map[string]*models.CardInstance {
	index := make(map[string]*models.CardInstance, len(t.CardInstances))
	for _, ci := range t.CardInstances {
		index[ci.InstanceHash] = ci
	}
	return index
}

// CardNames maps card type ID to card name.
func (t *Tables) CardNames() map[int64]string {
	names := make(map[int64]string, len(t.CardMetadata))
	for _, c := range t.CardMetadata {
		names[c.ID] = c.Name
	}
	return names
}
