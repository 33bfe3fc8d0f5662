package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/cr-analysis/internal/storage/repository"
)

// Seed creates the store at path if needed and inserts every row of tables in one transaction.
// Match IDs are assigned by the store and written back into tables.Matches.
// This helper is exported for use in other package tests and by the init-store command.
func Seed(ctx context.Context, path string, tables *Tables) (err error) {
	if err := InitSchema(path); err != nil {
		return err
	}

	config := DefaultConfig(path)
	config.ReadOnly = false

	db, err := Open(config)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if tables == nil {
		return nil
	}

	return db.WithTransaction(ctx, func(tx *sql.Tx) error {
		metadata := repository.NewCardMetadataRepository(tx)
		for _, c := range tables.CardMetadata {
			if err := metadata.Upsert(ctx, c); err != nil {
				return err
			}
		}

		instances := repository.NewCardInstanceRepository(tx)
		for _, ci := range tables.CardInstances {
			if err := instances.Create(ctx, ci); err != nil {
				return err
			}
		}

		decks := repository.NewDeckRepository(tx)
		for _, d := range tables.Decks {
			if err := decks.Create(ctx, d); err != nil {
				return err
			}
		}

		matches := repository.NewMatchRepository(tx)
		for i, m := range tables.Matches {
			if err := matches.Create(ctx, m); err != nil {
				return fmt.Errorf("match %d: %w", i, err)
			}
		}

		return nil
	})
}
