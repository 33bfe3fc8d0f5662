// Package repository provides data access layers for the battle store.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/cr-analysis/internal/storage/models"
)

// MatchRepository handles database operations for matches.
type MatchRepository interface {
	// Create inserts a new match and sets its ID.
	Create(ctx context.Context, match *models.Match) error

	// List retrieves every match ordered by ID.
	List(ctx context.Context) ([]*models.Match, error)

	// Count returns the number of stored matches.
	Count(ctx context.Context) (int, error)
}

// matchRepository is the concrete implementation of MatchRepository.
type matchRepository struct {
	db Querier
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db Querier) MatchRepository {
	return &matchRepository{db: db}
}

// Create inserts a new match and sets its ID.
func (r *matchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (
			player_a_deck_hash, player_b_deck_hash,
			player_a_starting_trophies, player_b_starting_trophies,
			player_a_king_tower_hit_points, player_b_king_tower_hit_points,
			player_a_crowns, player_b_crowns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		match.PlayerADeckHash,
		match.PlayerBDeckHash,
		nullInt(match.PlayerAStartingTrophies),
		nullInt(match.PlayerBStartingTrophies),
		nullInt(match.PlayerAKingTowerHitPoints),
		nullInt(match.PlayerBKingTowerHitPoints),
		match.PlayerACrowns,
		match.PlayerBCrowns,
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get match ID: %w", err)
	}
	match.ID = id

	return nil
}

// List retrieves every match ordered by ID.
func (r *matchRepository) List(ctx context.Context) ([]*models.Match, error) {
	query := `
		SELECT
			id, player_a_deck_hash, player_b_deck_hash,
			player_a_starting_trophies, player_b_starting_trophies,
			player_a_king_tower_hit_points, player_b_king_tower_hit_points,
			player_a_crowns, player_b_crowns
		FROM matches
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		var (
			m                              models.Match
			trophiesA, trophiesB, hpA, hpB sql.NullInt64
		)

		err := rows.Scan(
			&m.ID,
			&m.PlayerADeckHash,
			&m.PlayerBDeckHash,
			&trophiesA,
			&trophiesB,
			&hpA,
			&hpB,
			&m.PlayerACrowns,
			&m.PlayerBCrowns,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}

		m.PlayerAStartingTrophies = intPtr(trophiesA)
		m.PlayerBStartingTrophies = intPtr(trophiesB)
		m.PlayerAKingTowerHitPoints = intPtr(hpA)
		m.PlayerBKingTowerHitPoints = intPtr(hpB)

		matches = append(matches, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}

// Count returns the number of stored matches.
func (r *matchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}
