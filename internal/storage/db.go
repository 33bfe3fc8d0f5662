// Package storage provides read access to the battle store written by the data collector.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB wraps the database connection.
type DB struct {
	conn *sql.DB
}

// Config holds database configuration settings.
type Config struct {
	// Path is the file path to the SQLite database.
	// Use ":memory:" for an in-memory database (useful for testing).
	Path string

	// ReadOnly opens the database with mode=ro. The file must already exist.
	// Default: true
	ReadOnly bool

	// MaxOpenConns sets the maximum number of open connections to the database.
	// Default: 1, the pipeline reads one table at a time.
	MaxOpenConns int

	// BusyTimeout sets how long to wait when the database is locked by the collector.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// AutoMigrate automatically runs pending schema migrations on Open.
	// Ignored when ReadOnly is set.
	AutoMigrate bool
}

// DefaultConfig returns a read-only Config for the store at path.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:         path,
		ReadOnly:     true,
		MaxOpenConns: 1,
		BusyTimeout:  5 * time.Second,
	}
}

// Open creates a new database connection with the given configuration.
// A read-only open of a missing file fails with ErrStoreNotFound instead of creating it.
func Open(config *Config) (*DB, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	inMemory := config.Path == ":memory:"

	if config.ReadOnly && !inMemory {
		info, err := os.Stat(config.Path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, config.Path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat database: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrStoreNotFound, config.Path)
		}
	}

	// Create parent directory if it doesn't exist (writable stores only)
	if !config.ReadOnly && !inMemory {
		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	if config.AutoMigrate && !config.ReadOnly && !inMemory {
		if err := InitSchema(config.Path); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", buildDSN(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	conn.SetMaxOpenConns(maxOpen)

	// Verify connection
	if err := conn.Ping(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to close database after ping error: %w (original error: %v)", closeErr, err)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// buildDSN renders the modernc.org/sqlite connection string for config.
func buildDSN(config *Config) string {
	if config.Path == ":memory:" {
		return ":memory:"
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", filepath.ToSlash(config.Path), config.BusyTimeout.Milliseconds())
	if config.ReadOnly {
		dsn += "&mode=ro&_pragma=query_only(1)"
	}
	return dsn
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the database connection is alive.
func (db *DB) Ping() error {
	return db.conn.Ping()
}
