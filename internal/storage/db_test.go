package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("test.db")

	if config.Path != "test.db" {
		t.Errorf("expected path 'test.db', got '%s'", config.Path)
	}

	if !config.ReadOnly {
		t.Error("expected default config to be read-only")
	}

	if config.MaxOpenConns != 1 {
		t.Errorf("expected MaxOpenConns 1, got %d", config.MaxOpenConns)
	}

	if config.BusyTimeout != 5*time.Second {
		t.Errorf("expected BusyTimeout 5s, got %v", config.BusyTimeout)
	}
}

func TestOpen(t *testing.T) {
	config := DefaultConfig(":memory:")
	db, err := Open(config)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("failed to ping database: %v", err)
	}

	if db.Conn() == nil {
		t.Error("expected non-nil connection")
	}
}

func TestOpenWithNilConfig(t *testing.T) {
	_, err := Open(nil)
	if err == nil {
		t.Error("expected error with nil config")
	}
}

func TestOpen_MissingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := Open(DefaultConfig(path))
	if !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestOpen_DirectoryIsNotAStore(t *testing.T) {
	_, err := Open(DefaultConfig(t.TempDir()))
	if !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestOpen_ReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	if err := InitSchema(path); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	db, err := Open(DefaultConfig(path))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	_, err = db.Conn().Exec(`INSERT INTO card_metadata (id, name) VALUES (1, 'Knight')`)
	if err == nil {
		t.Error("expected write to read-only store to fail")
	}
}

func TestBuildDSN(t *testing.T) {
	config := DefaultConfig("/data/battles.db")

	got := buildDSN(config)
	want := "file:/data/battles.db?_pragma=busy_timeout(5000)&mode=ro&_pragma=query_only(1)"
	if got != want {
		t.Errorf("buildDSN() = %q, want %q", got, want)
	}

	config.ReadOnly = false
	got = buildDSN(config)
	want = "file:/data/battles.db?_pragma=busy_timeout(5000)"
	if got != want {
		t.Errorf("buildDSN() = %q, want %q", got, want)
	}
}
