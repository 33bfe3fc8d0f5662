package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ramonehamilton/cr-analysis/internal/archetype"
	"github.com/ramonehamilton/cr-analysis/internal/config"
	"github.com/ramonehamilton/cr-analysis/internal/dataset"
	"github.com/ramonehamilton/cr-analysis/internal/storage"
)

func TestDiagnose(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("loading_store: %w", storage.ErrStoreNotFound), "not found"},
		{fmt.Errorf("x: %w", archetype.ErrClusteringUnavailable), "archetype"},
		{fmt.Errorf("x: %w", dataset.ErrEmptyDataset), "no match survived"},
		{fmt.Errorf("boom"), "dataset build failed"},
	}

	for _, tt := range tests {
		if got := diagnose(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("diagnose(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}

func TestRunInitStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battles.db")

	if err := runInitStore([]string{"-db", path}); err != nil {
		t.Fatalf("runInitStore failed: %v", err)
	}

	tables, err := storage.Load(t.Context(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(tables.Matches) != 0 {
		t.Errorf("Expected empty store, got %d matches", len(tables.Matches))
	}

	if err := runInitStore(nil); err == nil {
		t.Error("Expected error without -db")
	}
}

func TestRunInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cr-dataset.toml")

	if err := runInitConfig([]string{"-out", path}); err != nil {
		t.Fatalf("runInitConfig failed: %v", err)
	}
	if err := runInitConfig([]string{"-out", path}); err == nil {
		t.Error("Expected error when file exists without -force")
	}
	if err := runInitConfig([]string{"-out", path, "-force"}); err != nil {
		t.Errorf("runInitConfig with -force failed: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Written configuration is invalid: %v", err)
	}
}
