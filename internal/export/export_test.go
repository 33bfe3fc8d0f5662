package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ramonehamilton/cr-analysis/internal/dataset"
)

func testDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Columns: dataset.Columns(dataset.FeatureSetBasic),
		Features: [][]float64{
			{6000, 5980, 4824, 4824, 0, 3},
			{6120, 6100, 5448, 4008.5, 3, 3},
			{5400, 5500, 4824, 4824, 1, 0},
		},
		Labels:   []int64{1, 0, 1},
		MatchIDs: []int64{10, 11, 15},
		Report: dataset.Report{
			Input:             5,
			UnmappedArchetype: 2,
			Rows:              3,
			Imputed:           map[string]int{dataset.ColPlayerBKingTowerHitPoints: 1},
		},
	}
}

func TestDatasetWriter_NPYRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	opts := DefaultOptions(tmpDir)
	ds := testDataset()

	if err := NewDatasetWriter(opts).Write(ds); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	features, labels, err := ReadDataset(opts.FeaturesPath, opts.LabelsPath)
	if err != nil {
		t.Fatalf("ReadDataset failed: %v", err)
	}

	if len(features) != len(labels) {
		t.Fatalf("Expected aligned artifacts, got %d rows and %d labels", len(features), len(labels))
	}
	if len(features) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(features))
	}
	for i := range ds.Features {
		for j := range ds.Features[i] {
			if features[i][j] != ds.Features[i][j] {
				t.Errorf("Row %d column %d: expected %v, got %v", i, j, ds.Features[i][j], features[i][j])
			}
		}
		if labels[i] != ds.Labels[i] {
			t.Errorf("Label %d: expected %d, got %d", i, ds.Labels[i], labels[i])
		}
	}

	if err := Verify(ds, opts.FeaturesPath, opts.LabelsPath); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestDatasetWriter_OverwritesPriorArtifacts(t *testing.T) {
	tmpDir := t.TempDir()
	opts := DefaultOptions(tmpDir)

	if err := NewDatasetWriter(opts).Write(testDataset()); err != nil {
		t.Fatalf("First write failed: %v", err)
	}

	smaller := testDataset()
	smaller.Features = smaller.Features[:1]
	smaller.Labels = smaller.Labels[:1]
	smaller.MatchIDs = smaller.MatchIDs[:1]
	if err := NewDatasetWriter(opts).Write(smaller); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	_, labels, err := ReadDataset(opts.FeaturesPath, opts.LabelsPath)
	if err != nil {
		t.Fatalf("ReadDataset failed: %v", err)
	}
	if len(labels) != 1 {
		t.Errorf("Expected 1 label after overwrite, got %d", len(labels))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("Temporary file left behind: %s", e.Name())
		}
	}
}

func TestDatasetWriter_NoOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	opts := DefaultOptions(tmpDir)
	opts.Overwrite = false

	if err := os.WriteFile(opts.FeaturesPath, []byte("existing"), 0o644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	err := NewDatasetWriter(opts).Write(testDataset())
	if !errors.Is(err, ErrWriteFailure) {
		t.Fatalf("Expected ErrWriteFailure, got %v", err)
	}

	content, _ := os.ReadFile(opts.FeaturesPath)
	if string(content) != "existing" {
		t.Error("Existing features file was modified")
	}
	if _, err := os.Stat(opts.LabelsPath); !os.IsNotExist(err) {
		t.Error("Labels file should not be written when features fail")
	}
}

func TestDatasetWriter_UnwritableTarget(t *testing.T) {
	tmpDir := t.TempDir()
	opts := DefaultOptions(tmpDir)

	// A directory where the labels file should go.
	if err := os.Mkdir(opts.LabelsPath, 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	err := NewDatasetWriter(opts).Write(testDataset())
	if !errors.Is(err, ErrWriteFailure) {
		t.Fatalf("Expected ErrWriteFailure, got %v", err)
	}
	if _, err := os.Stat(opts.FeaturesPath); !os.IsNotExist(err) {
		t.Error("Features file should not be moved into place when labels fail")
	}
}

func TestDatasetWriter_RejectsMisalignedDataset(t *testing.T) {
	ds := testDataset()
	ds.Labels = ds.Labels[:2]

	err := NewDatasetWriter(DefaultOptions(t.TempDir())).Write(ds)
	if !errors.Is(err, ErrWriteFailure) {
		t.Errorf("Expected ErrWriteFailure, got %v", err)
	}

	err = NewDatasetWriter(DefaultOptions(t.TempDir())).Write(&dataset.Dataset{})
	if !errors.Is(err, dataset.ErrEmptyDataset) {
		t.Errorf("Expected ErrEmptyDataset, got %v", err)
	}
}

func TestDatasetWriter_CSV(t *testing.T) {
	tmpDir := t.TempDir()
	opts := Options{
		Format:       FormatCSV,
		FeaturesPath: filepath.Join(tmpDir, "features.csv"),
		LabelsPath:   filepath.Join(tmpDir, "labels.csv"),
		Overwrite:    true,
	}

	if err := NewDatasetWriter(opts).Write(testDataset()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, err := os.ReadFile(opts.FeaturesPath)
	if err != nil {
		t.Fatalf("Failed to read features: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines (header + 3 rows), got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "match_id,player_a_starting_trophies,") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if lines[2] != "11,6120,6100,5448,4008.5,3,3" {
		t.Errorf("Unexpected row: %s", lines[2])
	}

	labels, err := os.ReadFile(opts.LabelsPath)
	if err != nil {
		t.Fatalf("Failed to read labels: %v", err)
	}
	if string(labels) != "match_id,label\n10,1\n11,0\n15,1\n" {
		t.Errorf("Unexpected labels file: %q", labels)
	}
}

func TestDatasetWriter_Manifest(t *testing.T) {
	tmpDir := t.TempDir()
	opts := DefaultOptions(tmpDir)
	opts.ManifestPath = filepath.Join(tmpDir, "dataset_manifest.json")

	if err := NewDatasetWriter(opts).Write(testDataset()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	m, err := ReadManifest(opts.ManifestPath)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if m.Rows != 3 || m.Positives != 2 || m.Negatives != 1 {
		t.Errorf("Unexpected balance: rows=%d positives=%d negatives=%d", m.Rows, m.Positives, m.Negatives)
	}
	if m.UnmappedArchetype != 2 {
		t.Errorf("Expected 2 unmapped exclusions, got %d", m.UnmappedArchetype)
	}
	if len(m.Columns) != 6 {
		t.Errorf("Expected 6 columns, got %d", len(m.Columns))
	}
	if m.Imputed[dataset.ColPlayerBKingTowerHitPoints] != 1 {
		t.Errorf("Expected imputed count to be recorded, got %v", m.Imputed)
	}
	if m.ToolVersion == "" {
		t.Error("Expected ToolVersion to be set")
	}
	if m.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("npy"); err != nil || f != FormatNPY {
		t.Errorf("ParseFormat(npy) = %q, %v", f, err)
	}
	if _, err := ParseFormat("parquet"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
