package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ramonehamilton/cr-analysis/internal/dataset"
	"github.com/ramonehamilton/cr-analysis/internal/version"
)

// Manifest describes a written dataset.
type Manifest struct {
	CreatedAt    time.Time `json:"created_at"`
	ToolVersion  string    `json:"tool_version"`
	Format       Format    `json:"format"`
	FeaturesPath string    `json:"features_path"`
	LabelsPath   string    `json:"labels_path"`
	Columns      []string  `json:"columns"`
	Rows         int       `json:"rows"`
	Positives    int       `json:"positives"`
	Negatives    int       `json:"negatives"`

	InputMatches        int            `json:"input_matches"`
	UnmappedArchetype   int            `json:"excluded_unmapped_archetype"`
	MissingDeckFeatures int            `json:"excluded_missing_deck_features"`
	Imputed             map[string]int `json:"imputed,omitempty"`
	EmptyColumns        []string       `json:"empty_columns,omitempty"`
}

// NewManifest summarizes ds for the artifacts described by opts.
func NewManifest(ds *dataset.Dataset, opts Options) *Manifest {
	positives := ds.Positives()
	return &Manifest{
		CreatedAt:           time.Now().UTC(),
		ToolVersion:         version.GetVersion(),
		Format:              opts.Format,
		FeaturesPath:        opts.FeaturesPath,
		LabelsPath:          opts.LabelsPath,
		Columns:             ds.Columns,
		Rows:                ds.Len(),
		Positives:           positives,
		Negatives:           ds.Len() - positives,
		InputMatches:        ds.Report.Input,
		UnmappedArchetype:   ds.Report.UnmappedArchetype,
		MissingDeckFeatures: ds.Report.MissingDeckFeatures,
		Imputed:             ds.Report.Imputed,
		EmptyColumns:        ds.Report.EmptyColumns,
	}
}

func (w *DatasetWriter) writeManifest(ds *dataset.Dataset) error {
	output, err := json.MarshalIndent(NewManifest(ds, w.opts), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal JSON: %w", ErrWriteFailure, err)
	}

	write := func(out io.Writer) error {
		_, err := out.Write(output)
		return err
	}
	tmp, err := w.stage(w.opts.ManifestPath, write)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, w.opts.ManifestPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: failed to move manifest into place: %w", ErrWriteFailure, err)
	}
	return nil
}

// ReadManifest loads a manifest written by DatasetWriter.
func ReadManifest(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return &m, nil
}
