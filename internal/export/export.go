package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ramonehamilton/cr-analysis/internal/dataset"
)

// Format represents the artifact format.
type Format string

const (
	// FormatNPY writes NumPy .npy arrays.
	FormatNPY Format = "npy"
	// FormatCSV writes comma separated files for inspection.
	FormatCSV Format = "csv"
)

// ErrWriteFailure wraps every failure to persist an artifact.
var ErrWriteFailure = errors.New("write failure")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatNPY, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Options holds configuration for dataset export.
type Options struct {
	Format       Format
	FeaturesPath string
	LabelsPath   string
	// ManifestPath is optional. When set, a JSON manifest is written after
	// both artifacts succeed.
	ManifestPath string
	Overwrite    bool
}

// DefaultOptions returns npy artifacts named the way downstream training
// scripts expect them, inside dir.
func DefaultOptions(dir string) Options {
	return Options{
		Format:       FormatNPY,
		FeaturesPath: filepath.Join(dir, "X_train.npy"),
		LabelsPath:   filepath.Join(dir, "y_train.npy"),
		Overwrite:    true,
	}
}

// DatasetWriter persists an assembled dataset.
type DatasetWriter struct {
	opts Options
}

// NewDatasetWriter creates a new DatasetWriter with the given options.
func NewDatasetWriter(opts Options) *DatasetWriter {
	return &DatasetWriter{opts: opts}
}

// Options returns the writer's configuration.
func (w *DatasetWriter) Options() Options {
	return w.opts
}

// Write persists the feature matrix and label vector. Both artifacts are
// staged in temporary files next to their targets and renamed into place
// only after both were written.
func (w *DatasetWriter) Write(ds *dataset.Dataset) error {
	if err := checkDataset(ds); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	if w.opts.FeaturesPath == "" || w.opts.LabelsPath == "" {
		return fmt.Errorf("%w: features and labels paths are required", ErrWriteFailure)
	}

	var writeFeatures, writeLabels func(io.Writer) error
	switch w.opts.Format {
	case FormatNPY:
		writeFeatures = func(out io.Writer) error { return writeFeaturesNPY(out, ds) }
		writeLabels = func(out io.Writer) error { return writeLabelsNPY(out, ds) }
	case FormatCSV:
		writeFeatures = func(out io.Writer) error { return writeFeaturesCSV(out, ds) }
		writeLabels = func(out io.Writer) error { return writeLabelsCSV(out, ds) }
	default:
		return fmt.Errorf("%w: unsupported export format: %s", ErrWriteFailure, w.opts.Format)
	}

	featuresTmp, err := w.stage(w.opts.FeaturesPath, writeFeatures)
	if err != nil {
		return err
	}
	labelsTmp, err := w.stage(w.opts.LabelsPath, writeLabels)
	if err != nil {
		_ = os.Remove(featuresTmp)
		return err
	}

	if err := os.Rename(featuresTmp, w.opts.FeaturesPath); err != nil {
		_ = os.Remove(featuresTmp)
		_ = os.Remove(labelsTmp)
		return fmt.Errorf("%w: failed to move features into place: %w", ErrWriteFailure, err)
	}
	if err := os.Rename(labelsTmp, w.opts.LabelsPath); err != nil {
		_ = os.Remove(labelsTmp)
		return fmt.Errorf("%w: failed to move labels into place: %w", ErrWriteFailure, err)
	}

	if w.opts.ManifestPath != "" {
		if err := w.writeManifest(ds); err != nil {
			return err
		}
	}
	return nil
}

// stage writes an artifact to a temporary file in the directory of path and
// returns the temporary file's name.
func (w *DatasetWriter) stage(path string, write func(io.Writer) error) (name string, err error) {
	file, err := w.createFile(path)
	if err != nil {
		return "", err
	}
	name = file.Name()
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: %s: %w", ErrWriteFailure, path, closeErr)
		}
		if err != nil {
			_ = os.Remove(name)
			name = ""
		}
	}()

	if err := write(file); err != nil {
		return name, fmt.Errorf("%w: %s: %w", ErrWriteFailure, path, err)
	}
	if err := file.Sync(); err != nil {
		return name, fmt.Errorf("%w: %s: %w", ErrWriteFailure, path, err)
	}
	return name, nil
}

// createFile creates a temporary file next to path, handling overwrite
// settings.
func (w *DatasetWriter) createFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory: %w", ErrWriteFailure, err)
	}

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrWriteFailure, path)
		}
		if !w.opts.Overwrite {
			return nil, fmt.Errorf("%w: file already exists: %s (use overwrite option to replace)", ErrWriteFailure, path)
		}
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create file: %w", ErrWriteFailure, err)
	}
	return file, nil
}

func checkDataset(ds *dataset.Dataset) error {
	if ds == nil || ds.Len() == 0 {
		return dataset.ErrEmptyDataset
	}
	if len(ds.Features) != len(ds.Labels) {
		return fmt.Errorf("%d feature rows but %d labels", len(ds.Features), len(ds.Labels))
	}
	for i, row := range ds.Features {
		if len(row) != len(ds.Columns) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(ds.Columns))
		}
	}
	return nil
}
