package export

import (
	"fmt"
	"io"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/ramonehamilton/cr-analysis/internal/dataset"
)

func writeFeaturesNPY(w io.Writer, ds *dataset.Dataset) error {
	data := make([]float64, 0, ds.Len()*len(ds.Columns))
	for _, row := range ds.Features {
		data = append(data, row...)
	}
	m := mat.NewDense(ds.Len(), len(ds.Columns), data)
	return npyio.Write(w, m)
}

func writeLabelsNPY(w io.Writer, ds *dataset.Dataset) error {
	return npyio.Write(w, ds.Labels)
}

// ReadDataset loads a feature matrix and label vector written by
// DatasetWriter in npy format.
func ReadDataset(featuresPath, labelsPath string) ([][]float64, []int64, error) {
	var m mat.Dense
	if err := readNPY(featuresPath, &m); err != nil {
		return nil, nil, err
	}
	var labels []int64
	if err := readNPY(labelsPath, &labels); err != nil {
		return nil, nil, err
	}

	rows, cols := m.Dims()
	if rows != len(labels) {
		return nil, nil, fmt.Errorf("%s has %d rows but %s has %d labels", featuresPath, rows, labelsPath, len(labels))
	}

	features := make([][]float64, rows)
	for i := range features {
		features[i] = make([]float64, cols)
		copy(features[i], m.RawRowView(i))
	}
	return features, labels, nil
}

func readNPY(path string, ptr interface{}) (err error) {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := npyio.Read(file, ptr); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// Verify reloads the npy artifacts and checks them against ds.
func Verify(ds *dataset.Dataset, featuresPath, labelsPath string) error {
	features, labels, err := ReadDataset(featuresPath, labelsPath)
	if err != nil {
		return err
	}
	if len(labels) != ds.Len() {
		return fmt.Errorf("reloaded %d rows, wrote %d", len(labels), ds.Len())
	}
	for i := range labels {
		if labels[i] != ds.Labels[i] {
			return fmt.Errorf("label %d: reloaded %d, wrote %d", i, labels[i], ds.Labels[i])
		}
		if len(features[i]) != len(ds.Features[i]) {
			return fmt.Errorf("row %d: reloaded %d columns, wrote %d", i, len(features[i]), len(ds.Features[i]))
		}
		for j, v := range features[i] {
			if v != ds.Features[i][j] {
				return fmt.Errorf("row %d column %s: reloaded %v, wrote %v", i, ds.Columns[j], v, ds.Features[i][j])
			}
		}
	}
	return nil
}
