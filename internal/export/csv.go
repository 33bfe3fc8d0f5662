package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ramonehamilton/cr-analysis/internal/dataset"
)

const matchIDHeader = "match_id"

// writeFeaturesCSV writes one row per match, keyed by match id.
func writeFeaturesCSV(w io.Writer, ds *dataset.Dataset) error {
	writer := csv.NewWriter(w)

	header := append([]string{matchIDHeader}, ds.Columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, values := range ds.Features {
		row := make([]string, 0, len(values)+1)
		row = append(row, strconv.FormatInt(ds.MatchIDs[i], 10))
		for _, v := range values {
			row = append(row, valueToString(v))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeLabelsCSV(w io.Writer, ds *dataset.Dataset) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{matchIDHeader, "label"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, label := range ds.Labels {
		row := []string{strconv.FormatInt(ds.MatchIDs[i], 10), strconv.FormatInt(label, 10)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// valueToString formats a matrix value without losing precision.
func valueToString(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
