package dataset

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Strategy selects how missing numeric values are filled.
type Strategy string

const (
	// StrategyMedian fills with the column median of observed values.
	StrategyMedian Strategy = "median"
	// StrategyMean fills with the column mean of observed values.
	StrategyMean Strategy = "mean"
	// StrategyConstant fills with a configured value.
	StrategyConstant Strategy = "constant"
)

// ParseStrategy validates an imputation strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyMedian, StrategyMean, StrategyConstant:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown imputation strategy %q", s)
	}
}

// ColumnFill records the value used for one column.
type ColumnFill struct {
	Column  int
	Value   float64
	Missing int
	// Empty is set when the column had no observed value and was filled with 0.
	Empty bool
}

// IsMissing reports whether v is a missing value.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Impute returns a copy of matrix with every missing value replaced.
// Fill values are computed once per column over all rows, then applied.
// Columns without missing values are copied unchanged.
func Impute(matrix [][]float64, strategy Strategy, fill float64) ([][]float64, []ColumnFill, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, nil, err
	}

	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = append([]float64(nil), row...)
	}
	if len(matrix) == 0 {
		return out, nil, nil
	}

	width := len(matrix[0])
	for i, row := range matrix {
		if len(row) != width {
			return nil, nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), width)
		}
	}

	var fills []ColumnFill
	for col := 0; col < width; col++ {
		observed := make([]float64, 0, len(matrix))
		missing := 0
		for _, row := range matrix {
			if IsMissing(row[col]) {
				missing++
				continue
			}
			observed = append(observed, row[col])
		}
		if missing == 0 {
			continue
		}

		cf := ColumnFill{Column: col, Missing: missing}
		switch {
		case strategy == StrategyConstant:
			cf.Value = fill
		case len(observed) == 0:
			cf.Empty = true
		case strategy == StrategyMean:
			cf.Value = stat.Mean(observed, nil)
		default:
			cf.Value = Median(observed)
		}

		for _, row := range out {
			if IsMissing(row[col]) {
				row[col] = cf.Value
			}
		}
		fills = append(fills, cf)
	}

	return out, fills, nil
}

// Median returns the median of values, averaging the two middle values for
// an even count. It returns NaN for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
