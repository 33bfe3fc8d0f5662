package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func column(values ...float64) [][]float64 {
	m := make([][]float64, len(values))
	for i, v := range values {
		m[i] = []float64{v}
	}
	return m
}

func TestImpute_Median(t *testing.T) {
	out, fills, err := Impute(column(10, nan, 30), StrategyMedian, 0)
	require.NoError(t, err)

	assert.Equal(t, column(10, 20, 30), out)
	require.Len(t, fills, 1)
	assert.Equal(t, ColumnFill{Column: 0, Value: 20, Missing: 1}, fills[0])
}

func TestImpute_MedianOddCount(t *testing.T) {
	out, _, err := Impute(column(5, 1, nan, 9), StrategyMedian, 0)
	require.NoError(t, err)

	assert.Equal(t, column(5, 1, 5, 9), out)
}

func TestImpute_Mean(t *testing.T) {
	out, _, err := Impute(column(1, 2, nan, 6), StrategyMean, 0)
	require.NoError(t, err)

	assert.Equal(t, column(1, 2, 3, 6), out)
}

func TestImpute_Constant(t *testing.T) {
	out, _, err := Impute(column(1, nan), StrategyConstant, -1)
	require.NoError(t, err)

	assert.Equal(t, column(1, -1), out)
}

func TestImpute_IdempotentWithoutMissing(t *testing.T) {
	in := [][]float64{{1, 4000}, {3, 5000}, {2, 4500}}

	out, fills, err := Impute(in, StrategyMedian, 0)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Empty(t, fills)

	again, _, err := Impute(out, StrategyMedian, 0)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestImpute_DoesNotMutateInput(t *testing.T) {
	in := column(10, nan, 30)

	_, _, err := Impute(in, StrategyMedian, 0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(in[1][0]))
}

func TestImpute_FillComputedOncePerColumn(t *testing.T) {
	in := [][]float64{
		{1, nan},
		{nan, 10},
		{3, nan},
		{nan, 30},
	}

	out, fills, err := Impute(in, StrategyMedian, 0)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{1, 20}, {2, 10}, {3, 20}, {2, 30}}, out)
	assert.Len(t, fills, 2)
}

func TestImpute_EmptyColumn(t *testing.T) {
	out, fills, err := Impute(column(nan, nan), StrategyMedian, 0)
	require.NoError(t, err)

	assert.Equal(t, column(0, 0), out)
	require.Len(t, fills, 1)
	assert.True(t, fills[0].Empty)
}

func TestImpute_Errors(t *testing.T) {
	_, _, err := Impute(column(1), Strategy("mode"), 0)
	assert.Error(t, err)

	_, _, err = Impute([][]float64{{1, 2}, {3}}, StrategyMedian, 0)
	assert.Error(t, err)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 20.0, Median([]float64{30, 10}))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.True(t, math.IsNaN(Median(nil)))
}
