package valuation_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/valuation-engine/valuation"
)

// =============================================================================
// GRID SHAPE AND ISOLATION
// =============================================================================

func TestBuildGrid_ExactDimensions(t *testing.T) {
	rows := valuation.Linspace(0.01, 0.10, 10)
	cols := valuation.Linspace(0.11, 0.15, 4)
	grid, err := valuation.BuildGrid(valuation.IntrinsicValue, baseDCF(),
		valuation.DCFGrowthAxis(rows), valuation.DCFDiscountAxis(cols))
	require.NoError(t, err)

	r, c := grid.Dimensions()
	assert.Equal(t, 10, r)
	assert.Equal(t, 4, c)
	require.Len(t, grid.Cells, 10)
	for _, row := range grid.Cells {
		assert.Len(t, row, 4)
	}
	assert.Equal(t, 0, grid.InvalidCount())
	assert.Equal(t, "growth", grid.RowName)
	assert.Equal(t, "discount", grid.ColName)
}

func TestBuildGrid_BadCellDoesNotInvalidateSiblings(t *testing.T) {
	// GIVEN: a sweep that crosses r == g and r < g
	// WHEN: the grid is built
	// THEN: only those cells are invalid, the rest carry values
	growth := []float64{0.02, 0.03, 0.04}
	discount := []float64{0.03, 0.08}
	grid, err := valuation.BuildGrid(valuation.IntrinsicValue, baseDCF(),
		valuation.DCFGrowthAxis(growth), valuation.DCFDiscountAxis(discount))
	require.NoError(t, err)

	assert.True(t, grid.Cells[0][0].Valid)
	assert.False(t, grid.Cells[1][0].Valid)
	assert.ErrorIs(t, grid.Cells[1][0].Err, valuation.ErrDegenerateRate)
	assert.False(t, grid.Cells[2][0].Valid)
	for i := range growth {
		assert.True(t, grid.Cells[i][1].Valid, "row %d", i)
	}
	assert.Equal(t, 2, grid.InvalidCount())

	rounded := grid.Rounded()
	assert.Nil(t, rounded[1][0])
	require.NotNil(t, rounded[0][1])
	assert.True(t, rounded[0][1].Equal(valuation.Round(grid.Cells[0][1].Value)))
}

func TestBuildGrid_MatchesDirectValuation(t *testing.T) {
	base := valuation.BondYearsInput{FaceValue: 1000, CouponRate: 0.05, YieldRate: 0.05, Years: 10}
	grid, err := valuation.BuildGrid(valuation.BondYearsPrice, base,
		valuation.BondYearsYieldAxis([]float64{0.04, 0.06}),
		valuation.BondYearsAxis([]float64{5, 10}))
	require.NoError(t, err)

	direct, err := valuation.BondYearsPrice(valuation.BondYearsInput{FaceValue: 1000, CouponRate: 0.05, YieldRate: 0.06, Years: 5})
	require.NoError(t, err)
	assert.Equal(t, direct, grid.Cells[1][0].Value)

	// base parameters are untouched
	assert.Equal(t, 0.05, base.YieldRate)
	assert.Equal(t, 10, base.Years)
}

func TestBuildGrid_OverflowAborts(t *testing.T) {
	base := valuation.TVMInput{Kind: valuation.CalcFutureValue, Amount: 1e308, Rate: 1, Periods: 1}
	_, err := valuation.BuildGrid(valuation.Evaluate, base,
		valuation.TVMRateAxis([]float64{0.5, 1}),
		valuation.TVMPeriodsAxis([]float64{1, 10}))
	assert.ErrorIs(t, err, valuation.ErrOverflow)
}

func TestBuildGrid_EmptyAxis(t *testing.T) {
	grid, err := valuation.BuildGrid(valuation.DividendValue,
		valuation.DividendInput{LastDividend: 1, Growth: 0.02, Discount: 0.08},
		valuation.DividendGrowthAxis(nil), valuation.DividendDiscountAxis([]float64{0.1}))
	require.NoError(t, err)
	r, c := grid.Dimensions()
	assert.Equal(t, 0, r)
	assert.Equal(t, 1, c)
}

func TestBuildSeries(t *testing.T) {
	series, err := valuation.BuildSeries(valuation.DividendValue,
		valuation.DividendInput{LastDividend: 2, Growth: 0.05, Discount: 0.10},
		valuation.DividendGrowthAxis([]float64{0.05, 0.10, 0.12}))
	require.NoError(t, err)
	require.Len(t, series.Cells, 3)
	assert.InDelta(t, 42.0, series.Cells[0].Value, 1e-9)
	assert.ErrorIs(t, series.Cells[1].Err, valuation.ErrDegenerateRate)
	assert.False(t, series.Cells[2].Valid)
}

// =============================================================================
// AXIS VALUES
// =============================================================================

func TestRange_InclusiveOfStop(t *testing.T) {
	values, err := valuation.Range(0.01, 0.05, 0.01)
	require.NoError(t, err)
	require.Len(t, values, 5)
	assert.InDelta(t, 0.05, values[4], 1e-12)

	years, err := valuation.Range(1, 30, 1)
	require.NoError(t, err)
	assert.Len(t, years, 30)

	_, err = valuation.Range(0.05, 0.01, 0.01)
	assert.ErrorIs(t, err, valuation.ErrInvalidInput)
	_, err = valuation.Range(0, 1, 0)
	assert.ErrorIs(t, err, valuation.ErrInvalidInput)
}

func TestRange_ExactDecimalSteps(t *testing.T) {
	values, err := valuation.Range(0.01, 0.10, 0.01)
	require.NoError(t, err)
	require.Len(t, values, 10)
	assert.Equal(t, []float64{0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08, 0.09, 0.1}, values)

	yields, err := valuation.Range(0.055, 0.075, 0.005)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.055, 0.06, 0.065, 0.07, 0.075}, yields)
}

func TestRangeCount_RejectsHugeAndNonFinite(t *testing.T) {
	tests := []struct {
		name              string
		start, stop, step float64
	}{
		{"overflowing count", 0, 1e300, 1e-300},
		{"above series cap", 0, valuation.MaxSeriesPoints, 1},
		{"infinite stop", 0, math.Inf(1), 1},
		{"nan step", 0, 1, math.NaN()},
		{"negative step", 0, 1, -0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := valuation.RangeCount(tt.start, tt.stop, tt.step)
			assert.ErrorIs(t, err, valuation.ErrInvalidInput)

			values, err := valuation.Range(tt.start, tt.stop, tt.step)
			assert.ErrorIs(t, err, valuation.ErrInvalidInput)
			assert.Nil(t, values)
		})
	}

	n, err := valuation.RangeCount(1, 30, 1)
	require.NoError(t, err)
	assert.Equal(t, 30, n)
}

func TestLinspace(t *testing.T) {
	values := valuation.Linspace(0.05, 0.15, 10)
	require.Len(t, values, 10)
	assert.Equal(t, 0.05, values[0])
	assert.Equal(t, 0.15, values[9])
	assert.Nil(t, valuation.Linspace(0, 1, 0))
	assert.Equal(t, []float64{3}, valuation.Linspace(3, 9, 1))
	assert.Nil(t, valuation.Linspace(0, 1, valuation.MaxSeriesPoints+1))
	assert.Nil(t, valuation.Linspace(0, 1, 1<<62))
}
