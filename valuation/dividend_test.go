package valuation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/valuation-engine/valuation"
)

// =============================================================================
// CONSTANT GROWTH MODEL
// =============================================================================

func TestDividendValue_KnownValue(t *testing.T) {
	// D0 = 2, g = 5%, R = 10% -> 2 * 1.05 / 0.05 = 42
	v, err := valuation.DividendValue(valuation.DividendInput{LastDividend: 2, Growth: 0.05, Discount: 0.10})
	require.NoError(t, err)
	assert.InDelta(t, 42.0, v, 1e-9)
}

func TestDividendValue_DegenerateRates(t *testing.T) {
	tests := []struct {
		name     string
		growth   float64
		discount float64
	}{
		{"equal", 0.05, 0.05},
		{"growth above discount", 0.08, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := valuation.DividendValue(valuation.DividendInput{LastDividend: 1, Growth: tt.growth, Discount: tt.discount})
			require.ErrorIs(t, err, valuation.ErrDegenerateRate)

			var dre *valuation.DegenerateRateError
			require.True(t, errors.As(err, &dre))
			assert.Equal(t, tt.discount, dre.Discount)
			assert.Equal(t, tt.growth, dre.Growth)
		})
	}
}

func TestDividendValue_NegativeGrowthAllowed(t *testing.T) {
	v, err := valuation.DividendValue(valuation.DividendInput{LastDividend: 1, Growth: -0.02, Discount: 0.08})
	require.NoError(t, err)
	assert.InDelta(t, 0.98/0.10, v, 1e-12)

	_, err = valuation.DividendValue(valuation.DividendInput{LastDividend: 1, Growth: -1, Discount: 0.08})
	assert.ErrorIs(t, err, valuation.ErrInvalidRate)
}

func TestCostOfEquity(t *testing.T) {
	assert.InDelta(t, 0.10, valuation.CostOfEquity(0.04, 1.2, 0.09), 1e-12)
	assert.InDelta(t, 0.07, valuation.RequiredReturnFromYield(0.03, 0.04), 1e-12)
}

// =============================================================================
// GROWTH DERIVATION
// =============================================================================

func TestTrailingGrowth(t *testing.T) {
	// Compares series[len-4] with the latest entry.
	g, err := valuation.TrailingGrowth([]float64{9, 1, 2, 3, 4}, false)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, g, 1e-12)

	q, err := valuation.TrailingGrowth([]float64{1, 1, 1, 1.1}, true)
	require.NoError(t, err)
	assert.InDelta(t, 0.4641, q, 1e-9)
}

func TestTrailingGrowth_InsufficientHistory(t *testing.T) {
	_, err := valuation.TrailingGrowth([]float64{1, 2, 3}, false)
	require.ErrorIs(t, err, valuation.ErrInsufficientHistory)

	var ihe *valuation.InsufficientHistoryError
	require.True(t, errors.As(err, &ihe))
	assert.Equal(t, 3, ihe.Have)
	assert.Equal(t, valuation.TrailingWindow, ihe.Need)

	_, err = valuation.TrailingGrowth([]float64{0, 1, 1, 1}, false)
	assert.ErrorIs(t, err, valuation.ErrInvalidInput)
}

func TestAnnualTotalsAndAverageGrowth(t *testing.T) {
	payments := []valuation.DividendPayment{
		{Date: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), Amount: 0.5},
		{Date: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), Amount: 1.0},
		{Date: time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC), Amount: 0.6},
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: 1.21},
	}
	totals := valuation.AnnualTotals(payments)
	require.Len(t, totals, 3)
	assert.Equal(t, 2022, totals[0].Year)
	assert.Equal(t, 2024, totals[2].Year)
	assert.InDelta(t, 1.1, totals[1].Total, 1e-12)

	g, err := valuation.AverageAnnualGrowth(totals)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, g, 1e-9)

	d0, err := valuation.LatestAnnualDividend(totals)
	require.NoError(t, err)
	assert.Equal(t, 1.21, d0)

	_, err = valuation.AverageAnnualGrowth(totals[:1])
	assert.ErrorIs(t, err, valuation.ErrInsufficientHistory)

	_, err = valuation.LatestAnnualDividend(nil)
	assert.ErrorIs(t, err, valuation.ErrMissingMarketDatum)
}
