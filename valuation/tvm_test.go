package valuation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/valuation-engine/valuation"
)

// =============================================================================
// SINGLE SUMS
// =============================================================================

func TestFutureValue_KnownValue(t *testing.T) {
	// GIVEN: 1000 at 5% for 10 periods
	// THEN: 1628.89 after rounding
	fv, err := valuation.FutureValue(1000, 0.05, 10)
	require.NoError(t, err)
	assert.Equal(t, "1628.89", valuation.Round(fv).StringFixed(2))
}

func TestPresentValue_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pv   float64
		rate float64
		n    int
	}{
		{"zero rate", 500, 0, 7},
		{"five percent", 1000, 0.05, 10},
		{"high rate", 250, 0.35, 4},
		{"rate above one", 10, 1.5, 3},
		{"zero periods", 42, 0.08, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv, err := valuation.FutureValue(tt.pv, tt.rate, tt.n)
			require.NoError(t, err)
			back, err := valuation.PresentValue(fv, tt.rate, tt.n)
			require.NoError(t, err)
			assert.InDelta(t, tt.pv, back, 1e-9)
		})
	}
}

func TestSingleSum_ZeroPeriodsIsIdentity(t *testing.T) {
	fv, err := valuation.FutureValue(123.45, 0.07, 0)
	require.NoError(t, err)
	assert.Equal(t, 123.45, fv)
}

func TestSingleSum_InvalidInputs(t *testing.T) {
	_, err := valuation.FutureValue(100, 0.05, -1)
	assert.ErrorIs(t, err, valuation.ErrInvalidPeriod)

	_, err = valuation.PresentValue(100, -0.01, 5)
	assert.ErrorIs(t, err, valuation.ErrInvalidRate)
}

// =============================================================================
// ANNUITIES
// =============================================================================

func TestAnnuities_KnownValues(t *testing.T) {
	fva, err := valuation.FutureValueAnnuity(100, 0.05, 10)
	require.NoError(t, err)
	assert.Equal(t, "1257.79", valuation.Round(fva).StringFixed(2))

	pva, err := valuation.PresentValueAnnuity(100, 0.05, 10)
	require.NoError(t, err)
	assert.Equal(t, "772.17", valuation.Round(pva).StringFixed(2))
}

func TestAnnuities_ZeroRateIsPaymentTimesPeriods(t *testing.T) {
	for _, n := range []int{1, 5, 30} {
		fva, err := valuation.FutureValueAnnuity(250, 0, n)
		require.NoError(t, err)
		assert.Equal(t, 250*float64(n), fva)

		pva, err := valuation.PresentValueAnnuity(250, 0, n)
		require.NoError(t, err)
		assert.Equal(t, 250*float64(n), pva)
	}
}

func TestAnnuities_RequireAtLeastOnePeriod(t *testing.T) {
	_, err := valuation.FutureValueAnnuity(100, 0.05, 0)
	assert.ErrorIs(t, err, valuation.ErrInvalidPeriod)

	_, err = valuation.PresentValueAnnuity(100, 0.05, -3)
	assert.ErrorIs(t, err, valuation.ErrInvalidPeriod)
}

func TestFutureValue_OverflowIsReported(t *testing.T) {
	_, err := valuation.FutureValue(1e308, 1, 10)
	assert.ErrorIs(t, err, valuation.ErrOverflow)
	assert.True(t, valuation.IsUnrecoverable(err))
	assert.False(t, valuation.IsClientError(err))
}

// =============================================================================
// DISPATCH
// =============================================================================

func TestEvaluate_DispatchesByKind(t *testing.T) {
	for _, kind := range valuation.Calculations {
		t.Run(string(kind), func(t *testing.T) {
			v, err := valuation.Evaluate(valuation.TVMInput{Kind: kind, Amount: 100, Rate: 0, Periods: 4})
			require.NoError(t, err)
			if kind == valuation.CalcFutureValue || kind == valuation.CalcPresentValue {
				assert.Equal(t, 100.0, v)
			} else {
				assert.Equal(t, 400.0, v)
			}
		})
	}

	_, err := valuation.Evaluate(valuation.TVMInput{Kind: "perpetuity"})
	assert.ErrorIs(t, err, valuation.ErrInvalidInput)
}

func TestParseCalculation(t *testing.T) {
	c, err := valuation.ParseCalculation("present_value_annuity")
	require.NoError(t, err)
	assert.Equal(t, valuation.CalcPresentValueAnnuity, c)
	assert.Equal(t, "Present Value of Annuity", c.Label())

	_, err = valuation.ParseCalculation("PV")
	assert.ErrorIs(t, err, valuation.ErrInvalidInput)
}

func TestDiscountFactor(t *testing.T) {
	assert.InDelta(t, 1/1.1025, valuation.DiscountFactor(0.05, 2), 1e-12)
	assert.Equal(t, 1.0, valuation.DiscountFactor(0.05, 0))
}
