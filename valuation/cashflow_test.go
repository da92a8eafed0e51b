package valuation_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/valuation-engine/valuation"
)

func baseDCF() valuation.CashFlowInput {
	return valuation.CashFlowInput{BaseCashFlow: 100, Growth: 0.03, Discount: 0.08, Horizon: 5}
}

// =============================================================================
// SINGLE STAGE
// =============================================================================

func TestDiscountedCashFlow_ComponentsSumToIntrinsic(t *testing.T) {
	res, err := valuation.DiscountedCashFlow(baseDCF())
	require.NoError(t, err)

	require.Len(t, res.Forecast, 5)
	assert.InDelta(t, 103.0, res.Forecast[0], 1e-9)
	assert.InDelta(t, 100*math.Pow(1.03, 5), res.Forecast[4], 1e-9)

	tv := res.Forecast[4] / (0.08 - 0.03)
	assert.InDelta(t, tv, res.TerminalValue, 1e-9)
	assert.InDelta(t, tv/math.Pow(1.08, 5), res.PVTerminal, 1e-9)

	var sum float64
	for _, pv := range res.PresentValues {
		sum += pv
	}
	assert.InDelta(t, sum, res.PVForecast, 1e-9)
	assert.InDelta(t, res.PVForecast+res.PVTerminal, res.IntrinsicValue, 1e-9)
	assert.False(t, math.IsInf(res.IntrinsicValue, 0))
	assert.Greater(t, res.IntrinsicValue, 0.0)
}

func TestDiscountedCashFlow_DegenerateWhenDiscountEqualsGrowth(t *testing.T) {
	in := baseDCF()
	in.Discount = 0.03
	_, err := valuation.IntrinsicValue(in)
	assert.ErrorIs(t, err, valuation.ErrDegenerateRate)
}

func TestDiscountedCashFlow_InvalidHorizon(t *testing.T) {
	in := baseDCF()
	in.Horizon = 0
	_, err := valuation.IntrinsicValue(in)
	assert.ErrorIs(t, err, valuation.ErrInvalidPeriod)
}

// =============================================================================
// TWO STAGE
// =============================================================================

func TestTwoStage_ZeroTerminalYearsEqualsSingleStage(t *testing.T) {
	single, err := valuation.IntrinsicValue(baseDCF())
	require.NoError(t, err)

	for _, conv := range []valuation.TerminalConvention{"", valuation.ConventionFolded, valuation.ConventionDeferred} {
		two, err := valuation.TwoStageValue(valuation.TwoStageInput{
			BaseCashFlow:    100,
			Discount:        0.08,
			HighGrowth:      0.03,
			HighGrowthYears: 5,
			TerminalGrowth:  0.01,
			TerminalYears:   0,
			Convention:      conv,
		})
		require.NoError(t, err)
		assert.InDelta(t, single, two, 1e-9, "convention %q", conv)
	}
}

func TestTwoStage_HighGrowthMayExceedDiscount(t *testing.T) {
	res, err := valuation.TwoStage(valuation.TwoStageInput{
		BaseCashFlow:    100,
		Discount:        0.09,
		HighGrowth:      0.15,
		HighGrowthYears: 5,
		TerminalGrowth:  0.03,
		TerminalYears:   2,
	})
	require.NoError(t, err)

	fcf5 := 100 * math.Pow(1.15, 5)
	assert.InDelta(t, fcf5*1.03, res.TerminalCashFlow, 1e-9)
	assert.Equal(t, 0.03, res.TerminalGrowth)
	assert.InDelta(t, res.TerminalCashFlow/0.06, res.TerminalValue, 1e-9)
	assert.InDelta(t, res.TerminalValue/math.Pow(1.09, 5), res.PVTerminal, 1e-9)
}

func TestTwoStage_TerminalGrowthAppliedOnce(t *testing.T) {
	// GIVEN: FCF0=100 growing 10% for five years into a 3% terminal phase at r=9%
	base := valuation.TwoStageInput{
		BaseCashFlow: 100, Discount: 0.09, HighGrowth: 0.10, HighGrowthYears: 5,
		TerminalGrowth: 0.03,
	}
	fcf5 := 100 * math.Pow(1.10, 5)

	// WHEN: The terminal phase is switched on with any length under the folded convention
	// THEN: g2 lifts the final-year cash flow exactly once and the value stays put
	for _, years := range []int{1, 2, 5, 20} {
		in := base
		in.TerminalYears = years
		res, err := valuation.TwoStage(in)
		require.NoError(t, err)
		assert.InDelta(t, fcf5*1.03, res.TerminalCashFlow, 1e-9, "N2=%d", years)
		assert.InDelta(t, 2310.80, res.IntrinsicValue, 0.01, "N2=%d", years)
	}
}

func TestTwoStage_DeferredValueFallsWithTerminalYears(t *testing.T) {
	in := valuation.TwoStageInput{
		BaseCashFlow: 100, Discount: 0.09, HighGrowth: 0.10, HighGrowthYears: 5,
		TerminalGrowth: 0.03, Convention: valuation.ConventionDeferred,
	}
	previous := math.Inf(1)
	for _, years := range []int{1, 2, 5, 20} {
		in.TerminalYears = years
		v, err := valuation.TwoStageValue(in)
		require.NoError(t, err)
		assert.Less(t, v, previous, "N2=%d", years)
		previous = v
	}
}

func TestTwoStage_TerminalGrowthIgnoredWithoutTerminalPhase(t *testing.T) {
	single, err := valuation.IntrinsicValue(baseDCF())
	require.NoError(t, err)

	in := valuation.TwoStageInput{
		BaseCashFlow: 100, Discount: 0.08, HighGrowth: 0.03, HighGrowthYears: 5,
		TerminalGrowth: -1.5,
	}
	v, err := valuation.TwoStageValue(in)
	require.NoError(t, err)
	assert.InDelta(t, single, v, 1e-9)

	in.TerminalYears = 1
	_, err = valuation.TwoStageValue(in)
	assert.ErrorIs(t, err, valuation.ErrInvalidRate)
}

func TestTwoStage_DeferredConventionDiscountsFurther(t *testing.T) {
	in := valuation.TwoStageInput{
		BaseCashFlow: 100, Discount: 0.09, HighGrowth: 0.10, HighGrowthYears: 5,
		TerminalGrowth: 0.03, TerminalYears: 3,
	}
	folded, err := valuation.TwoStage(in)
	require.NoError(t, err)

	in.Convention = valuation.ConventionDeferred
	deferred, err := valuation.TwoStage(in)
	require.NoError(t, err)

	assert.InDelta(t, folded.PVTerminal/math.Pow(1.09, 3), deferred.PVTerminal, 1e-9)
	assert.Less(t, deferred.IntrinsicValue, folded.IntrinsicValue)
}

func TestTwoStage_Errors(t *testing.T) {
	base := valuation.TwoStageInput{
		BaseCashFlow: 100, Discount: 0.08, HighGrowth: 0.12, HighGrowthYears: 5,
		TerminalGrowth: 0.02, TerminalYears: 1,
	}

	degenerate := base
	degenerate.TerminalGrowth = 0.08
	_, err := valuation.TwoStage(degenerate)
	assert.ErrorIs(t, err, valuation.ErrDegenerateRate)

	negative := base
	negative.TerminalYears = -1
	_, err = valuation.TwoStage(negative)
	assert.ErrorIs(t, err, valuation.ErrInvalidPeriod)

	unknown := base
	unknown.Convention = "midyear"
	_, err = valuation.TwoStage(unknown)
	assert.ErrorIs(t, err, valuation.ErrInvalidInput)
}
