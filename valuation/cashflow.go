/*
cashflow.go - Discounted free cash flow valuation

PURPOSE:
  Projects free cash flow from a base year, capitalizes the final forecast
  year with the Gordon growth formula and discounts everything back at the
  cost of capital (WACC).

SINGLE STAGE:
  FCF_t     = FCF0 * (1+g)^t                         t = 1..N
  TV        = FCF_N / (r - g)                        requires r > g
  Intrinsic = sum FCF_t / (1+r)^t + TV / (1+r)^N

TWO STAGE:
  Built from the same steps:
    1. forecast   - N1 years at the high growth rate g1
    2. terminal   - N2 = 0: capitalize FCF_N1 at g1 (identical to single stage)
                    N2 > 0: apply g2 once to the final-year cash flow,
                            FCF_N1 * (1+g2), and capitalize at g2
    3. discount   - ConventionFolded (default) folds the terminal block into
                    year N1, so N2 only switches the terminal phase on;
                    ConventionDeferred discounts the same block N1+N2 periods.

  Only the terminal growth rate has to stay below r; the high-growth phase
  may exceed it.

SEE ALSO:
  - grid.go: DCFGrowthAxis / DCFDiscountAxis sweeps
*/
package valuation

import (
	"fmt"
	"math"
)

// =============================================================================
// INPUTS / RESULTS
// =============================================================================

// CashFlowInput is the single-stage parameter set.
type CashFlowInput struct {
	BaseCashFlow float64 // FCF0, the current period's free cash flow
	Growth       float64 // g
	Discount     float64 // r, typically WACC
	Horizon      int     // N forecast periods
}

// TerminalConvention selects how far the terminal block is discounted.
type TerminalConvention string

const (
	ConventionFolded   TerminalConvention = "folded"
	ConventionDeferred TerminalConvention = "deferred"
)

// TwoStageInput is the two-stage parameter set.
type TwoStageInput struct {
	BaseCashFlow    float64
	Discount        float64
	HighGrowth      float64 // g1
	HighGrowthYears int     // N1
	TerminalGrowth  float64 // g2
	TerminalYears   int     // N2, 0 reduces to single stage; otherwise the deferral under ConventionDeferred
	Convention      TerminalConvention
}

// CashFlowResult carries the full forecast alongside the value.
type CashFlowResult struct {
	Forecast         []float64 // FCF_1..FCF_N
	PresentValues    []float64 // FCF_t / (1+r)^t
	PVForecast       float64
	TerminalCashFlow float64 // cash flow capitalized into TV
	TerminalGrowth   float64 // growth rate used in the TV denominator
	TerminalValue    float64
	PVTerminal       float64
	IntrinsicValue   float64
}

// =============================================================================
// STEPS
// =============================================================================

// Forecast compounds base at g for periods 1..n.
func Forecast(base, g float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("forecast horizon %d: %w", n, ErrInvalidPeriod)
	}
	if err := checkGrowthRate("growth rate", g); err != nil {
		return nil, err
	}
	series := make([]float64, n)
	for t := 1; t <= n; t++ {
		series[t-1] = base * math.Pow(1+g, float64(t))
	}
	return series, nil
}

// TerminalValue capitalizes a cash flow as a growing perpetuity: cf / (r - g).
func TerminalValue(cashFlow, r, g float64) (float64, error) {
	if r <= g {
		return 0, &DegenerateRateError{Model: "terminal value", Discount: r, Growth: g}
	}
	return checkFinite("terminal value", cashFlow/(r-g))
}

// terminalStep picks the cash flow and growth rate the perpetuity starts from.
// g2 is applied to the final-year cash flow once, however long the deferral.
func terminalStep(finalCashFlow, stageGrowth, terminalGrowth float64, terminalYears int) (float64, float64) {
	if terminalYears == 0 {
		return finalCashFlow, stageGrowth
	}
	return finalCashFlow * (1 + terminalGrowth), terminalGrowth
}

func discountSeries(series []float64, r float64) ([]float64, float64) {
	pvs := make([]float64, len(series))
	var total float64
	for i, cf := range series {
		pvs[i] = cf / math.Pow(1+r, float64(i+1))
		total += pvs[i]
	}
	return pvs, total
}

// =============================================================================
// VALUERS
// =============================================================================

// DiscountedCashFlow values a single-stage forecast.
func DiscountedCashFlow(in CashFlowInput) (CashFlowResult, error) {
	return TwoStage(TwoStageInput{
		BaseCashFlow:    in.BaseCashFlow,
		Discount:        in.Discount,
		HighGrowth:      in.Growth,
		HighGrowthYears: in.Horizon,
	})
}

// IntrinsicValue is DiscountedCashFlow shaped as a grid valuer.
func IntrinsicValue(in CashFlowInput) (float64, error) {
	res, err := DiscountedCashFlow(in)
	if err != nil {
		return 0, err
	}
	return res.IntrinsicValue, nil
}

// TwoStage values a high-growth forecast followed by a terminal-growth phase.
func TwoStage(in TwoStageInput) (CashFlowResult, error) {
	if in.TerminalYears < 0 {
		return CashFlowResult{}, fmt.Errorf("terminal years %d: %w", in.TerminalYears, ErrInvalidPeriod)
	}
	if err := checkDiscountRate("discount rate", in.Discount); err != nil {
		return CashFlowResult{}, err
	}
	if in.TerminalYears > 0 {
		if err := checkGrowthRate("terminal growth rate", in.TerminalGrowth); err != nil {
			return CashFlowResult{}, err
		}
	}

	forecast, err := Forecast(in.BaseCashFlow, in.HighGrowth, in.HighGrowthYears)
	if err != nil {
		return CashFlowResult{}, err
	}
	pvs, pvForecast := discountSeries(forecast, in.Discount)

	terminalCF, terminalGrowth := terminalStep(forecast[len(forecast)-1], in.HighGrowth, in.TerminalGrowth, in.TerminalYears)
	tv, err := TerminalValue(terminalCF, in.Discount, terminalGrowth)
	if err != nil {
		return CashFlowResult{}, err
	}

	periods := in.HighGrowthYears
	switch in.Convention {
	case "", ConventionFolded:
	case ConventionDeferred:
		periods += in.TerminalYears
	default:
		return CashFlowResult{}, fmt.Errorf("terminal convention %q: %w", in.Convention, ErrInvalidInput)
	}
	pvTerminal := tv / math.Pow(1+in.Discount, float64(periods))

	intrinsic, err := checkFinite("intrinsic value", pvForecast+pvTerminal)
	if err != nil {
		return CashFlowResult{}, err
	}
	return CashFlowResult{
		Forecast:         forecast,
		PresentValues:    pvs,
		PVForecast:       pvForecast,
		TerminalCashFlow: terminalCF,
		TerminalGrowth:   terminalGrowth,
		TerminalValue:    tv,
		PVTerminal:       pvTerminal,
		IntrinsicValue:   intrinsic,
	}, nil
}

// TwoStageValue is TwoStage shaped as a grid valuer.
func TwoStageValue(in TwoStageInput) (float64, error) {
	res, err := TwoStage(in)
	if err != nil {
		return 0, err
	}
	return res.IntrinsicValue, nil
}
