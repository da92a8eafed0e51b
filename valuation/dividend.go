package valuation

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// =============================================================================
// DIVIDEND DISCOUNT MODEL - Constant growth
// =============================================================================

// DividendInput is the parameter set of the constant-growth dividend model.
type DividendInput struct {
	LastDividend float64 // D0, the most recent dividend paid
	Growth       float64 // g
	Discount     float64 // R
}

// DividendValue returns D0 * (1+g) / (R - g).
//
// R <= g has no finite positive value and returns a *DegenerateRateError.
func DividendValue(in DividendInput) (float64, error) {
	if err := checkDiscountRate("discount rate", in.Discount); err != nil {
		return 0, err
	}
	if err := checkGrowthRate("growth rate", in.Growth); err != nil {
		return 0, err
	}
	if in.Discount <= in.Growth {
		return 0, &DegenerateRateError{Model: "dividend discount", Discount: in.Discount, Growth: in.Growth}
	}
	return checkFinite("dividend value", in.LastDividend*(1+in.Growth)/(in.Discount-in.Growth))
}

// CostOfEquity is the CAPM required return: rf + beta * (rm - rf).
func CostOfEquity(riskFree, beta, marketReturn float64) float64 {
	return riskFree + beta*(marketReturn-riskFree)
}

// RequiredReturnFromYield is the Gordon-implied required return: yield + g.
func RequiredReturnFromYield(dividendYield, growth float64) float64 {
	return dividendYield + growth
}

// =============================================================================
// GROWTH DERIVATION
// =============================================================================

// TrailingWindow is the number of observations TrailingGrowth compares across.
const TrailingWindow = 4

// TrailingGrowth derives a growth rate from the last TrailingWindow entries of
// a dividend series (oldest first): q = latest / series[len-4] - 1.
//
// With quarterly inputs q is annualized as (1+q)^4 - 1, which assumes four
// sub-annual payments feed one annual comparison.
func TrailingGrowth(series []float64, quarterly bool) (float64, error) {
	if len(series) < TrailingWindow {
		return 0, &InsufficientHistoryError{Series: "dividends", Have: len(series), Need: TrailingWindow}
	}
	start := series[len(series)-TrailingWindow]
	end := series[len(series)-1]
	if start == 0 {
		return 0, fmt.Errorf("trailing base dividend is zero: %w", ErrInvalidInput)
	}
	growth := end/start - 1
	if quarterly {
		growth = math.Pow(1+growth, 4) - 1
	}
	return checkFinite("trailing growth", growth)
}

// DividendPayment is one dated dividend from a market-data history.
type DividendPayment struct {
	Date   time.Time
	Amount float64
}

// AnnualTotal is the sum of a calendar year's dividends.
type AnnualTotal struct {
	Year  int
	Total float64
}

// AnnualTotals groups payments by calendar year, ascending.
func AnnualTotals(payments []DividendPayment) []AnnualTotal {
	byYear := make(map[int]float64)
	for _, p := range payments {
		byYear[p.Date.Year()] += p.Amount
	}
	totals := make([]AnnualTotal, 0, len(byYear))
	for y, t := range byYear {
		totals = append(totals, AnnualTotal{Year: y, Total: t})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Year < totals[j].Year })
	return totals
}

// AverageAnnualGrowth is the mean year-over-year change of annual totals.
// Changes from a zero year are skipped; at least one valid change is needed.
func AverageAnnualGrowth(totals []AnnualTotal) (float64, error) {
	if len(totals) < 2 {
		return 0, &InsufficientHistoryError{Series: "annual dividends", Have: len(totals), Need: 2}
	}
	var sum float64
	var count int
	for i := 1; i < len(totals); i++ {
		prev := totals[i-1].Total
		if prev == 0 {
			continue
		}
		sum += totals[i].Total/prev - 1
		count++
	}
	if count == 0 {
		return 0, &InsufficientHistoryError{Series: "annual dividend changes", Have: 0, Need: 1}
	}
	return sum / float64(count), nil
}

// LatestAnnualDividend returns the most recent year's total, used as D0 when
// valuing from annual data.
func LatestAnnualDividend(totals []AnnualTotal) (float64, error) {
	if len(totals) == 0 {
		return 0, &MissingDatumError{Field: "dividends"}
	}
	return totals[len(totals)-1].Total, nil
}
