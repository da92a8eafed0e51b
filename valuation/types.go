/*
Package valuation provides the numeric core of the valuation calculators.

PURPOSE:
  Pure routines for bond pricing, time value of money, dividend discount
  and discounted free cash flow valuation, plus the sensitivity grid that
  sweeps any of them over two inputs. Nothing here does I/O, keeps state
  between calls, or knows how inputs were collected or results displayed.

KEY CONCEPTS IN THIS FILE (types.go):
  - Round: the single 2dp rounding step applied at the presentation boundary
  - Status: undervalued/overvalued comparison against a market price

DESIGN PRINCIPLES:
  1. Pure functions: inputs in, value or typed error out
  2. Float64 internally, decimal at the boundary: rounding happens once
  3. Stable summation: series are always accumulated in ascending period order
  4. Typed failures: degenerate regions return errors, never NaN or Inf

RATES:
  All rates are decimal fractions (0.05 = 5%). Interest and discount rates
  must be >= 0; values above 1.0 are accepted. Growth rates may be negative
  but must stay above -1.

SEE ALSO:
  - tvm.go:      Single-sum and annuity primitives
  - bond.go:     Coupon bond pricing
  - dividend.go: Dividend discount model and growth derivation
  - cashflow.go: Free cash flow forecast and intrinsic value
  - grid.go:     Sensitivity sweeps
*/
package valuation

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ROUNDING - Presentation boundary only
// =============================================================================

// MoneyPlaces is the number of decimal places results are presented with.
const MoneyPlaces = 2

// Round converts an unrounded engine value to its presented form.
// Call it once, at the edge; never feed the result back into a computation.
func Round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(MoneyPlaces)
}

// RoundFloat is Round for callers that need a float64 (JSON numbers, tables).
func RoundFloat(v float64) float64 {
	return Round(v).InexactFloat64()
}

// =============================================================================
// MARKET COMPARISON
// =============================================================================

type Status string

const (
	StatusUndervalued Status = "Undervalued"
	StatusOvervalued  Status = "Overvalued"
)

// CompareToMarket classifies an intrinsic estimate against the market price.
// An estimate equal to the price counts as overvalued, matching the
// calculators' strict "greater than" test.
func CompareToMarket(intrinsic, marketPrice float64) Status {
	if intrinsic > marketPrice {
		return StatusUndervalued
	}
	return StatusOvervalued
}

// CapitalGainsYield is the return implied by moving from price to estimate.
func CapitalGainsYield(price, estimate float64) (float64, error) {
	if price <= 0 {
		return 0, ErrInvalidInput
	}
	return (estimate - price) / price, nil
}

// DividendYield is the dividend per share as a fraction of the price.
func DividendYield(dividend, price float64) (float64, error) {
	if price <= 0 {
		return 0, ErrInvalidInput
	}
	return dividend / price, nil
}

// ExpectedTotalReturn adds the capital gains yield to the dividend yield.
func ExpectedTotalReturn(capitalGainsYield, dividendYield float64) float64 {
	return capitalGainsYield + dividendYield
}
