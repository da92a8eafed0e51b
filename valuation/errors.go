/*
errors.go - Centralized error types for the valuation engine

PURPOSE:
  All failure kinds the calculators can produce, in one place. Every
  condition here is local and recoverable except ErrOverflow: the grid
  builder isolates the recoverable ones per cell and aborts only on
  overflow.

ERROR CATEGORIES:
  1. Input errors    - InvalidPeriod, InvalidRate, InvalidInput
  2. Model errors    - DegenerateRate (Gordon denominator <= 0)
  3. Data errors     - InsufficientHistory, MissingMarketDatum
  4. Arithmetic      - Overflow (non-finite result)

USAGE:
  value, err := valuation.DividendValue(in)
  if errors.Is(err, valuation.ErrDegenerateRate) {
      // model undefined for R <= g
  }

  var dre *valuation.DegenerateRateError
  if errors.As(err, &dre) {
      fmt.Println(dre.Discount, dre.Growth)
  }

SEE ALSO:
  - grid.go: Per-cell isolation of these errors
  - api/handlers.go: HTTP status mapping via IsClientError
*/
package valuation

import (
	"errors"
	"fmt"
	"math"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a horizon is not positive or a
	// maturity date does not fall after its settlement date.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrDegenerateRate is returned when a discount rate does not exceed the
	// growth rate it is paired with. The constant-growth model has no finite
	// positive value in that region.
	ErrDegenerateRate = errors.New("degenerate rate: discount rate must exceed growth rate")

	// ErrInsufficientHistory is returned when a series is too short to derive
	// a growth rate or a market statistic.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrMissingMarketDatum is returned when a required upstream input (beta,
	// dividend, price, rates) is absent.
	ErrMissingMarketDatum = errors.New("missing market datum")

	// ErrInvalidRate is returned for negative interest/discount rates and for
	// growth rates at or below -100%.
	ErrInvalidRate = errors.New("invalid rate")

	// ErrInvalidInput is returned for malformed non-rate inputs (face value,
	// frequency, zero base observations, mismatched series).
	ErrInvalidInput = errors.New("invalid input")

	// ErrOverflow is returned when a computation leaves the float64 range.
	// It is the only error that aborts a whole sensitivity sweep.
	ErrOverflow = errors.New("arithmetic overflow")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DegenerateRateError reports the offending pair of rates.
type DegenerateRateError struct {
	Model    string
	Discount float64
	Growth   float64
}

func (e *DegenerateRateError) Error() string {
	return fmt.Sprintf("%s: discount rate %.4f must exceed growth rate %.4f",
		e.Model, e.Discount, e.Growth)
}

func (e *DegenerateRateError) Unwrap() error {
	return ErrDegenerateRate
}

// InsufficientHistoryError reports how many observations were supplied
// against how many the derivation needs.
type InsufficientHistoryError struct {
	Series string
	Have   int
	Need   int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %s: have %d observations, need %d",
		e.Series, e.Have, e.Need)
}

func (e *InsufficientHistoryError) Unwrap() error {
	return ErrInsufficientHistory
}

// MissingDatumError names the absent market field.
type MissingDatumError struct {
	Field string
}

func (e *MissingDatumError) Error() string {
	return fmt.Sprintf("missing market datum: %s", e.Field)
}

func (e *MissingDatumError) Unwrap() error {
	return ErrMissingMarketDatum
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input or
// an undefined model region, as opposed to an arithmetic failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrDegenerateRate) ||
		errors.Is(err, ErrInsufficientHistory) ||
		errors.Is(err, ErrMissingMarketDatum)
}

// IsUnrecoverable returns true for errors that must abort a sweep.
func IsUnrecoverable(err error) bool {
	return errors.Is(err, ErrOverflow)
}

func checkFinite(what string, v float64) (float64, error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%s: %w", what, ErrOverflow)
	}
	return v, nil
}

func checkDiscountRate(name string, r float64) error {
	if r < 0 || math.IsNaN(r) {
		return fmt.Errorf("%s %v: %w", name, r, ErrInvalidRate)
	}
	return nil
}

func checkGrowthRate(name string, g float64) error {
	if g <= -1 || math.IsNaN(g) {
		return fmt.Errorf("%s %v: %w", name, g, ErrInvalidRate)
	}
	return nil
}
