package valuation

import (
	"fmt"
	"math"
)

// =============================================================================
// TIME VALUE OF MONEY - Single sums and level annuities
// =============================================================================

// Calculation identifies one of the four time-value conversions.
type Calculation string

const (
	CalcFutureValue         Calculation = "future_value"
	CalcPresentValue        Calculation = "present_value"
	CalcFutureValueAnnuity  Calculation = "future_value_annuity"
	CalcPresentValueAnnuity Calculation = "present_value_annuity"
)

// Calculations lists every conversion in display order.
var Calculations = []Calculation{
	CalcFutureValue,
	CalcPresentValue,
	CalcFutureValueAnnuity,
	CalcPresentValueAnnuity,
}

// Label is the human readable name used on leaderboards and tables.
func (c Calculation) Label() string {
	switch c {
	case CalcFutureValue:
		return "Future Value"
	case CalcPresentValue:
		return "Present Value"
	case CalcFutureValueAnnuity:
		return "Future Value of Annuity"
	case CalcPresentValueAnnuity:
		return "Present Value of Annuity"
	default:
		return string(c)
	}
}

// ParseCalculation accepts the snake_case identifiers.
func ParseCalculation(s string) (Calculation, error) {
	for _, c := range Calculations {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown calculation %q: %w", s, ErrInvalidInput)
}

// TVMInput is the parameter set swept by TVM sensitivity grids.
type TVMInput struct {
	Kind    Calculation
	Amount  float64 // present value, future value or payment depending on Kind
	Rate    float64 // periodic rate
	Periods int
}

// Evaluate dispatches to the primitive named by Kind.
func Evaluate(in TVMInput) (float64, error) {
	switch in.Kind {
	case CalcFutureValue:
		return FutureValue(in.Amount, in.Rate, in.Periods)
	case CalcPresentValue:
		return PresentValue(in.Amount, in.Rate, in.Periods)
	case CalcFutureValueAnnuity:
		return FutureValueAnnuity(in.Amount, in.Rate, in.Periods)
	case CalcPresentValueAnnuity:
		return PresentValueAnnuity(in.Amount, in.Rate, in.Periods)
	default:
		return 0, fmt.Errorf("unknown calculation %q: %w", in.Kind, ErrInvalidInput)
	}
}

// FutureValue compounds a single sum: pv * (1+r)^n. n = 0 returns pv.
func FutureValue(pv, r float64, n int) (float64, error) {
	if err := checkSingleSum(r, n); err != nil {
		return 0, err
	}
	return checkFinite("future value", pv*growthFactor(r, n))
}

// PresentValue discounts a single sum: fv / (1+r)^n. n = 0 returns fv.
func PresentValue(fv, r float64, n int) (float64, error) {
	if err := checkSingleSum(r, n); err != nil {
		return 0, err
	}
	factor := growthFactor(r, n)
	if math.IsInf(factor, 0) {
		return 0, fmt.Errorf("present value: %w", ErrOverflow)
	}
	return checkFinite("present value", fv/factor)
}

// FutureValueAnnuity accumulates n end-of-period payments:
// payment * ((1+r)^n - 1) / r, with the r = 0 limit payment * n.
func FutureValueAnnuity(payment, r float64, n int) (float64, error) {
	if err := checkAnnuity(r, n); err != nil {
		return 0, err
	}
	if r == 0 {
		return payment * float64(n), nil
	}
	return checkFinite("future value annuity", payment*((growthFactor(r, n)-1)/r))
}

// PresentValueAnnuity discounts n end-of-period payments:
// payment * (1 - (1+r)^-n) / r, with the r = 0 limit payment * n.
func PresentValueAnnuity(payment, r float64, n int) (float64, error) {
	if err := checkAnnuity(r, n); err != nil {
		return 0, err
	}
	if r == 0 {
		return payment * float64(n), nil
	}
	return checkFinite("present value annuity", payment*(1-math.Pow(1+r, -float64(n)))/r)
}

// DiscountFactor is 1 / (1+r)^n, the weight applied to a cash flow n periods out.
func DiscountFactor(r float64, n int) float64 {
	return 1 / growthFactor(r, n)
}

func growthFactor(r float64, n int) float64 {
	return math.Pow(1+r, float64(n))
}

func checkSingleSum(r float64, n int) error {
	if n < 0 {
		return fmt.Errorf("periods %d: %w", n, ErrInvalidPeriod)
	}
	return checkDiscountRate("rate", r)
}

func checkAnnuity(r float64, n int) error {
	if n < 1 {
		return fmt.Errorf("annuity periods %d: %w", n, ErrInvalidPeriod)
	}
	return checkDiscountRate("rate", r)
}
