/*
bond.go - Coupon bond pricing

PURPOSE:
  Prices a level-coupon bond as the present value of its remaining coupons
  plus its face value. Two call shapes share one discounting kernel:

    PriceBond:      settlement/maturity dates with 1, 2 or 4 payments per year
    PriceBondYears: a whole number of years with annual coupons

DAY COUNT (APPROXIMATION):
  Time to maturity is (maturity - settlement in calendar days) / 360. This is
  a 30/360-style shortcut, not actual/actual, and it slightly overstates the
  number of years (a 10 calendar year bond reads as ~10.14 years).

PARTIAL PERIODS (SIMPLIFICATION):
  total_payments = floor(years * frequency). A trailing partial coupon
  period is dropped, not prorated, and no accrued interest is computed.
  Callers relying on published prices should expect small differences.

FORMULA:
  c     = face * coupon_rate / frequency
  y     = yield_rate / frequency
  price = sum_{f=1..n} c / (1+y)^f  +  face / (1+y)^n

SEE ALSO:
  - grid.go: BondYieldAxis / BondCouponAxis sweeps
*/
package valuation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DaysPerYear is the fixed year length used to convert days to years.
const DaysPerYear = 360

// =============================================================================
// FREQUENCY
// =============================================================================

// Frequency is the number of coupon payments per year.
type Frequency int

const (
	Annual     Frequency = 1
	Semiannual Frequency = 2
	Quarterly  Frequency = 4
)

func (f Frequency) Valid() bool {
	return f == Annual || f == Semiannual || f == Quarterly
}

func (f Frequency) String() string {
	switch f {
	case Annual:
		return "annual"
	case Semiannual:
		return "semiannual"
	case Quarterly:
		return "quarterly"
	default:
		return strconv.Itoa(int(f))
	}
}

// ParseFrequency accepts names ("annual", "semiannual", "quarterly") or the
// payment counts "1", "2", "4".
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annual", "1":
		return Annual, nil
	case "semiannual", "semi-annual", "2":
		return Semiannual, nil
	case "quarterly", "4":
		return Quarterly, nil
	}
	return 0, fmt.Errorf("frequency %q: %w", s, ErrInvalidInput)
}

// =============================================================================
// DATE-DRIVEN PRICING
// =============================================================================

// BondInput describes a bond priced off a settlement/maturity date pair.
type BondInput struct {
	FaceValue  float64
	CouponRate float64 // annual, decimal
	YieldRate  float64 // annual, decimal
	Settlement time.Time
	Maturity   time.Time
	Frequency  Frequency
}

// BondResult is the priced bond. Price is rounded for presentation;
// Unrounded is what sweeps and comparisons should use.
type BondResult struct {
	Price         decimal.Decimal
	Unrounded     float64
	Years         float64
	Payments      int
	CouponPayment float64
}

// YearsToMaturity returns the day-count years between two dates.
func YearsToMaturity(settlement, maturity time.Time) (float64, error) {
	s, m := dateOnly(settlement), dateOnly(maturity)
	if !m.After(s) {
		return 0, fmt.Errorf("maturity %s not after settlement %s: %w",
			m.Format("2006-01-02"), s.Format("2006-01-02"), ErrInvalidPeriod)
	}
	days := int(m.Sub(s).Hours() / 24)
	return float64(days) / DaysPerYear, nil
}

// PriceBond prices a bond from its dates. Maturity must be strictly after
// settlement.
func PriceBond(in BondInput) (BondResult, error) {
	if !in.Frequency.Valid() {
		return BondResult{}, fmt.Errorf("frequency %d: %w", in.Frequency, ErrInvalidInput)
	}
	if err := checkBondTerms(in.FaceValue, in.CouponRate, in.YieldRate); err != nil {
		return BondResult{}, err
	}
	years, err := YearsToMaturity(in.Settlement, in.Maturity)
	if err != nil {
		return BondResult{}, err
	}

	freq := float64(in.Frequency)
	payments := int(math.Floor(years * freq))
	coupon := in.FaceValue * in.CouponRate / freq

	price, err := discountBond(in.FaceValue, coupon, in.YieldRate/freq, payments)
	if err != nil {
		return BondResult{}, err
	}
	return BondResult{
		Price:         Round(price),
		Unrounded:     price,
		Years:         years,
		Payments:      payments,
		CouponPayment: coupon,
	}, nil
}

// BondPrice is PriceBond shaped as a grid valuer.
func BondPrice(in BondInput) (float64, error) {
	res, err := PriceBond(in)
	if err != nil {
		return 0, err
	}
	return res.Unrounded, nil
}

// =============================================================================
// INTEGER-YEARS PRICING (annual coupons)
// =============================================================================

// BondYearsInput describes a bond with a whole number of annual coupons left.
type BondYearsInput struct {
	FaceValue  float64
	CouponRate float64
	YieldRate  float64
	Years      int
}

// PriceBondYears prices a bond paying annual coupons for Years years.
func PriceBondYears(in BondYearsInput) (BondResult, error) {
	if in.Years < 1 {
		return BondResult{}, fmt.Errorf("years %d: %w", in.Years, ErrInvalidPeriod)
	}
	if err := checkBondTerms(in.FaceValue, in.CouponRate, in.YieldRate); err != nil {
		return BondResult{}, err
	}
	coupon := in.FaceValue * in.CouponRate
	price, err := discountBond(in.FaceValue, coupon, in.YieldRate, in.Years)
	if err != nil {
		return BondResult{}, err
	}
	return BondResult{
		Price:         Round(price),
		Unrounded:     price,
		Years:         float64(in.Years),
		Payments:      in.Years,
		CouponPayment: coupon,
	}, nil
}

// BondYearsPrice is PriceBondYears shaped as a grid valuer.
func BondYearsPrice(in BondYearsInput) (float64, error) {
	res, err := PriceBondYears(in)
	if err != nil {
		return 0, err
	}
	return res.Unrounded, nil
}

// =============================================================================
// KERNEL
// =============================================================================

// discountBond sums coupon PVs in ascending period order, then adds the
// discounted face value. n = 0 leaves only the undiscounted face value.
func discountBond(face, coupon, periodRate float64, n int) (float64, error) {
	var pv float64
	for f := 1; f <= n; f++ {
		pv += coupon / math.Pow(1+periodRate, float64(f))
	}
	pv += face / math.Pow(1+periodRate, float64(n))
	return checkFinite("bond price", pv)
}

func checkBondTerms(face, coupon, yield float64) error {
	if face <= 0 || math.IsNaN(face) {
		return fmt.Errorf("face value %v: %w", face, ErrInvalidInput)
	}
	if err := checkDiscountRate("coupon rate", coupon); err != nil {
		return err
	}
	return checkDiscountRate("yield rate", yield)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
