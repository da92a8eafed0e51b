package valuation

import (
	"fmt"
	"math"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

// MarketSnapshot is what a market-data provider hands the engine. Every
// field is optional upstream; a nil field means the provider had no value.
type MarketSnapshot struct {
	Price        *float64
	Beta         *float64
	RiskFreeRate *float64
	MarketReturn *float64
	Dividends    []float64 // oldest first
}

// DividendInputFromMarket resolves D0 from the latest dividend and R from
// CAPM. Absent data surfaces as *MissingDatumError rather than a zero.
func DividendInputFromMarket(snap MarketSnapshot, growth float64) (DividendInput, error) {
	if len(snap.Dividends) == 0 {
		return DividendInput{}, &MissingDatumError{Field: "dividends"}
	}
	if snap.Beta == nil {
		return DividendInput{}, &MissingDatumError{Field: "beta"}
	}
	if snap.RiskFreeRate == nil {
		return DividendInput{}, &MissingDatumError{Field: "risk_free_rate"}
	}
	if snap.MarketReturn == nil {
		return DividendInput{}, &MissingDatumError{Field: "market_return"}
	}
	return DividendInput{
		LastDividend: snap.Dividends[len(snap.Dividends)-1],
		Growth:       growth,
		Discount:     CostOfEquity(*snap.RiskFreeRate, *snap.Beta, *snap.MarketReturn),
	}, nil
}

// MarketComparison sets an estimate against the quoted price. The dividend
// fields are nil when the snapshot carries no dividend.
type MarketComparison struct {
	Price               float64
	Status              Status
	CapitalGainsYield   float64
	DividendYield       *float64
	ExpectedTotalReturn *float64
}

// CompareSnapshot compares estimate with the snapshot price, adding the
// dividend and total return yields when the latest dividend is known.
func CompareSnapshot(snap MarketSnapshot, estimate float64) (MarketComparison, error) {
	if snap.Price == nil {
		return MarketComparison{}, &MissingDatumError{Field: "price"}
	}
	price := *snap.Price
	gains, err := CapitalGainsYield(price, estimate)
	if err != nil {
		return MarketComparison{}, fmt.Errorf("market price %v: %w", price, err)
	}
	cmp := MarketComparison{
		Price:             price,
		Status:            CompareToMarket(estimate, price),
		CapitalGainsYield: gains,
	}
	if len(snap.Dividends) > 0 {
		dy, err := DividendYield(snap.Dividends[len(snap.Dividends)-1], price)
		if err != nil {
			return MarketComparison{}, err
		}
		total := ExpectedTotalReturn(gains, dy)
		cmp.DividendYield, cmp.ExpectedTotalReturn = &dy, &total
	}
	return cmp, nil
}

// SimpleReturns converts a price series into period-over-period returns.
func SimpleReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, &InsufficientHistoryError{Series: "prices", Have: len(prices), Need: 2}
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			return nil, fmt.Errorf("price at index %d is zero: %w", i-1, ErrInvalidInput)
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	return returns, nil
}

// AnnualizedMarketReturn compounds the mean daily return of an index price
// series over a trading year: (1 + mean)^252 - 1.
func AnnualizedMarketReturn(prices []float64) (float64, error) {
	returns, err := SimpleReturns(prices)
	if err != nil {
		return 0, err
	}
	return checkFinite("market return", math.Pow(1+mean(returns), TradingDaysPerYear)-1)
}

// Beta is the slope of asset returns on market returns: cov(a, m) / var(m).
func Beta(asset, market []float64) (float64, error) {
	if len(asset) != len(market) {
		return 0, fmt.Errorf("beta: %d asset returns vs %d market returns: %w",
			len(asset), len(market), ErrInvalidInput)
	}
	if len(market) < 2 {
		return 0, &InsufficientHistoryError{Series: "returns", Have: len(market), Need: 2}
	}
	ma, mm := mean(asset), mean(market)
	var cov, variance float64
	for i := range market {
		da, dm := asset[i]-ma, market[i]-mm
		cov += da * dm
		variance += dm * dm
	}
	if variance == 0 {
		return 0, fmt.Errorf("beta: market returns have zero variance: %w", ErrInvalidInput)
	}
	return cov / variance, nil
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
