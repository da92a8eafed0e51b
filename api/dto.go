/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's Go types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts in responses are rounded to cents. Rates are decimals (0.05 = 5%)
  in both directions.

OPTIONAL INPUTS:
  Pointer fields are optional. A nil market_price skips the market
  comparison; a nil rate on a TVM request draws one from the named scenario.

VALIDATION:
  Validation is done by the engine, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/grid.go: GridSpec, AxisSpec (accepted as-is by /api/grids)
*/
package api

import (
	"github.com/warp/valuation-engine/factory"
	"github.com/warp/valuation-engine/scenario"
)

// =============================================================================
// TIME VALUE OF MONEY
// =============================================================================

// TVMRequest evaluates the time value conversions for one amount.
type TVMRequest struct {
	Amount   float64  `json:"amount"`
	Rate     *float64 `json:"rate,omitempty"`
	Periods  int      `json:"periods"`
	Kinds    []string `json:"kinds,omitempty"`    // default: all four
	Scenario string   `json:"scenario,omitempty"` // used when rate is omitted, "random" for any
}

type TVMResultDTO struct {
	Kind  string  `json:"kind"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type TVMResponse struct {
	Amount   float64          `json:"amount"`
	Rate     float64          `json:"rate"`
	Periods  int              `json:"periods"`
	Scenario *scenario.Drawn  `json:"scenario,omitempty"`
	Results  []TVMResultDTO   `json:"results"`
}

// AxisRequest is an axis whose parameter is implied by the endpoint.
type AxisRequest struct {
	Values   []float64             `json:"values,omitempty"`
	Range    *factory.RangeSpec    `json:"range,omitempty"`
	Linspace *factory.LinspaceSpec `json:"linspace,omitempty"`
}

func (a *AxisRequest) spec(param string, fallback factory.AxisSpec) factory.AxisSpec {
	if a == nil {
		fallback.Param = param
		return fallback
	}
	return factory.AxisSpec{Param: param, Values: a.Values, Range: a.Range, Linspace: a.Linspace}
}

type TVMSensitivityRequest struct {
	Kind    string       `json:"kind"`
	Amount  float64      `json:"amount"`
	Rates   *AxisRequest `json:"rates,omitempty"`
	Periods *AxisRequest `json:"periods,omitempty"`
}

// =============================================================================
// BONDS
// =============================================================================

type BondPriceRequest struct {
	FaceValue   float64  `json:"face_value"`
	CouponRate  float64  `json:"coupon_rate"`
	YieldRate   float64  `json:"yield_rate"`
	Settlement  string   `json:"settlement"` // YYYY-MM-DD
	Maturity    string   `json:"maturity"`   // YYYY-MM-DD
	Frequency   string   `json:"frequency,omitempty"` // annual (default), semiannual, quarterly
	MarketPrice *float64 `json:"market_price,omitempty"`
}

type BondYearsRequest struct {
	FaceValue   float64  `json:"face_value"`
	CouponRate  float64  `json:"coupon_rate"`
	YieldRate   float64  `json:"yield_rate"`
	Years       int      `json:"years"`
	MarketPrice *float64 `json:"market_price,omitempty"`
}

type BondPriceDTO struct {
	Price         float64   `json:"price"`
	Years         float64   `json:"years"`
	Payments      int       `json:"payments"`
	CouponPayment float64   `json:"coupon_payment"`
	Comparison    *MarketDTO `json:"comparison,omitempty"`
}

type BondSensitivityRequest struct {
	FaceValue  float64      `json:"face_value"`
	Years      int          `json:"years,omitempty"` // set for annual integer-years pricing
	Settlement string       `json:"settlement,omitempty"`
	Maturity   string       `json:"maturity,omitempty"`
	Frequency  string       `json:"frequency,omitempty"`
	Yields     *AxisRequest `json:"yields,omitempty"`
	Coupons    *AxisRequest `json:"coupons,omitempty"`
}

// =============================================================================
// DIVIDENDS
// =============================================================================

// DividendRequest values a stock with the constant-growth model. Each input
// can be given directly or derived: D0 from the dividend history, growth
// from the trailing history, the discount rate from CAPM.
type DividendRequest struct {
	LastDividend *float64  `json:"last_dividend,omitempty"`
	Dividends    []float64 `json:"dividends,omitempty"` // oldest first
	Quarterly    bool      `json:"quarterly,omitempty"`
	Growth       *float64  `json:"growth,omitempty"`
	Discount     *float64  `json:"discount,omitempty"`
	RiskFreeRate *float64  `json:"risk_free_rate,omitempty"`
	Beta         *float64  `json:"beta,omitempty"`
	MarketReturn *float64  `json:"market_return,omitempty"`
	MarketPrice  *float64  `json:"market_price,omitempty"`
}

type DividendDTO struct {
	Value        float64    `json:"value"`
	LastDividend float64    `json:"last_dividend"`
	Growth       float64    `json:"growth"`
	Discount     float64    `json:"discount"`
	Comparison   *MarketDTO `json:"comparison,omitempty"`
}

// =============================================================================
// CASH FLOW
// =============================================================================

type CashFlowRequest struct {
	BaseCashFlow float64  `json:"base_cash_flow"`
	Growth       float64  `json:"growth"`
	Discount     float64  `json:"discount"`
	Horizon      int      `json:"horizon"`
	MarketPrice  *float64 `json:"market_price,omitempty"`
}

type TwoStageRequest struct {
	BaseCashFlow    float64  `json:"base_cash_flow"`
	Discount        float64  `json:"discount"`
	HighGrowth      float64  `json:"high_growth"`
	HighGrowthYears int      `json:"high_growth_years"`
	TerminalGrowth  float64  `json:"terminal_growth"`
	TerminalYears   int      `json:"terminal_years"`
	Convention      string   `json:"convention,omitempty"` // folded (default) or deferred
	MarketPrice     *float64 `json:"market_price,omitempty"`
}

type CashFlowDTO struct {
	Forecast         []float64  `json:"forecast"`
	PresentValues    []float64  `json:"present_values"`
	PVForecast       float64    `json:"pv_forecast"`
	TerminalCashFlow float64    `json:"terminal_cash_flow"`
	TerminalGrowth   float64    `json:"terminal_growth"`
	TerminalValue    float64    `json:"terminal_value"`
	PVTerminal       float64    `json:"pv_terminal"`
	IntrinsicValue   float64    `json:"intrinsic_value"`
	Comparison       *MarketDTO `json:"comparison,omitempty"`
}

type CashFlowSensitivityRequest struct {
	BaseCashFlow float64      `json:"base_cash_flow"`
	Horizon      int          `json:"horizon"`
	Growth       *AxisRequest `json:"growth,omitempty"`
	Discount     *AxisRequest `json:"discount,omitempty"`
}

// MarketDTO compares an estimate to a quoted price.
// The dividend fields are present only when a dividend is known.
type MarketDTO struct {
	MarketPrice         float64  `json:"market_price"`
	Status              string   `json:"status"`
	CapitalGainsYield   float64  `json:"capital_gains_yield"`
	DividendYield       *float64 `json:"dividend_yield,omitempty"`
	ExpectedTotalReturn *float64 `json:"expected_total_return,omitempty"`
}

// =============================================================================
// GRIDS
// =============================================================================

// GridDTO is a computed grid. Cells[i][j] is null where the model is
// undefined; Invalid explains each null.
type GridDTO struct {
	Name         string            `json:"name,omitempty"`
	Model        string            `json:"model"`
	RowParam     string            `json:"row_param"`
	ColParam     string            `json:"col_param"`
	RowValues    []float64         `json:"row_values"`
	ColValues    []float64         `json:"col_values"`
	Cells        [][]*float64      `json:"cells"`
	Invalid      []InvalidCellDTO  `json:"invalid,omitempty"`
}

type InvalidCellDTO struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Error string `json:"error"`
}

type GridSpecDTO struct {
	Name      string           `json:"name"`
	Model     string           `json:"model"`
	Version   int              `json:"version"`
	Spec      factory.GridSpec `json:"spec"`
	UpdatedAt string           `json:"updated_at"`
}

// =============================================================================
// LEADERBOARD
// =============================================================================

type LeaderboardSubmitRequest struct {
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	Calculation string            `json:"calculation,omitempty"`
	InputValue  float64           `json:"input_value"`
	Result      float64           `json:"result"`
	Periods     int               `json:"periods,omitempty"`
	Rate        float64           `json:"rate,omitempty"`
	Note        string            `json:"note,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type PredictionRequest struct {
	Name        string            `json:"name"`
	Company     string            `json:"company,omitempty"`
	Prediction  float64           `json:"prediction"`
	MarketPrice float64           `json:"market_price"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type LeaderboardEntryDTO struct {
	Rank        int               `json:"rank"`
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	Calculation string            `json:"calculation,omitempty"`
	InputValue  string            `json:"input_value"`
	Result      string            `json:"result"`
	Periods     int               `json:"periods,omitempty"`
	Rate        string            `json:"rate"`
	Note        string            `json:"note,omitempty"`
	MarketPrice string            `json:"market_price,omitempty"`
	Error       string            `json:"error,omitempty"`
	Status      string            `json:"status,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   string            `json:"created_at"`
}

// =============================================================================
// MISC
// =============================================================================

type HealthDTO struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Cache  string `json:"cache"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
