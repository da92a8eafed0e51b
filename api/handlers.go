/*
handlers.go - HTTP API handlers for the valuation calculators

PURPOSE:
  Exposes the valuation engine via REST API. Handles HTTP request/response
  and JSON serialization, and delegates every computation to the valuation
  package.

ENDPOINTS:
  Calculators:
    POST   /api/tvm                    Future/present value conversions
    POST   /api/bonds/price            Date-driven bond price
    POST   /api/bonds/price-years      Integer-years bond price
    POST   /api/dividends/value        Constant-growth dividend discount model
    POST   /api/dcf/value              Single-stage discounted cash flow
    POST   /api/dcf/two-stage          Two-stage discounted cash flow

  Grids (grids.go):
    POST   /api/tvm/sensitivity        Rate x periods grid
    POST   /api/bonds/sensitivity      Yield x coupon grid
    POST   /api/dcf/sensitivity        Growth x discount grid
    POST   /api/grids                  Any declarative grid spec
    GET    /api/grids/presets          Preset names
    GET    /api/grids/presets/{name}   Computed preset grid
    *      /api/grids/saved/...        Stored grid specs

  Leaderboard:
    GET    /api/leaderboard            List (?sort=result|error|created)
    POST   /api/leaderboard            Submit a calculator result
    POST   /api/leaderboard/predictions Submit an intrinsic value prediction
    DELETE /api/leaderboard            Clear the board

  Scenarios (scenarios.go):
    GET    /api/scenarios              Economic scenario catalogue
    GET    /api/scenarios/draw         Draw a scenario and a rate

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: SQLite store (leaderboard records and saved grid specs)
  - Board: Leaderboard rules on top of Store
  - Cache: Optional grid cache (memory or Redis)
  - rng:   Scenario draws, guarded by a mutex

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Saved spec or preset not found
  - 409: Duplicate leaderboard name
  - 422: Model undefined for the inputs (R <= g, missing market data,
         short history, overflow)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - grids.go: Sensitivity grid handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/valuation-engine/cache"
	"github.com/warp/valuation-engine/factory"
	"github.com/warp/valuation-engine/leaderboard"
	"github.com/warp/valuation-engine/scenario"
	"github.com/warp/valuation-engine/store/sqlite"
	"github.com/warp/valuation-engine/valuation"
)

// DefaultCacheTTL is how long computed grids stay cached.
const DefaultCacheTTL = 10 * time.Minute

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Board    *leaderboard.Board
	Cache    cache.Cache // nil disables grid caching
	CacheTTL time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewHandler creates a new handler with the given store and cache.
func NewHandler(store *sqlite.Store, c cache.Cache) *Handler {
	seed := uint64(time.Now().UnixNano())
	return &Handler{
		Store:    store,
		Board:    leaderboard.NewBoard(store),
		Cache:    c,
		CacheTTL: DefaultCacheTTL,
		rng:      rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// Seed makes scenario draws reproducible.
func (h *Handler) Seed(seed uint64) {
	h.rngMu.Lock()
	defer h.rngMu.Unlock()
	h.rng = rand.New(rand.NewPCG(seed, seed>>1))
}

// draw picks a rate from the named scenario, or from a random one when
// name is empty or "random".
func (h *Handler) draw(name string) (scenario.Drawn, error) {
	h.rngMu.Lock()
	defer h.rngMu.Unlock()
	if name == "" || name == "random" {
		return scenario.Draw(h.rng), nil
	}
	s, err := scenario.Lookup(name)
	if err != nil {
		return scenario.Drawn{}, err
	}
	return scenario.DrawFrom(h.rng, s), nil
}

// =============================================================================
// TIME VALUE OF MONEY
// =============================================================================

// EvaluateTVM computes the requested time value conversions.
// POST /api/tvm
func (h *Handler) EvaluateTVM(w http.ResponseWriter, r *http.Request) {
	var req TVMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp := TVMResponse{Amount: req.Amount, Periods: req.Periods}
	if req.Rate != nil {
		resp.Rate = *req.Rate
	} else {
		drawn, err := h.draw(req.Scenario)
		if err != nil {
			writeEngineError(w, "Unknown scenario", err)
			return
		}
		resp.Rate = drawn.Rate
		resp.Scenario = &drawn
	}

	kinds := valuation.Calculations
	if len(req.Kinds) > 0 {
		kinds = make([]valuation.Calculation, 0, len(req.Kinds))
		for _, k := range req.Kinds {
			calc, err := valuation.ParseCalculation(k)
			if err != nil {
				writeEngineError(w, "Invalid calculation", err)
				return
			}
			kinds = append(kinds, calc)
		}
	}

	for _, calc := range kinds {
		v, err := valuation.Evaluate(valuation.TVMInput{
			Kind: calc, Amount: req.Amount, Rate: resp.Rate, Periods: req.Periods,
		})
		if err != nil {
			writeEngineError(w, fmt.Sprintf("Failed to compute %s", calc.Label()), err)
			return
		}
		resp.Results = append(resp.Results, TVMResultDTO{
			Kind:  string(calc),
			Label: calc.Label(),
			Value: valuation.RoundFloat(v),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// BONDS
// =============================================================================

// PriceBond prices a bond from its settlement and maturity dates.
// POST /api/bonds/price
func (h *Handler) PriceBond(w http.ResponseWriter, r *http.Request) {
	var req BondPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settlement, err := time.Parse(time.DateOnly, req.Settlement)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settlement format (use YYYY-MM-DD)", err)
		return
	}
	maturity, err := time.Parse(time.DateOnly, req.Maturity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid maturity format (use YYYY-MM-DD)", err)
		return
	}
	freq := valuation.Annual
	if req.Frequency != "" {
		if freq, err = valuation.ParseFrequency(req.Frequency); err != nil {
			writeEngineError(w, "Invalid frequency", err)
			return
		}
	}

	res, err := valuation.PriceBond(valuation.BondInput{
		FaceValue:  req.FaceValue,
		CouponRate: req.CouponRate,
		YieldRate:  req.YieldRate,
		Settlement: settlement,
		Maturity:   maturity,
		Frequency:  freq,
	})
	if err != nil {
		writeEngineError(w, "Failed to price bond", err)
		return
	}
	writeBondPrice(w, res, req.MarketPrice)
}

// PriceBondYears prices an annual-coupon bond with a whole number of years left.
// POST /api/bonds/price-years
func (h *Handler) PriceBondYears(w http.ResponseWriter, r *http.Request) {
	var req BondYearsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := valuation.PriceBondYears(valuation.BondYearsInput{
		FaceValue:  req.FaceValue,
		CouponRate: req.CouponRate,
		YieldRate:  req.YieldRate,
		Years:      req.Years,
	})
	if err != nil {
		writeEngineError(w, "Failed to price bond", err)
		return
	}
	writeBondPrice(w, res, req.MarketPrice)
}

func writeBondPrice(w http.ResponseWriter, res valuation.BondResult, marketPrice *float64) {
	comparison, err := compare(res.Unrounded, marketPrice)
	if err != nil {
		writeEngineError(w, "Invalid market price", err)
		return
	}
	writeJSON(w, http.StatusOK, BondPriceDTO{
		Price:         res.Price.InexactFloat64(),
		Years:         decimal.NewFromFloat(res.Years).Round(4).InexactFloat64(),
		Payments:      res.Payments,
		CouponPayment: valuation.RoundFloat(res.CouponPayment),
		Comparison:    comparison,
	})
}

// =============================================================================
// DIVIDENDS
// =============================================================================

// ValueDividends values a stock with the constant-growth dividend model.
// POST /api/dividends/value
func (h *Handler) ValueDividends(w http.ResponseWriter, r *http.Request) {
	var req DividendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := resolveDividendInput(req)
	if err != nil {
		writeEngineError(w, "Failed to resolve dividend inputs", err)
		return
	}
	value, err := valuation.DividendValue(in)
	if err != nil {
		writeEngineError(w, "Failed to value dividends", err)
		return
	}
	comparison, err := compare(value, req.MarketPrice, in.LastDividend)
	if err != nil {
		writeEngineError(w, "Invalid market price", err)
		return
	}

	writeJSON(w, http.StatusOK, DividendDTO{
		Value:        valuation.RoundFloat(value),
		LastDividend: in.LastDividend,
		Growth:       rate(in.Growth),
		Discount:     rate(in.Discount),
		Comparison:   comparison,
	})
}

// resolveDividendInput fills D0, g and R from direct values where given and
// derives the rest: D0 from the history, g from trailing growth, R from CAPM.
func resolveDividendInput(req DividendRequest) (valuation.DividendInput, error) {
	var d0 float64
	switch {
	case req.LastDividend != nil:
		d0 = *req.LastDividend
	case len(req.Dividends) > 0:
		d0 = req.Dividends[len(req.Dividends)-1]
	default:
		return valuation.DividendInput{}, &valuation.MissingDatumError{Field: "last_dividend"}
	}

	var growth float64
	if req.Growth != nil {
		growth = *req.Growth
	} else {
		g, err := valuation.TrailingGrowth(req.Dividends, req.Quarterly)
		if err != nil {
			return valuation.DividendInput{}, err
		}
		growth = g
	}

	if req.Discount != nil {
		return valuation.DividendInput{LastDividend: d0, Growth: growth, Discount: *req.Discount}, nil
	}
	return valuation.DividendInputFromMarket(valuation.MarketSnapshot{
		Beta:         req.Beta,
		RiskFreeRate: req.RiskFreeRate,
		MarketReturn: req.MarketReturn,
		Dividends:    []float64{d0},
	}, growth)
}

// =============================================================================
// CASH FLOW
// =============================================================================

// ValueCashFlow values a single-stage free cash flow forecast.
// POST /api/dcf/value
func (h *Handler) ValueCashFlow(w http.ResponseWriter, r *http.Request) {
	var req CashFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := valuation.DiscountedCashFlow(valuation.CashFlowInput{
		BaseCashFlow: req.BaseCashFlow,
		Growth:       req.Growth,
		Discount:     req.Discount,
		Horizon:      req.Horizon,
	})
	if err != nil {
		writeEngineError(w, "Failed to value cash flows", err)
		return
	}
	writeCashFlow(w, res, req.MarketPrice)
}

// ValueTwoStage values a high-growth forecast followed by a terminal phase.
// POST /api/dcf/two-stage
func (h *Handler) ValueTwoStage(w http.ResponseWriter, r *http.Request) {
	var req TwoStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := valuation.TwoStage(valuation.TwoStageInput{
		BaseCashFlow:    req.BaseCashFlow,
		Discount:        req.Discount,
		HighGrowth:      req.HighGrowth,
		HighGrowthYears: req.HighGrowthYears,
		TerminalGrowth:  req.TerminalGrowth,
		TerminalYears:   req.TerminalYears,
		Convention:      valuation.TerminalConvention(req.Convention),
	})
	if err != nil {
		writeEngineError(w, "Failed to value cash flows", err)
		return
	}
	writeCashFlow(w, res, req.MarketPrice)
}

func writeCashFlow(w http.ResponseWriter, res valuation.CashFlowResult, marketPrice *float64) {
	comparison, err := compare(res.IntrinsicValue, marketPrice)
	if err != nil {
		writeEngineError(w, "Invalid market price", err)
		return
	}
	writeJSON(w, http.StatusOK, CashFlowDTO{
		Forecast:         roundAll(res.Forecast),
		PresentValues:    roundAll(res.PresentValues),
		PVForecast:       valuation.RoundFloat(res.PVForecast),
		TerminalCashFlow: valuation.RoundFloat(res.TerminalCashFlow),
		TerminalGrowth:   rate(res.TerminalGrowth),
		TerminalValue:    valuation.RoundFloat(res.TerminalValue),
		PVTerminal:       valuation.RoundFloat(res.PVTerminal),
		IntrinsicValue:   valuation.RoundFloat(res.IntrinsicValue),
		Comparison:       comparison,
	})
}

// =============================================================================
// LEADERBOARD
// =============================================================================

// ListLeaderboard returns the board in the requested order.
// GET /api/leaderboard?sort=result|error|created
func (h *Handler) ListLeaderboard(w http.ResponseWriter, r *http.Request) {
	key, err := leaderboard.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeEngineError(w, "Invalid sort key", err)
		return
	}
	records, err := h.Board.List(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leaderboard", err)
		return
	}

	dtos := make([]LeaderboardEntryDTO, 0, len(records))
	for i, rec := range records {
		dtos = append(dtos, toLeaderboardDTO(i+1, rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SubmitLeaderboard stores a calculator result.
// POST /api/leaderboard
func (h *Handler) SubmitLeaderboard(w http.ResponseWriter, r *http.Request) {
	var req LeaderboardSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind := leaderboard.Kind(req.Kind)
	switch kind {
	case leaderboard.KindTVM, leaderboard.KindBond, leaderboard.KindDDM, leaderboard.KindDCF:
	default:
		writeError(w, http.StatusBadRequest, "Invalid kind (use tvm, bond, ddm or dcf)", nil)
		return
	}

	rec, err := h.Board.Submit(r.Context(), leaderboard.Submission{
		Name:        req.Name,
		Kind:        kind,
		Calculation: req.Calculation,
		InputValue:  req.InputValue,
		Result:      req.Result,
		Periods:     req.Periods,
		Rate:        req.Rate,
		Note:        req.Note,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeEngineError(w, "Failed to submit result", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaderboardDTO(0, rec))
}

// SubmitPrediction scores and stores an intrinsic value prediction.
// POST /api/leaderboard/predictions
func (h *Handler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	var req PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Board.SubmitPrediction(r.Context(), leaderboard.Prediction{
		Name:        req.Name,
		Company:     req.Company,
		Prediction:  req.Prediction,
		MarketPrice: req.MarketPrice,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeEngineError(w, "Failed to submit prediction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaderboardDTO(0, rec))
}

// ResetLeaderboard clears every record.
// DELETE /api/leaderboard
func (h *Handler) ResetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := h.Board.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset leaderboard", err)
		return
	}
	log.Println("[Leaderboard] Cleared")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func toLeaderboardDTO(rank int, rec leaderboard.Record) LeaderboardEntryDTO {
	dto := LeaderboardEntryDTO{
		Rank:        rank,
		ID:          rec.ID,
		Name:        rec.Name,
		Kind:        string(rec.Kind),
		Calculation: rec.Calculation,
		InputValue:  rec.InputValue.StringFixed(valuation.MoneyPlaces),
		Result:      rec.Result.StringFixed(valuation.MoneyPlaces),
		Periods:     rec.Periods,
		Rate:        rec.Rate.String(),
		Note:        rec.Note,
		Metadata:    rec.Metadata,
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.Score != nil {
		dto.MarketPrice = rec.Score.MarketPrice.StringFixed(valuation.MoneyPlaces)
		dto.Error = rec.Score.Error.StringFixed(valuation.MoneyPlaces)
		dto.Status = string(rec.Score.Status)
	}
	return dto
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports store and cache reachability.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthDTO{Status: "ok", Store: "ok", Cache: "disabled"}
	if err := h.Store.Ping(r.Context()); err != nil {
		resp.Status, resp.Store = "degraded", err.Error()
	}
	if h.Cache != nil {
		resp.Cache = "ok"
		if p, ok := h.Cache.(pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				resp.Status, resp.Cache = "degraded", err.Error()
			}
		}
	}
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

// compare returns nil when no market price was given.
func compare(estimate float64, marketPrice *float64, dividends ...float64) (*MarketDTO, error) {
	if marketPrice == nil {
		return nil, nil
	}
	cmp, err := valuation.CompareSnapshot(valuation.MarketSnapshot{Price: marketPrice, Dividends: dividends}, estimate)
	if err != nil {
		return nil, err
	}
	dto := &MarketDTO{
		MarketPrice:       valuation.RoundFloat(cmp.Price),
		Status:            string(cmp.Status),
		CapitalGainsYield: rate(cmp.CapitalGainsYield),
	}
	if cmp.DividendYield != nil {
		dy, total := rate(*cmp.DividendYield), rate(*cmp.ExpectedTotalReturn)
		dto.DividendYield, dto.ExpectedTotalReturn = &dy, &total
	}
	return dto, nil
}

// rate rounds a decimal rate to basis-point precision for display.
func rate(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

func roundAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = valuation.RoundFloat(v)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine and leaderboard errors to a status and code.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	status, code := classify(err)
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: err.Error()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, leaderboard.ErrDuplicateName):
		return http.StatusConflict, "duplicate_name"
	case errors.Is(err, valuation.ErrDegenerateRate):
		return http.StatusUnprocessableEntity, "degenerate_rate"
	case errors.Is(err, valuation.ErrMissingMarketDatum):
		return http.StatusUnprocessableEntity, "missing_market_datum"
	case errors.Is(err, valuation.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity, "insufficient_history"
	case errors.Is(err, valuation.ErrOverflow):
		return http.StatusUnprocessableEntity, "overflow"
	case errors.Is(err, scenario.ErrUnknownScenario):
		return http.StatusNotFound, "unknown_scenario"
	case errors.Is(err, factory.ErrUnknownModel), errors.Is(err, factory.ErrUnknownParam), errors.Is(err, factory.ErrInvalidAxis):
		return http.StatusBadRequest, "invalid_grid"
	case errors.Is(err, valuation.ErrInvalidPeriod):
		return http.StatusBadRequest, "invalid_period"
	case errors.Is(err, valuation.ErrInvalidRate):
		return http.StatusBadRequest, "invalid_rate"
	case valuation.IsClientError(err), leaderboard.IsClientError(err):
		return http.StatusBadRequest, "invalid_input"
	}
	return http.StatusInternalServerError, ""
}
