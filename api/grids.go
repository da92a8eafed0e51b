package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/valuation-engine/cache"
	"github.com/warp/valuation-engine/factory"
	"github.com/warp/valuation-engine/store/sqlite"
	"github.com/warp/valuation-engine/valuation"
)

// =============================================================================
// GRID PIPELINE
// =============================================================================

// computeGrid returns the encoded grid for spec, from the cache when present.
func (h *Handler) computeGrid(ctx context.Context, spec factory.GridSpec) ([]byte, bool, error) {
	key, keyErr := cache.Key("grid", spec)
	if keyErr == nil && h.Cache != nil {
		data, ok, err := h.Cache.Get(ctx, key)
		if err != nil {
			log.Printf("[Cache] Get %s failed: %v", key, err)
		} else if ok {
			return data, true, nil
		}
	}

	grid, err := factory.Build(spec)
	if err != nil {
		return nil, false, err
	}
	data, err := json.Marshal(toGridDTO(spec, grid))
	if err != nil {
		return nil, false, fmt.Errorf("encode grid: %w", err)
	}

	if keyErr == nil && h.Cache != nil {
		if err := h.Cache.Set(ctx, key, data, h.CacheTTL); err != nil {
			log.Printf("[Cache] Set %s failed: %v", key, err)
		}
	}
	return data, false, nil
}

func (h *Handler) serveGrid(w http.ResponseWriter, r *http.Request, spec factory.GridSpec) {
	data, hit, err := h.computeGrid(r.Context(), spec)
	if err != nil {
		writeEngineError(w, "Failed to build grid", err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func toGridDTO(spec factory.GridSpec, g *valuation.Grid) GridDTO {
	dto := GridDTO{
		Name:      spec.Name,
		Model:     spec.Model,
		RowParam:  g.RowName,
		ColParam:  g.ColName,
		RowValues: g.RowValues,
		ColValues: g.ColValues,
		Cells:     make([][]*float64, len(g.Cells)),
	}
	for i, row := range g.Rounded() {
		dto.Cells[i] = make([]*float64, len(row))
		for j, d := range row {
			if d == nil {
				dto.Invalid = append(dto.Invalid, InvalidCellDTO{Row: i, Col: j, Error: g.Cells[i][j].Err.Error()})
				continue
			}
			v := d.InexactFloat64()
			dto.Cells[i][j] = &v
		}
	}
	return dto
}

// =============================================================================
// GRID ENDPOINTS
// =============================================================================

// BuildGrid computes any declarative grid spec.
// POST /api/grids
func (h *Handler) BuildGrid(w http.ResponseWriter, r *http.Request) {
	var spec factory.GridSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.serveGrid(w, r, spec)
}

// TVMSensitivity sweeps a time value conversion over rate and periods.
// POST /api/tvm/sensitivity
func (h *Handler) TVMSensitivity(w http.ResponseWriter, r *http.Request) {
	var req TVMSensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	spec, _ := factory.Preset("tvm-rate-years")
	spec.Name = ""
	if req.Kind != "" {
		spec.Model = "tvm:" + req.Kind
	}
	if req.Amount != 0 {
		spec.Base["amount"] = req.Amount
	}
	spec.Rows = req.Rates.spec("rate", spec.Rows)
	spec.Cols = req.Periods.spec("periods", spec.Cols)
	h.serveGrid(w, r, spec)
}

// BondSensitivity sweeps a bond price over yield and coupon rates.
// POST /api/bonds/sensitivity
func (h *Handler) BondSensitivity(w http.ResponseWriter, r *http.Request) {
	var req BondSensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	spec, _ := factory.Preset("bond-yield-coupon")
	spec.Name = ""
	if req.Settlement != "" || req.Maturity != "" {
		spec.Model = "bond"
		spec.Settlement = req.Settlement
		spec.Maturity = req.Maturity
		spec.Frequency = req.Frequency
		delete(spec.Base, "years")
	} else if req.Years != 0 {
		spec.Base["years"] = float64(req.Years)
	}
	if req.FaceValue != 0 {
		spec.Base["face_value"] = req.FaceValue
	}
	spec.Rows = req.Yields.spec("yield_rate", spec.Rows)
	spec.Cols = req.Coupons.spec("coupon_rate", spec.Cols)
	h.serveGrid(w, r, spec)
}

// CashFlowSensitivity sweeps intrinsic value over growth and discount rates.
// POST /api/dcf/sensitivity
func (h *Handler) CashFlowSensitivity(w http.ResponseWriter, r *http.Request) {
	var req CashFlowSensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	spec, _ := factory.Preset("dcf-default")
	spec.Name = ""
	if req.BaseCashFlow != 0 {
		spec.Base["base_cash_flow"] = req.BaseCashFlow
	}
	if req.Horizon != 0 {
		spec.Base["horizon"] = float64(req.Horizon)
	}
	spec.Rows = req.Growth.spec("growth", spec.Rows)
	spec.Cols = req.Discount.spec("discount", spec.Cols)
	h.serveGrid(w, r, spec)
}

// =============================================================================
// PRESETS
// =============================================================================

// ListPresets returns the preset names and accepted models.
// GET /api/grids/presets
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"presets": factory.PresetNames(),
		"models":  factory.Models(),
	})
}

// GetPreset computes a preset grid.
// GET /api/grids/presets/{name}
func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	spec, ok := factory.Preset(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "Preset not found", nil)
		return
	}
	h.serveGrid(w, r, spec)
}

// =============================================================================
// SAVED SPECS
// =============================================================================

// ListSavedGrids returns every stored grid spec.
// GET /api/grids/saved
func (h *Handler) ListSavedGrids(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListGridSpecs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list grid specs", err)
		return
	}

	dtos := make([]GridSpecDTO, 0, len(records))
	for _, rec := range records {
		dto, err := toGridSpecDTO(rec)
		if err != nil {
			log.Printf("[Grids] Skipping unreadable spec %s: %v", rec.Name, err)
			continue
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveGrid validates a spec by building it, then stores it under its name.
// Saving an existing name replaces the spec and bumps its version.
// POST /api/grids/saved
func (h *Handler) SaveGrid(w http.ResponseWriter, r *http.Request) {
	var spec factory.GridSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if _, err := factory.Build(spec); err != nil {
		writeEngineError(w, "Invalid grid spec", err)
		return
	}

	body, err := json.Marshal(spec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode grid spec", err)
		return
	}
	ctx := r.Context()
	if err := h.Store.SaveGridSpec(ctx, sqlite.GridSpecRecord{
		Name:     spec.Name,
		Model:    spec.Model,
		SpecJSON: string(body),
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save grid spec", err)
		return
	}

	rec, err := h.Store.GetGridSpec(ctx, spec.Name)
	if err != nil || rec == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload grid spec", err)
		return
	}
	dto, err := toGridSpecDTO(*rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode grid spec", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// GetSavedGrid returns a stored spec.
// GET /api/grids/saved/{name}
func (h *Handler) GetSavedGrid(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadSaved(w, r)
	if !ok {
		return
	}
	dto, err := toGridSpecDTO(*rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode grid spec", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// RunSavedGrid computes a stored spec.
// GET /api/grids/saved/{name}/grid
func (h *Handler) RunSavedGrid(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadSaved(w, r)
	if !ok {
		return
	}
	spec, err := factory.ParseJSON([]byte(rec.SpecJSON))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode grid spec", err)
		return
	}
	h.serveGrid(w, r, spec)
}

// DeleteSavedGrid removes a stored spec.
// DELETE /api/grids/saved/{name}
func (h *Handler) DeleteSavedGrid(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadSaved(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteGridSpec(r.Context(), rec.Name); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete grid spec", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadSaved(w http.ResponseWriter, r *http.Request) (*sqlite.GridSpecRecord, bool) {
	rec, err := h.Store.GetGridSpec(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load grid spec", err)
		return nil, false
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Grid spec not found", nil)
		return nil, false
	}
	return rec, true
}

func toGridSpecDTO(rec sqlite.GridSpecRecord) (GridSpecDTO, error) {
	spec, err := factory.ParseJSON([]byte(rec.SpecJSON))
	if err != nil {
		return GridSpecDTO{}, err
	}
	return GridSpecDTO{
		Name:      rec.Name,
		Model:     rec.Model,
		Version:   rec.Version,
		Spec:      spec,
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}, nil
}
