/*
scenarios.go - Economic scenario endpoints

PURPOSE:
  Serves the scenario catalogue used by the time value calculators. A draw
  picks a scenario (or uses the requested one) and a rate uniformly within
  its range; POST /api/tvm performs the same draw when no rate is given.

ENDPOINTS:
  GET /api/scenarios              Catalogue in display order
  GET /api/scenarios/draw         Random scenario and rate
  GET /api/scenarios/draw?name=X  Rate drawn from scenario X (id or name)

SEE ALSO:
  - scenario/scenario.go: Catalogue and draws
*/
package api

import (
	"net/http"

	"github.com/warp/valuation-engine/scenario"
)

// ListScenarios returns the catalogue.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenario.All())
}

// DrawScenario draws a rate, optionally from a named scenario.
func (h *Handler) DrawScenario(w http.ResponseWriter, r *http.Request) {
	drawn, err := h.draw(r.URL.Query().Get("name"))
	if err != nil {
		writeEngineError(w, "Unknown scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, drawn)
}
