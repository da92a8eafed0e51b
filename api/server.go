/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/tvm/*            Time value of money
  /api/bonds/*          Bond pricing
  /api/dividends/*      Dividend discount model
  /api/dcf/*            Discounted cash flow
  /api/grids/*          Sensitivity grids, presets, saved specs
  /api/leaderboard      Leaderboard
  /api/scenarios/*      Economic scenarios
  /api/health           Store and cache reachability
  /*                    Landing page

SECURITY NOTE:
  No authentication middleware. All endpoints are public, including
  DELETE /api/leaderboard.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Cache"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/tvm", func(r chi.Router) {
			r.Post("/", h.EvaluateTVM)
			r.Post("/sensitivity", h.TVMSensitivity)
		})

		r.Route("/bonds", func(r chi.Router) {
			r.Post("/price", h.PriceBond)
			r.Post("/price-years", h.PriceBondYears)
			r.Post("/sensitivity", h.BondSensitivity)
		})

		r.Route("/dividends", func(r chi.Router) {
			r.Post("/value", h.ValueDividends)
		})

		r.Route("/dcf", func(r chi.Router) {
			r.Post("/value", h.ValueCashFlow)
			r.Post("/two-stage", h.ValueTwoStage)
			r.Post("/sensitivity", h.CashFlowSensitivity)
		})

		r.Route("/grids", func(r chi.Router) {
			r.Post("/", h.BuildGrid)
			r.Get("/presets", h.ListPresets)
			r.Get("/presets/{name}", h.GetPreset)
			r.Route("/saved", func(r chi.Router) {
				r.Get("/", h.ListSavedGrids)
				r.Post("/", h.SaveGrid)
				r.Get("/{name}", h.GetSavedGrid)
				r.Get("/{name}/grid", h.RunSavedGrid)
				r.Delete("/{name}", h.DeleteSavedGrid)
			})
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", h.ListLeaderboard)
			r.Post("/", h.SubmitLeaderboard)
			r.Post("/predictions", h.SubmitPrediction)
			r.Delete("/", h.ResetLeaderboard)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/draw", h.DrawScenario)
		})
	})

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Valuation Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Valuation Engine API</h1>
<p>Bond, time value, dividend discount and discounted cash flow calculators.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/health">/api/health</a> - Health check</li>
<li><a href="/api/grids/presets">/api/grids/presets</a> - Sensitivity grid presets</li>
<li><a href="/api/grids/presets/dcf-default">/api/grids/presets/dcf-default</a> - Default DCF grid</li>
<li><a href="/api/leaderboard">/api/leaderboard</a> - Leaderboard</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Economic scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
