/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  - Context-based
  - Middleware support
  - URL parameters for scenario and preset ids

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind a proxy
  3. Logger:     One structured logrus entry per request
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests from the booking form

ROUTE GROUPS:
  /api/health           Liveness
  /api/tariff/*         Tariff snapshot, history, presets, refresh
  /api/quotes/*         Quote calculation and summary
  /api/bookings         Booking hand-off
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. Tariff writes are expected to sit behind
  the deployment's admin network.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/petguardian/quote-engine/logger"
	"github.com/sirupsen/logrus"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Tariff routes
		r.Route("/tariff", func(r chi.Router) {
			r.Get("/", h.GetTariff)
			r.Put("/", h.UpdateTariff)
			r.Post("/reset", h.ResetTariff)
			r.Get("/history", h.ListTariffHistory)
			r.Get("/presets", h.ListPresets)
			r.Post("/presets/{id}", h.ApplyPreset)
			r.Post("/refresh", h.TriggerRefresh)
			r.Get("/refresh-runs", h.ListRefreshRuns)
		})

		// Quote routes
		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", h.GetQuote)
			r.Post("/", h.CreateQuote)
			r.Post("/summary", h.QuoteSummary)
		})

		// Booking routes
		r.Post("/bookings", h.SubmitBooking)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/{id}", h.RunScenario)
		})
	})

	return r
}

// requestLogger logs every request once it has been served.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			entry := log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("Request failed")
				return
			}
			entry.Debug("Request served")
		})
	}
}
