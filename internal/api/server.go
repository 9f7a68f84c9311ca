// Package api exposes the claim lifecycle over HTTP. Identity arrives from
// the external provider as trusted headers; this layer checks presence and
// passes the actor through to the service, which enforces role membership.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/air-restore/restore-cli/internal/config"
)

// NewRouter builds the API router with logging, recovery, CORS, and
// per-client throttling around the claim handlers.
func NewRouter(h *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Actor-Id", "X-Actor-Name", "X-Actor-Role"},
		MaxAge:         300,
	}))
	if cfg.RequestsPerSecond > 0 {
		r.Use(throttle(cfg.RequestsPerSecond, cfg.Burst))
	}

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/claims", func(r chi.Router) {
			r.Post("/", h.SubmitClaim)
			r.Get("/", h.ListClaims)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetClaim)
				r.Patch("/", h.UpdateClaim)
				r.Post("/evidence", h.AppendEvidence)
				r.Post("/decision", h.DecideClaim)
				r.Post("/vegetation", h.AttachVegetation)
			})
		})
		r.Get("/credits", h.ListCredits)
		r.Get("/stats", h.Stats)
	})

	return r
}
