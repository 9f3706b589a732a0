package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries what NewRouter needs beyond the board handler.
type RouterConfig struct {
	// CSRFKey enables CSRF protection of form posts when non-nil.
	CSRFKey    []byte
	CSRFSecure bool
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// NewRouter builds the chi router for the board server.
func NewRouter(h *BoardHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)                  // structured access log

	r.Get("/health", HealthCheck)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	r.Handle("/static/*", staticHandler())

	// Page routes
	r.Group(func(r chi.Router) {
		r.Use(SecurityHeaders)
		if cfg.CSRFKey != nil {
			r.Use(CSRF(cfg.CSRFKey, cfg.CSRFSecure))
		}
		r.Get("/", h.Index)
		r.Get("/board", h.BoardState)
		r.Post("/signup", h.Signup)
		r.Post("/unregister", h.Unregister)
	})

	return r
}
