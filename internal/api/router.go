package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds and returns the Chi router with all routes configured.
// No route requires authentication; CORS is applied globally.
func NewRouter(handlers *Handlers, allowedOrigin string, store pinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(CORS(allowedOrigin))

	r.Get("/api/health", HealthHandlerFunc(store, log))
	r.Get("/api/destinations", handlers.GetDestinations)

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
