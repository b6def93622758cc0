package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/neexbeast/budgettrip/internal/destination"
)

const (
	msgInvalidBudget = "A valid budget is required."
	msgFetchFailed   = "Failed to fetch API data."
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	pipeline DestinationPipeline
	log      *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(pipeline DestinationPipeline, log *slog.Logger) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		log:      log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GetDestinations handles GET /api/destinations?budget=<int>&currency=<code>.
// A malformed budget is rejected before any cache or upstream work.
func (h *Handlers) GetDestinations(w http.ResponseWriter, r *http.Request) {
	budget, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("budget")), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgInvalidBudget})
		return
	}

	q := destination.BudgetQuery{Budget: budget, Currency: r.URL.Query().Get("currency")}.Normalize()

	records, err := h.pipeline.Run(r.Context(), q)
	if err != nil {
		h.log.Error("destination pipeline failed",
			"budget", q.Budget, "currency", q.Currency,
			"request_id", middleware.GetReqID(r.Context()), "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgFetchFailed})
		return
	}
	if records == nil {
		records = []destination.Record{}
	}

	writeJSON(w, http.StatusOK, records)
}

// HealthHandlerFunc returns an http.HandlerFunc that checks cache connectivity.
// Returns 200 if the cache answers, 503 otherwise.
func HealthHandlerFunc(store pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Error("health check: cache ping failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "cache": "error"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "cache": "ok"})
	}
}
