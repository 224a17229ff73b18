package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unitesync/attribution-engine/internal/cache"
	"github.com/unitesync/attribution-engine/internal/domain"
	"github.com/unitesync/attribution-engine/internal/pkg/logger"
	"github.com/unitesync/attribution-engine/internal/repository/postgres"
)

// ReportStore loads persisted reports.
type ReportStore interface {
	Latest(ctx context.Context) (*domain.Report, error)
	Get(ctx context.Context, runID string) (*domain.Report, error)
}

// ReportGetter reads the cached latest report.
type ReportGetter interface {
	GetLatest(ctx context.Context) (*domain.Report, error)
}

// Handlers serves report reads, cache first with a store fallthrough.
type Handlers struct {
	cache ReportGetter
	store ReportStore
}

// NewHandlers creates the report handlers. Either dependency may be
// nil; the handler degrades to whichever source is available.
func NewHandlers(c ReportGetter, s ReportStore) *Handlers {
	return &Handlers{cache: c, store: s}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LatestReport returns the most recent attribution report.
func (h *Handlers) LatestReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		rep, err := h.cache.GetLatest(ctx)
		if err == nil {
			writeJSON(w, http.StatusOK, rep)
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			logger.Warn("report cache read failed, falling back to store", "error", err.Error())
		}
	}

	if h.store == nil {
		writeError(w, http.StatusNotFound, "no report available")
		return
	}
	rep, err := h.store.Latest(ctx)
	if errors.Is(err, postgres.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no report available")
		return
	}
	if err != nil {
		logger.Error("loading latest report", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "loading report failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ReportByRun returns one report by run ID.
func (h *Handlers) ReportByRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "report store not configured")
		return
	}

	runID := chi.URLParam(r, "runID")
	rep, err := h.store.Get(r.Context(), runID)
	if errors.Is(err, postgres.ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		logger.Error("loading report", "run_id", runID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "loading report failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
