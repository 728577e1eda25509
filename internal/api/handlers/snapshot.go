package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/internal/merge"
	"github.com/jose/sera/backend/pkg/logger"
)

// SnapshotHandler handles canonical daily snapshot endpoints
type SnapshotHandler struct {
	snapshots contracts.SnapshotRepository
	merger    *merge.Engine
	logger    *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(snapshots contracts.SnapshotRepository, merger *merge.Engine, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
		merger:    merger,
		logger:    log,
	}
}

// GetDaily returns the snapshot for a date, re-merging it first so the
// response reflects the latest source rows.
// GET /api/snapshots/daily/{date}
func (h *SnapshotHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, ok := parseDateVar(w, r)
	if !ok {
		return
	}

	snap, err := h.merger.MergeForDate(ctx, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to merge snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to merge snapshot")
		return
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, "No data for date")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// GetLatest returns the most recent snapshot
// GET /api/snapshots/latest
func (h *SnapshotHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, err := h.snapshots.GetLatest(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest snapshot")
		return
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, "No snapshots exist yet")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// GetRange returns snapshots in [from, to], ascending by date
// GET /api/snapshots/range?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *SnapshotHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
		return
	}
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, "'to' must not be before 'from'")
		return
	}

	// GetRange is exclusive on the upper bound
	snaps, err := h.snapshots.GetRange(ctx, merge.Day(from), merge.Day(to).AddDate(0, 0, 1))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get snapshot range")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve snapshots")
		return
	}

	respondJSON(w, http.StatusOK, snaps)
}

// Helper functions

func parseDateVar(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := mux.Vars(r)["date"]
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)")
		return time.Time{}, false
	}
	return date, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
