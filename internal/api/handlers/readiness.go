package handlers

import (
	"net/http"
	"time"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/internal/merge"
	"github.com/jose/sera/backend/internal/readiness"
	"github.com/jose/sera/backend/pkg/logger"
	"github.com/jose/sera/backend/pkg/redis"
)

const latestReadinessCacheKey = "readiness:latest"
const latestReadinessCacheTTL = 5 * time.Minute

// ReadinessHandler handles readiness endpoints
type ReadinessHandler struct {
	snapshots contracts.SnapshotRepository
	merger    *merge.Engine
	engine    *readiness.Engine
	cache     *redis.Cache
	logger    *logger.Logger
}

// NewReadinessHandler creates a new readiness handler
func NewReadinessHandler(
	snapshots contracts.SnapshotRepository,
	merger *merge.Engine,
	engine *readiness.Engine,
	cache *redis.Cache,
	log *logger.Logger,
) *ReadinessHandler {
	return &ReadinessHandler{
		snapshots: snapshots,
		merger:    merger,
		engine:    engine,
		cache:     cache,
		logger:    log,
	}
}

// ReadinessResponse is the readiness view of one snapshot, including the
// formatted health snapshot card.
type ReadinessResponse struct {
	Date           string                    `json:"date"`
	ReadinessIndex *int                      `json:"readiness_index"`
	ReadinessZone  *string                   `json:"readiness_zone"`
	Flags          *contracts.ReadinessFlags `json:"flags"`
	Insight        *string                   `json:"insight"`
	HealthSnapshot string                    `json:"health_snapshot"`
}

// GetByDate re-merges and recomputes readiness for a date
// GET /api/readiness/{date}
func (h *ReadinessHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, ok := parseDateVar(w, r)
	if !ok {
		return
	}

	if _, err := h.merger.MergeForDate(ctx, date); err != nil {
		h.logger.WithError(err).Error("Failed to merge snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to merge snapshot")
		return
	}

	snap, err := h.engine.ComputeForDate(ctx, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute readiness")
		respondError(w, http.StatusInternalServerError, "Failed to compute readiness")
		return
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, "No data for date")
		return
	}

	respondJSON(w, http.StatusOK, buildReadinessResponse(snap))
}

// GetLatest returns the readiness view of the most recent snapshot
// GET /api/readiness/latest
func (h *ReadinessHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cached ReadinessResponse
	if found, err := h.cache.Get(ctx, latestReadinessCacheKey, &cached); err == nil && found {
		respondJSON(w, http.StatusOK, cached)
		return
	}

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

	// Compute on demand when the scheduler has not run for this date yet
	if snap.ReadinessIndex == nil {
		snap, err = h.engine.ComputeForDate(ctx, snap.Date)
		if err != nil {
			h.logger.WithError(err).Error("Failed to compute readiness")
			respondError(w, http.StatusInternalServerError, "Failed to compute readiness")
			return
		}
	}

	resp := buildReadinessResponse(snap)
	if err := h.cache.Set(ctx, latestReadinessCacheKey, resp, latestReadinessCacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache latest readiness")
	}

	respondJSON(w, http.StatusOK, resp)
}

func buildReadinessResponse(snap *contracts.DailySnapshot) ReadinessResponse {
	var hrvTrend, sleepTrend *float64
	if snap.Flags != nil {
		hrvTrend = snap.Flags.HRVTrendPct
		sleepTrend = snap.Flags.SleepTrendPct
	}

	return ReadinessResponse{
		Date:           snap.Date.Format("2006-01-02"),
		ReadinessIndex: snap.ReadinessIndex,
		ReadinessZone:  snap.ReadinessZone,
		Flags:          snap.Flags,
		Insight:        snap.Insight,
		HealthSnapshot: readiness.FormatSnapshot(snap, hrvTrend, sleepTrend),
	}
}
