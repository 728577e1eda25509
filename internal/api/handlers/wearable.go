package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/internal/ingest"
	"github.com/jose/sera/backend/internal/merge"
	"github.com/jose/sera/backend/pkg/logger"
	"github.com/jose/sera/backend/pkg/redis"
)

// WearableHandler handles wearable ingestion endpoints
type WearableHandler struct {
	wearables contracts.WearableRepository
	merger    *merge.Engine
	importer  *ingest.Importer
	cache     *redis.Cache
	logger    *logger.Logger
}

// NewWearableHandler creates a new wearable handler
func NewWearableHandler(
	wearables contracts.WearableRepository,
	merger *merge.Engine,
	importer *ingest.Importer,
	cache *redis.Cache,
	log *logger.Logger,
) *WearableHandler {
	return &WearableHandler{
		wearables: wearables,
		merger:    merger,
		importer:  importer,
		cache:     cache,
		logger:    log,
	}
}

// IngestWearableRequest is a manual wearable summary submission. All
// metric fields are optional; omitted fields stay absent for the day.
type IngestWearableRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, required

	RecoveryScore   *int     `json:"recovery_score"`
	HRVMs           *float64 `json:"hrv_ms"`
	RHRBpm          *float64 `json:"rhr_bpm"`
	RespiratoryRate *float64 `json:"respiratory_rate"`

	SleepHours            *float64 `json:"sleep_hours"`
	SleepEfficiencyPct    *float64 `json:"sleep_efficiency_pct"`
	SleepConsistencyPct   *float64 `json:"sleep_consistency_pct"`
	SleepDisturbanceCount *int     `json:"sleep_disturbance_count"`
	DeepSleepMin          *float64 `json:"deep_sleep_min"`
	REMSleepMin           *float64 `json:"rem_sleep_min"`

	Strain     *float64 `json:"strain"`
	AvgHRDay   *float64 `json:"avg_hr_day"`
	AvgHRSleep *float64 `json:"avg_hr_sleep"`
	SpO2Pct    *float64 `json:"spo2_pct"`
}

// Ingest stores a manual wearable summary and re-merges the date
// POST /api/wearable/ingest
func (h *WearableHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req IngestWearableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)")
		return
	}

	row := &contracts.WearableDaily{
		Date:                  merge.Day(date),
		RecoveryScore:         req.RecoveryScore,
		HRVMs:                 req.HRVMs,
		RHRBpm:                req.RHRBpm,
		RespiratoryRate:       req.RespiratoryRate,
		SleepHours:            req.SleepHours,
		SleepEfficiencyPct:    req.SleepEfficiencyPct,
		SleepConsistencyPct:   req.SleepConsistencyPct,
		SleepDisturbanceCount: req.SleepDisturbanceCount,
		DeepSleepMin:          req.DeepSleepMin,
		REMSleepMin:           req.REMSleepMin,
		Strain:                req.Strain,
		AvgHRDay:              req.AvgHRDay,
		AvgHRSleep:            req.AvgHRSleep,
		SpO2Pct:               req.SpO2Pct,
	}

	if err := h.wearables.Upsert(ctx, row); err != nil {
		h.logger.WithError(err).Error("Failed to upsert wearable summary")
		respondError(w, http.StatusInternalServerError, "Failed to store wearable data")
		return
	}

	snap, err := h.merger.MergeForDate(ctx, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to merge snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to merge snapshot")
		return
	}

	h.invalidateLatest(ctx)
	respondJSON(w, http.StatusOK, snap)
}

// ImportRequest triggers an upstream API import. With only "date" set a
// single day is imported; "from"/"to" import an inclusive range.
type ImportRequest struct {
	Date string `json:"date"`
	From string `json:"from"`
	To   string `json:"to"`
}

// ImportResponse reports the outcome of an import run
type ImportResponse struct {
	Status   string `json:"status"`
	Imported int    `json:"imported"`
}

// Import pulls wearable data from the upstream API
// POST /api/wearable/import
func (h *WearableHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var from, to time.Time
	var err error
	switch {
	case req.Date != "":
		from, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
			return
		}
		to = from
	case req.From != "" && req.To != "":
		from, err = time.Parse("2006-01-02", req.From)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
			return
		}
		to, err = time.Parse("2006-01-02", req.To)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
			return
		}
	default:
		// Default: yesterday
		from = time.Now().UTC().AddDate(0, 0, -1)
		to = from
	}

	imported, err := h.importer.ImportRange(ctx, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Wearable import failed")
		respondError(w, http.StatusInternalServerError, "Import failed")
		return
	}

	h.invalidateLatest(ctx)
	respondJSON(w, http.StatusOK, ImportResponse{
		Status:   "success",
		Imported: imported,
	})
}

// GetDaily returns the wearable summary row for a date
// GET /api/wearable/daily/{date}
func (h *WearableHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, ok := parseDateVar(w, r)
	if !ok {
		return
	}

	row, err := h.wearables.GetByDate(ctx, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get wearable summary")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve wearable data")
		return
	}
	if row == nil {
		respondError(w, http.StatusNotFound, "No wearable data for date")
		return
	}

	respondJSON(w, http.StatusOK, row)
}

func (h *WearableHandler) invalidateLatest(ctx context.Context) {
	if err := h.cache.Delete(ctx, latestReadinessCacheKey); err != nil {
		h.logger.WithError(err).Warn("Failed to invalidate readiness cache")
	}
}
