package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/internal/merge"
	"github.com/jose/sera/backend/pkg/logger"
	"github.com/jose/sera/backend/pkg/redis"
)

// BodyMetricsHandler handles body-composition endpoints
type BodyMetricsHandler struct {
	body   contracts.BodyMetricsRepository
	merger *merge.Engine
	cache  *redis.Cache
	logger *logger.Logger
}

// NewBodyMetricsHandler creates a new body metrics handler
func NewBodyMetricsHandler(
	body contracts.BodyMetricsRepository,
	merger *merge.Engine,
	cache *redis.Cache,
	log *logger.Logger,
) *BodyMetricsHandler {
	return &BodyMetricsHandler{
		body:   body,
		merger: merger,
		cache:  cache,
		logger: log,
	}
}

// IngestBodyMetricsRequest is a scale reading submission. Weight may be
// given in either unit; the merge engine derives the other.
type IngestBodyMetricsRequest struct {
	Timestamp string `json:"timestamp"` // RFC3339; defaults to now
	Source    string `json:"source"`    // defaults to "manual"

	WeightKg *float64 `json:"weight_kg"`
	WeightLb *float64 `json:"weight_lb"`

	BMI              *float64 `json:"bmi"`
	BodyFatPct       *float64 `json:"body_fat_pct"`
	BodyFatMassKg    *float64 `json:"body_fat_mass_kg"`
	BodyFatMassLb    *float64 `json:"body_fat_mass_lb"`
	SubcutaneousFat  *float64 `json:"subcutaneous_fat_pct"`
	VisceralFat      *float64 `json:"visceral_fat"`
	BodyWaterPct     *float64 `json:"body_water_pct"`
	MuscleMassKg     *float64 `json:"muscle_mass_kg"`
	MuscleMassLb     *float64 `json:"muscle_mass_lb"`
	SkeletalMuscleKg *float64 `json:"skeletal_muscle_kg"`
	SkeletalMuscleLb *float64 `json:"skeletal_muscle_lb"`
	BoneMassKg       *float64 `json:"bone_mass_kg"`
	BoneMassLb       *float64 `json:"bone_mass_lb"`
	FatFreeMassKg    *float64 `json:"fat_free_mass_kg"`
	FatFreeMassLb    *float64 `json:"fat_free_mass_lb"`
	ProteinPct       *float64 `json:"protein_pct"`
	ProteinKg        *float64 `json:"protein_kg"`
	BMRKcal          *float64 `json:"bmr_kcal"`
	MetabolicAge     *int     `json:"metabolic_age"`
	BodyType         *string  `json:"body_type"`
}

// entryFromRequest validates a submission and converts it to a store entry.
func entryFromRequest(req *IngestBodyMetricsRequest) (*contracts.BodyMetricsEntry, error) {
	if req.WeightKg == nil && req.WeightLb == nil {
		return nil, errMissingWeight
	}

	ts := time.Now().UTC()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			return nil, errBadTimestamp
		}
		ts = parsed.UTC()
	}

	source := req.Source
	if source == "" {
		source = "manual"
	}

	return &contracts.BodyMetricsEntry{
		Timestamp:        ts,
		Date:             merge.Day(ts),
		WeightKg:         req.WeightKg,
		WeightLb:         req.WeightLb,
		BMI:              req.BMI,
		BodyFatPct:       req.BodyFatPct,
		BodyFatMassKg:    req.BodyFatMassKg,
		BodyFatMassLb:    req.BodyFatMassLb,
		SubcutaneousFat:  req.SubcutaneousFat,
		VisceralFat:      req.VisceralFat,
		BodyWaterPct:     req.BodyWaterPct,
		MuscleMassKg:     req.MuscleMassKg,
		MuscleMassLb:     req.MuscleMassLb,
		SkeletalMuscleKg: req.SkeletalMuscleKg,
		SkeletalMuscleLb: req.SkeletalMuscleLb,
		BoneMassKg:       req.BoneMassKg,
		BoneMassLb:       req.BoneMassLb,
		FatFreeMassKg:    req.FatFreeMassKg,
		FatFreeMassLb:    req.FatFreeMassLb,
		ProteinPct:       req.ProteinPct,
		ProteinKg:        req.ProteinKg,
		BMRKcal:          req.BMRKcal,
		MetabolicAge:     req.MetabolicAge,
		BodyType:         req.BodyType,
		Source:           source,
	}, nil
}

var (
	errMissingWeight = errors.New("at least one of weight_kg or weight_lb is required")
	errBadTimestamp  = errors.New("invalid timestamp format (expected RFC3339)")
)

// Ingest stores a body-composition measurement and re-merges its date
// POST /api/body/ingest
func (h *BodyMetricsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req IngestBodyMetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := entryFromRequest(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.body.Insert(ctx, entry); err != nil {
		h.logger.WithError(err).Error("Failed to insert body metrics")
		respondError(w, http.StatusInternalServerError, "Failed to store body metrics")
		return
	}

	snap, err := h.merger.MergeForDate(ctx, entry.Date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to merge snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to merge snapshot")
		return
	}

	if err := h.cache.Delete(ctx, latestReadinessCacheKey); err != nil {
		h.logger.WithError(err).Warn("Failed to invalidate readiness cache")
	}

	respondJSON(w, http.StatusOK, snap)
}

// IngestBatch stores several measurements at once, then re-merges each
// affected date exactly once. Useful for backfilling scale history.
// POST /api/body/ingest/batch
func (h *BodyMetricsHandler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Entries []IngestBodyMetricsRequest `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Entries) == 0 {
		respondError(w, http.StatusBadRequest, "entries is empty")
		return
	}

	dates := make(map[time.Time]struct{})
	for i := range req.Entries {
		entry, err := entryFromRequest(&req.Entries[i])
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("entry %d: %s", i, err))
			return
		}

		if err := h.body.Insert(ctx, entry); err != nil {
			h.logger.WithError(err).WithField("index", i).Error("Failed to insert body metrics")
			respondError(w, http.StatusInternalServerError, "Failed to store body metrics")
			return
		}
		dates[entry.Date] = struct{}{}
	}

	merged := 0
	for date := range dates {
		if _, err := h.merger.MergeForDate(ctx, date); err != nil {
			h.logger.WithError(err).WithField("date", date.Format("2006-01-02")).Error("Failed to merge snapshot")
			respondError(w, http.StatusInternalServerError, "Failed to merge snapshot")
			return
		}
		merged++
	}

	if err := h.cache.Delete(ctx, latestReadinessCacheKey); err != nil {
		h.logger.WithError(err).Warn("Failed to invalidate readiness cache")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"inserted":     len(req.Entries),
		"dates_merged": merged,
	})
}

// GetDaily returns the latest measurement on a date
// GET /api/body/daily/{date}
func (h *BodyMetricsHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, ok := parseDateVar(w, r)
	if !ok {
		return
	}

	entry, err := h.body.GetLatestByDate(ctx, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get body metrics")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve body metrics")
		return
	}
	if entry == nil {
		respondError(w, http.StatusNotFound, "No body metrics for date")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// ListDates returns every date with at least one measurement
// GET /api/body/dates
func (h *BodyMetricsHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dates, err := h.body.ListDates(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list body metric dates")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve dates")
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format("2006-01-02"))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dates": formatted,
		"count": len(formatted),
	})
}
