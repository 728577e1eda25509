package merge

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/pkg/logger"
)

// KgToLb is the fixed kilogram to pound conversion constant.
const KgToLb = 2.20462

// Config holds the merge engine tunables.
type Config struct {
	// KgToLb is the kilogram to pound conversion factor
	KgToLb float64
}

// DefaultConfig returns the standard merge configuration.
func DefaultConfig() Config {
	return Config{KgToLb: KgToLb}
}

// Engine reconciles per-source daily records into the canonical snapshot.
// SSOT: snapshot raw metric fields are written only by this engine.
type Engine struct {
	wearables contracts.WearableRepository
	body      contracts.BodyMetricsRepository
	snapshots contracts.SnapshotRepository
	config    Config
	logger    *logger.Logger
}

// NewEngine creates a new merge engine.
func NewEngine(
	wearables contracts.WearableRepository,
	body contracts.BodyMetricsRepository,
	snapshots contracts.SnapshotRepository,
	cfg Config,
	log *logger.Logger,
) *Engine {
	return &Engine{
		wearables: wearables,
		body:      body,
		snapshots: snapshots,
		config:    cfg,
		logger:    log,
	}
}

// Day truncates a timestamp to its UTC calendar date. All per-date keys
// in the store use this normalization.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MergeForDate merges the wearable and body-composition records for a
// date into the canonical snapshot, creating or updating it.
//
// Returns (nil, nil) when no source has any record for the date; an
// existing snapshot is then left untouched. Every raw metric field is
// recomputed from current source state on every call, so the merge is
// idempotent and safe to re-run.
func (e *Engine) MergeForDate(ctx context.Context, date time.Time) (*contracts.DailySnapshot, error) {
	day := Day(date)

	wearable, err := e.wearables.GetByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load wearable record: %w", err)
	}

	// Latest measurement of the day wins for the scale
	body, err := e.body.GetLatestByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load body metrics: %w", err)
	}

	if wearable == nil && body == nil {
		return nil, nil
	}

	snap, err := e.snapshots.GetByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		snap = &contracts.DailySnapshot{Date: day}
	}

	res := resolver{
		wearable: wearable,
		body:     body,
		kgToLb:   e.config.KgToLb,
	}

	values := make(map[Metric]*float64, len(allMetrics))
	for _, metric := range allMetrics {
		values[metric] = res.choose(metric)
	}

	// Overwrite every raw field, including back to nil when no source
	// currently supplies a value. Merge is a full recomputation, not
	// additive.
	snap.HRVMs = values[MetricHRV]
	snap.RHRBpm = values[MetricRHR]
	snap.SleepHours = values[MetricSleepHours]
	snap.SleepEfficiencyPct = values[MetricSleepEfficiencyPct]
	snap.DeepSleepPct = values[MetricDeepSleepPct]
	snap.REMSleepPct = values[MetricREMSleepPct]
	snap.SleepConsistencyPct = values[MetricSleepConsistencyPct]
	snap.SleepDisturbanceCount = floatToInt(values[MetricSleepDisturbanceCount])
	snap.WeightKg = values[MetricWeightKg]
	snap.WeightLb = values[MetricWeightLb]
	snap.BodyFatPct = values[MetricBodyFatPct]
	snap.HydrationPct = values[MetricHydrationPct]
	snap.RecoveryScore = floatToInt(values[MetricRecoveryScore])
	snap.Strain = values[MetricStrain]
	snap.RespiratoryRate = values[MetricRespiratoryRate]
	snap.SpO2Pct = values[MetricSpO2Pct]

	// Provenance
	if wearable != nil {
		id := wearable.ID
		snap.WearableID = &id
	} else {
		snap.WearableID = nil
	}

	if err := e.snapshots.UpsertMetrics(ctx, snap); err != nil {
		return nil, fmt.Errorf("upsert snapshot: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"date":         day.Format("2006-01-02"),
		"has_wearable": wearable != nil,
		"has_body":     body != nil,
	}).Debug("Merged daily snapshot")

	return snap, nil
}

func floatToInt(v *float64) *int {
	if v == nil {
		return nil
	}
	i := int(math.Round(*v))
	return &i
}
