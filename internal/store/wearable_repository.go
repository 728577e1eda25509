package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jose/sera/backend/internal/contracts"
)

// WearableRepository implements contracts.WearableRepository over Postgres.
type WearableRepository struct {
	pool *pgxpool.Pool
}

// NewWearableRepository creates a new wearable summary repository
func NewWearableRepository(pool *pgxpool.Pool) *WearableRepository {
	return &WearableRepository{pool: pool}
}

// GetByDate retrieves the wearable summary row for a date; nil if none.
func (r *WearableRepository) GetByDate(ctx context.Context, date time.Time) (*contracts.WearableDaily, error) {
	query := `
		SELECT id, date, recovery_score, hrv_ms, rhr_bpm, respiratory_rate,
			sleep_hours, sleep_efficiency_pct, sleep_consistency_pct, sleep_disturbance_count,
			deep_sleep_min, rem_sleep_min,
			strain, avg_hr_day, avg_hr_sleep, spo2_pct, raw_payload, created_at
		FROM wearable_daily
		WHERE date = $1
	`

	var w contracts.WearableDaily
	err := r.pool.QueryRow(ctx, query, date).Scan(
		&w.ID, &w.Date, &w.RecoveryScore, &w.HRVMs, &w.RHRBpm, &w.RespiratoryRate,
		&w.SleepHours, &w.SleepEfficiencyPct, &w.SleepConsistencyPct, &w.SleepDisturbanceCount,
		&w.DeepSleepMin, &w.REMSleepMin,
		&w.Strain, &w.AvgHRDay, &w.AvgHRSleep, &w.SpO2Pct, &w.RawPayload, &w.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Upsert inserts or replaces the summary row for its date.
func (r *WearableRepository) Upsert(ctx context.Context, row *contracts.WearableDaily) error {
	query := `
		INSERT INTO wearable_daily (
			date, recovery_score, hrv_ms, rhr_bpm, respiratory_rate,
			sleep_hours, sleep_efficiency_pct, sleep_consistency_pct, sleep_disturbance_count,
			deep_sleep_min, rem_sleep_min,
			strain, avg_hr_day, avg_hr_sleep, spo2_pct, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (date) DO UPDATE SET
			recovery_score = EXCLUDED.recovery_score,
			hrv_ms = EXCLUDED.hrv_ms,
			rhr_bpm = EXCLUDED.rhr_bpm,
			respiratory_rate = EXCLUDED.respiratory_rate,
			sleep_hours = EXCLUDED.sleep_hours,
			sleep_efficiency_pct = EXCLUDED.sleep_efficiency_pct,
			sleep_consistency_pct = EXCLUDED.sleep_consistency_pct,
			sleep_disturbance_count = EXCLUDED.sleep_disturbance_count,
			deep_sleep_min = EXCLUDED.deep_sleep_min,
			rem_sleep_min = EXCLUDED.rem_sleep_min,
			strain = EXCLUDED.strain,
			avg_hr_day = EXCLUDED.avg_hr_day,
			avg_hr_sleep = EXCLUDED.avg_hr_sleep,
			spo2_pct = EXCLUDED.spo2_pct,
			raw_payload = EXCLUDED.raw_payload
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		row.Date, row.RecoveryScore, row.HRVMs, row.RHRBpm, row.RespiratoryRate,
		row.SleepHours, row.SleepEfficiencyPct, row.SleepConsistencyPct, row.SleepDisturbanceCount,
		row.DeepSleepMin, row.REMSleepMin,
		row.Strain, row.AvgHRDay, row.AvgHRSleep, row.SpO2Pct, row.RawPayload,
	).Scan(&row.ID, &row.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert wearable daily: %w", err)
	}
	return nil
}
