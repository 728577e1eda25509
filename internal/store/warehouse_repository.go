package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jose/sera/backend/internal/contracts"
)

// WarehouseRepository implements contracts.WarehouseRepository: the raw
// per-object wearable tables (recovery, cycles, sleep activities,
// workouts) kept alongside the daily summary.
type WarehouseRepository struct {
	pool *pgxpool.Pool
}

// NewWarehouseRepository creates a new warehouse repository
func NewWarehouseRepository(pool *pgxpool.Pool) *WarehouseRepository {
	return &WarehouseRepository{pool: pool}
}

// UpsertRecovery inserts or replaces the recovery row for its date.
func (r *WarehouseRepository) UpsertRecovery(ctx context.Context, row *contracts.WearableRecovery) error {
	query := `
		INSERT INTO wearable_recovery (
			date, cycle_id, sleep_id, user_id,
			recovery_score, resting_heart_rate, hrv_rmssd_milli, spo2_percentage,
			skin_temp_celsius, user_calibrating, api_created_at, api_updated_at, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (date) DO UPDATE SET
			cycle_id = EXCLUDED.cycle_id,
			sleep_id = EXCLUDED.sleep_id,
			user_id = EXCLUDED.user_id,
			recovery_score = EXCLUDED.recovery_score,
			resting_heart_rate = EXCLUDED.resting_heart_rate,
			hrv_rmssd_milli = EXCLUDED.hrv_rmssd_milli,
			spo2_percentage = EXCLUDED.spo2_percentage,
			skin_temp_celsius = EXCLUDED.skin_temp_celsius,
			user_calibrating = EXCLUDED.user_calibrating,
			api_created_at = EXCLUDED.api_created_at,
			api_updated_at = EXCLUDED.api_updated_at,
			raw_payload = EXCLUDED.raw_payload
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		row.Date, row.CycleID, row.SleepID, row.UserID,
		row.RecoveryScore, row.RestingHeartRate, row.HRVRmssdMilli, row.SpO2Percentage,
		row.SkinTempCelsius, row.UserCalibrating, row.APICreatedAt, row.APIUpdatedAt, row.RawPayload,
	).Scan(&row.ID)
	if err != nil {
		return fmt.Errorf("upsert recovery: %w", err)
	}
	return nil
}

// UpsertCycle inserts or replaces a cycle row keyed by (date, cycle_id).
func (r *WarehouseRepository) UpsertCycle(ctx context.Context, row *contracts.WearableCycle) error {
	query := `
		INSERT INTO wearable_cycles (
			date, cycle_id, user_id, start_at, end_at, timezone_offset, score_state,
			strain, kilojoule, average_heart_rate, max_heart_rate,
			api_created_at, api_updated_at, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (date, cycle_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			timezone_offset = EXCLUDED.timezone_offset,
			score_state = EXCLUDED.score_state,
			strain = EXCLUDED.strain,
			kilojoule = EXCLUDED.kilojoule,
			average_heart_rate = EXCLUDED.average_heart_rate,
			max_heart_rate = EXCLUDED.max_heart_rate,
			api_created_at = EXCLUDED.api_created_at,
			api_updated_at = EXCLUDED.api_updated_at,
			raw_payload = EXCLUDED.raw_payload
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		row.Date, row.CycleID, row.UserID, row.Start, row.End, row.TimezoneOffset, row.ScoreState,
		row.Strain, row.Kilojoule, row.AverageHeartRate, row.MaxHeartRate,
		row.APICreatedAt, row.APIUpdatedAt, row.RawPayload,
	).Scan(&row.ID)
	if err != nil {
		return fmt.Errorf("upsert cycle: %w", err)
	}
	return nil
}

// UpsertSleepActivity inserts or replaces a sleep activity keyed by sleep_id.
func (r *WarehouseRepository) UpsertSleepActivity(ctx context.Context, row *contracts.WearableSleepActivity) error {
	query := `
		INSERT INTO wearable_sleep_activities (
			sleep_id, cycle_id, user_id, date, start_at, end_at, timezone_offset, nap, score_state,
			total_in_bed_time_milli, total_awake_time_milli, total_no_data_time_milli,
			total_light_sleep_time_milli, total_slow_wave_sleep_time_milli, total_rem_sleep_time_milli,
			sleep_cycle_count, disturbance_count,
			respiratory_rate, sleep_performance_percentage, sleep_consistency_percentage,
			sleep_efficiency_percentage, api_created_at, api_updated_at, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (sleep_id) DO UPDATE SET
			cycle_id = EXCLUDED.cycle_id,
			user_id = EXCLUDED.user_id,
			date = EXCLUDED.date,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			timezone_offset = EXCLUDED.timezone_offset,
			nap = EXCLUDED.nap,
			score_state = EXCLUDED.score_state,
			total_in_bed_time_milli = EXCLUDED.total_in_bed_time_milli,
			total_awake_time_milli = EXCLUDED.total_awake_time_milli,
			total_no_data_time_milli = EXCLUDED.total_no_data_time_milli,
			total_light_sleep_time_milli = EXCLUDED.total_light_sleep_time_milli,
			total_slow_wave_sleep_time_milli = EXCLUDED.total_slow_wave_sleep_time_milli,
			total_rem_sleep_time_milli = EXCLUDED.total_rem_sleep_time_milli,
			sleep_cycle_count = EXCLUDED.sleep_cycle_count,
			disturbance_count = EXCLUDED.disturbance_count,
			respiratory_rate = EXCLUDED.respiratory_rate,
			sleep_performance_percentage = EXCLUDED.sleep_performance_percentage,
			sleep_consistency_percentage = EXCLUDED.sleep_consistency_percentage,
			sleep_efficiency_percentage = EXCLUDED.sleep_efficiency_percentage,
			api_created_at = EXCLUDED.api_created_at,
			api_updated_at = EXCLUDED.api_updated_at,
			raw_payload = EXCLUDED.raw_payload
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		row.SleepID, row.CycleID, row.UserID, row.Date, row.Start, row.End, row.TimezoneOffset, row.Nap, row.ScoreState,
		row.TotalInBedTimeMilli, row.TotalAwakeTimeMilli, row.TotalNoDataTimeMilli,
		row.TotalLightSleepTimeMilli, row.TotalSlowWaveSleepTimeMilli, row.TotalREMSleepTimeMilli,
		row.SleepCycleCount, row.DisturbanceCount,
		row.RespiratoryRate, row.SleepPerformancePercentage, row.SleepConsistencyPercentage,
		row.SleepEfficiencyPercentage, row.APICreatedAt, row.APIUpdatedAt, row.RawPayload,
	).Scan(&row.ID)
	if err != nil {
		return fmt.Errorf("upsert sleep activity: %w", err)
	}
	return nil
}

// UpsertWorkout inserts or replaces a workout keyed by workout_id.
func (r *WarehouseRepository) UpsertWorkout(ctx context.Context, row *contracts.WearableWorkout) error {
	query := `
		INSERT INTO wearable_workouts (
			workout_id, user_id, date, sport_name, score_state,
			start_at, end_at, timezone_offset,
			strain, average_heart_rate, max_heart_rate, kilojoule, distance_meter,
			api_created_at, api_updated_at, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (workout_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			date = EXCLUDED.date,
			sport_name = EXCLUDED.sport_name,
			score_state = EXCLUDED.score_state,
			start_at = EXCLUDED.start_at,
			end_at = EXCLUDED.end_at,
			timezone_offset = EXCLUDED.timezone_offset,
			strain = EXCLUDED.strain,
			average_heart_rate = EXCLUDED.average_heart_rate,
			max_heart_rate = EXCLUDED.max_heart_rate,
			kilojoule = EXCLUDED.kilojoule,
			distance_meter = EXCLUDED.distance_meter,
			api_created_at = EXCLUDED.api_created_at,
			api_updated_at = EXCLUDED.api_updated_at,
			raw_payload = EXCLUDED.raw_payload
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		row.WorkoutID, row.UserID, row.Date, row.SportName, row.ScoreState,
		row.Start, row.End, row.TimezoneOffset,
		row.Strain, row.AverageHeartRate, row.MaxHeartRate, row.Kilojoule, row.DistanceMeter,
		row.APICreatedAt, row.APIUpdatedAt, row.RawPayload,
	).Scan(&row.ID)
	if err != nil {
		return fmt.Errorf("upsert workout: %w", err)
	}
	return nil
}
