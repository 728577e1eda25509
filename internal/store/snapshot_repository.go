package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jose/sera/backend/internal/contracts"
)

// SnapshotRepository implements contracts.SnapshotRepository over Postgres.
// The unique-by-date invariant is enforced with an atomic
// ON CONFLICT (date) upsert, so concurrent merges for the same date
// cannot create duplicate rows.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

const snapshotColumns = `
	id, date,
	hrv_ms, rhr_bpm, sleep_hours, sleep_efficiency_pct,
	deep_sleep_pct, rem_sleep_pct, sleep_consistency_pct, sleep_disturbance_count,
	weight_kg, weight_lb, bodyfat_pct, hydration_pct,
	recovery_score, strain, respiratory_rate, spo2_pct,
	readiness_index, readiness_zone, flags, insight,
	wearable_id, created_at
`

// GetByDate retrieves the snapshot for a date; nil if none exists.
func (r *SnapshotRepository) GetByDate(ctx context.Context, date time.Time) (*contracts.DailySnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM daily_snapshots
		WHERE date = $1
	`

	snap, err := scanSnapshot(r.pool.QueryRow(ctx, query, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return snap, err
}

// GetLatest retrieves the most recent snapshot; nil if none exists.
func (r *SnapshotRepository) GetLatest(ctx context.Context) (*contracts.DailySnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM daily_snapshots
		ORDER BY date DESC
		LIMIT 1
	`

	snap, err := scanSnapshot(r.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return snap, err
}

// GetRange retrieves snapshots with from <= date < to, ascending by date.
func (r *SnapshotRepository) GetRange(ctx context.Context, from, to time.Time) ([]*contracts.DailySnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM daily_snapshots
		WHERE date >= $1 AND date < $2
		ORDER BY date ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*contracts.DailySnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// UpsertMetrics writes the raw canonical metric fields and provenance for
// the snapshot's date. Readiness columns are never touched here.
func (r *SnapshotRepository) UpsertMetrics(ctx context.Context, snap *contracts.DailySnapshot) error {
	query := `
		INSERT INTO daily_snapshots (
			date,
			hrv_ms, rhr_bpm, sleep_hours, sleep_efficiency_pct,
			deep_sleep_pct, rem_sleep_pct, sleep_consistency_pct, sleep_disturbance_count,
			weight_kg, weight_lb, bodyfat_pct, hydration_pct,
			recovery_score, strain, respiratory_rate, spo2_pct,
			wearable_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (date) DO UPDATE SET
			hrv_ms = EXCLUDED.hrv_ms,
			rhr_bpm = EXCLUDED.rhr_bpm,
			sleep_hours = EXCLUDED.sleep_hours,
			sleep_efficiency_pct = EXCLUDED.sleep_efficiency_pct,
			deep_sleep_pct = EXCLUDED.deep_sleep_pct,
			rem_sleep_pct = EXCLUDED.rem_sleep_pct,
			sleep_consistency_pct = EXCLUDED.sleep_consistency_pct,
			sleep_disturbance_count = EXCLUDED.sleep_disturbance_count,
			weight_kg = EXCLUDED.weight_kg,
			weight_lb = EXCLUDED.weight_lb,
			bodyfat_pct = EXCLUDED.bodyfat_pct,
			hydration_pct = EXCLUDED.hydration_pct,
			recovery_score = EXCLUDED.recovery_score,
			strain = EXCLUDED.strain,
			respiratory_rate = EXCLUDED.respiratory_rate,
			spo2_pct = EXCLUDED.spo2_pct,
			wearable_id = EXCLUDED.wearable_id
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		snap.Date,
		snap.HRVMs, snap.RHRBpm, snap.SleepHours, snap.SleepEfficiencyPct,
		snap.DeepSleepPct, snap.REMSleepPct, snap.SleepConsistencyPct, snap.SleepDisturbanceCount,
		snap.WeightKg, snap.WeightLb, snap.BodyFatPct, snap.HydrationPct,
		snap.RecoveryScore, snap.Strain, snap.RespiratoryRate, snap.SpO2Pct,
		snap.WearableID,
	).Scan(&snap.ID, &snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert snapshot metrics: %w", err)
	}
	return nil
}

// UpdateReadiness writes the readiness fields for the snapshot's date.
func (r *SnapshotRepository) UpdateReadiness(ctx context.Context, snap *contracts.DailySnapshot) error {
	var flagsJSON []byte
	if snap.Flags != nil {
		var err error
		flagsJSON, err = json.Marshal(snap.Flags)
		if err != nil {
			return fmt.Errorf("marshal readiness flags: %w", err)
		}
	}

	query := `
		UPDATE daily_snapshots
		SET readiness_index = $2,
			readiness_zone = $3,
			flags = $4,
			insight = $5
		WHERE date = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		snap.Date, snap.ReadinessIndex, snap.ReadinessZone, flagsJSON, snap.Insight,
	)
	if err != nil {
		return fmt.Errorf("update snapshot readiness: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no snapshot row for date %s", snap.Date.Format("2006-01-02"))
	}
	return nil
}

// scanSnapshot scans one snapshot row from a pgx row
func scanSnapshot(row pgx.Row) (*contracts.DailySnapshot, error) {
	var s contracts.DailySnapshot
	var flagsJSON []byte

	err := row.Scan(
		&s.ID, &s.Date,
		&s.HRVMs, &s.RHRBpm, &s.SleepHours, &s.SleepEfficiencyPct,
		&s.DeepSleepPct, &s.REMSleepPct, &s.SleepConsistencyPct, &s.SleepDisturbanceCount,
		&s.WeightKg, &s.WeightLb, &s.BodyFatPct, &s.HydrationPct,
		&s.RecoveryScore, &s.Strain, &s.RespiratoryRate, &s.SpO2Pct,
		&s.ReadinessIndex, &s.ReadinessZone, &flagsJSON, &s.Insight,
		&s.WearableID, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(flagsJSON) > 0 {
		var flags contracts.ReadinessFlags
		if err := json.Unmarshal(flagsJSON, &flags); err != nil {
			return nil, fmt.Errorf("unmarshal readiness flags: %w", err)
		}
		s.Flags = &flags
	}

	return &s, nil
}
