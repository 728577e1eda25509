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

// BodyMetricsRepository implements contracts.BodyMetricsRepository over
// Postgres. Entries are append-only; the merge engine reads the latest
// measurement per date.
type BodyMetricsRepository struct {
	pool *pgxpool.Pool
}

// NewBodyMetricsRepository creates a new body metrics repository
func NewBodyMetricsRepository(pool *pgxpool.Pool) *BodyMetricsRepository {
	return &BodyMetricsRepository{pool: pool}
}

const bodyMetricsColumns = `
	id, ts, date, weight_kg, weight_lb,
	bmi, body_fat_pct, body_fat_mass_kg, body_fat_mass_lb,
	subcutaneous_fat_pct, visceral_fat, body_water_pct,
	muscle_mass_kg, muscle_mass_lb, skeletal_muscle_kg, skeletal_muscle_lb,
	bone_mass_kg, bone_mass_lb, fat_free_mass_kg, fat_free_mass_lb,
	protein_pct, protein_kg, bmr_kcal, metabolic_age, body_type, source
`

// GetLatestByDate returns the most recent measurement on a date; nil if none.
func (r *BodyMetricsRepository) GetLatestByDate(ctx context.Context, date time.Time) (*contracts.BodyMetricsEntry, error) {
	query := `
		SELECT ` + bodyMetricsColumns + `
		FROM body_metrics
		WHERE date = $1
		ORDER BY ts DESC
		LIMIT 1
	`

	var e contracts.BodyMetricsEntry
	err := r.pool.QueryRow(ctx, query, date).Scan(
		&e.ID, &e.Timestamp, &e.Date, &e.WeightKg, &e.WeightLb,
		&e.BMI, &e.BodyFatPct, &e.BodyFatMassKg, &e.BodyFatMassLb,
		&e.SubcutaneousFat, &e.VisceralFat, &e.BodyWaterPct,
		&e.MuscleMassKg, &e.MuscleMassLb, &e.SkeletalMuscleKg, &e.SkeletalMuscleLb,
		&e.BoneMassKg, &e.BoneMassLb, &e.FatFreeMassKg, &e.FatFreeMassLb,
		&e.ProteinPct, &e.ProteinKg, &e.BMRKcal, &e.MetabolicAge, &e.BodyType, &e.Source,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Insert stores a new measurement.
func (r *BodyMetricsRepository) Insert(ctx context.Context, entry *contracts.BodyMetricsEntry) error {
	query := `
		INSERT INTO body_metrics (
			ts, date, weight_kg, weight_lb,
			bmi, body_fat_pct, body_fat_mass_kg, body_fat_mass_lb,
			subcutaneous_fat_pct, visceral_fat, body_water_pct,
			muscle_mass_kg, muscle_mass_lb, skeletal_muscle_kg, skeletal_muscle_lb,
			bone_mass_kg, bone_mass_lb, fat_free_mass_kg, fat_free_mass_lb,
			protein_pct, protein_kg, bmr_kcal, metabolic_age, body_type, source
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		entry.Timestamp, entry.Date, entry.WeightKg, entry.WeightLb,
		entry.BMI, entry.BodyFatPct, entry.BodyFatMassKg, entry.BodyFatMassLb,
		entry.SubcutaneousFat, entry.VisceralFat, entry.BodyWaterPct,
		entry.MuscleMassKg, entry.MuscleMassLb, entry.SkeletalMuscleKg, entry.SkeletalMuscleLb,
		entry.BoneMassKg, entry.BoneMassLb, entry.FatFreeMassKg, entry.FatFreeMassLb,
		entry.ProteinPct, entry.ProteinKg, entry.BMRKcal, entry.MetabolicAge, entry.BodyType, entry.Source,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert body metrics: %w", err)
	}
	return nil
}

// ListDates returns every date with at least one measurement, ascending.
func (r *BodyMetricsRepository) ListDates(ctx context.Context) ([]time.Time, error) {
	query := `
		SELECT DISTINCT date
		FROM body_metrics
		ORDER BY date ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
