package contracts

import (
	"context"
	"time"
)

// Repository contracts between the engines and the persistence layer.
// All lookups return (nil, nil) when no row exists: data absence is not
// an error anywhere in the merge/readiness core.

// WearableRepository is the store for per-date wearable summary rows.
type WearableRepository interface {
	// GetByDate returns the summary row for a date, or nil if none exists.
	GetByDate(ctx context.Context, date time.Time) (*WearableDaily, error)

	// Upsert inserts or replaces the summary row for its date and fills
	// in the row ID.
	Upsert(ctx context.Context, row *WearableDaily) error
}

// BodyMetricsRepository is the store for body-composition measurements.
type BodyMetricsRepository interface {
	// GetLatestByDate returns the most recent measurement on a date, or
	// nil if none exists.
	GetLatestByDate(ctx context.Context, date time.Time) (*BodyMetricsEntry, error)

	// Insert stores a new measurement.
	Insert(ctx context.Context, entry *BodyMetricsEntry) error

	// ListDates returns every date with at least one measurement, ascending.
	ListDates(ctx context.Context) ([]time.Time, error)
}

// SnapshotRepository is the store for canonical daily snapshots.
//
// UpsertMetrics and UpdateReadiness split the write path so the two
// engines cannot clobber each other's fields.
type SnapshotRepository interface {
	// GetByDate returns the snapshot for a date, or nil if none exists.
	GetByDate(ctx context.Context, date time.Time) (*DailySnapshot, error)

	// GetLatest returns the most recent snapshot, or nil if none exists.
	GetLatest(ctx context.Context) (*DailySnapshot, error)

	// GetRange returns snapshots with from <= date < to, ascending by date.
	GetRange(ctx context.Context, from, to time.Time) ([]*DailySnapshot, error)

	// UpsertMetrics writes the raw canonical metric fields and provenance
	// for the snapshot's date, creating the row if needed. Readiness
	// fields are left untouched.
	UpsertMetrics(ctx context.Context, snap *DailySnapshot) error

	// UpdateReadiness writes the readiness fields for the snapshot's
	// date. Raw metric fields are left untouched.
	UpdateReadiness(ctx context.Context, snap *DailySnapshot) error
}
