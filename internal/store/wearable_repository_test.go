package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose/sera/backend/internal/contracts"
)

func TestWearableRepository_UpsertAndGet(t *testing.T) {
	pool := testPool(t)
	repo := NewWearableRepository(pool)
	ctx := context.Background()

	date := time.Date(1999, 3, 1, 0, 0, 0, 0, time.UTC)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM wearable_daily WHERE date = $1", date)
	})

	hrv := 68.5
	sleep := 7.25
	recovery := 81
	row := &contracts.WearableDaily{
		Date:          date,
		RecoveryScore: &recovery,
		HRVMs:         &hrv,
		SleepHours:    &sleep,
		RawPayload:    []byte(`{"recovery":[]}`),
	}

	require.NoError(t, repo.Upsert(ctx, row))
	firstID := row.ID
	assert.NotZero(t, firstID)

	// Upsert on the same date replaces, it never duplicates
	hrv2 := 71.0
	row2 := &contracts.WearableDaily{Date: date, HRVMs: &hrv2}
	require.NoError(t, repo.Upsert(ctx, row2))
	assert.Equal(t, firstID, row2.ID)

	got, err := repo.GetByDate(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.HRVMs)
	assert.Equal(t, 71.0, *got.HRVMs)
	assert.Nil(t, got.RecoveryScore, "re-upsert without recovery clears the column")
	assert.Nil(t, got.SleepHours)
}

func TestWearableRepository_GetByDateMissing(t *testing.T) {
	pool := testPool(t)
	repo := NewWearableRepository(pool)

	got, err := repo.GetByDate(context.Background(), time.Date(1997, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, got)
}
