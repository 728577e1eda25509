package readiness

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/pkg/config"
	"github.com/jose/sera/backend/pkg/logger"
)

// fakeSnapshotStore is an in-memory snapshot repository keyed by date.
type fakeSnapshotStore struct {
	byDate  map[time.Time]*contracts.DailySnapshot
	updates int
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{byDate: make(map[time.Time]*contracts.DailySnapshot)}
}

func (f *fakeSnapshotStore) add(snap *contracts.DailySnapshot) {
	f.byDate[snap.Date] = snap
}

func (f *fakeSnapshotStore) GetByDate(_ context.Context, date time.Time) (*contracts.DailySnapshot, error) {
	return f.byDate[date], nil
}

func (f *fakeSnapshotStore) GetLatest(_ context.Context) (*contracts.DailySnapshot, error) {
	var latest *contracts.DailySnapshot
	for _, snap := range f.byDate {
		if latest == nil || snap.Date.After(latest.Date) {
			latest = snap
		}
	}
	return latest, nil
}

func (f *fakeSnapshotStore) GetRange(_ context.Context, from, to time.Time) ([]*contracts.DailySnapshot, error) {
	var out []*contracts.DailySnapshot
	for _, snap := range f.byDate {
		if !snap.Date.Before(from) && snap.Date.Before(to) {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeSnapshotStore) UpsertMetrics(_ context.Context, snap *contracts.DailySnapshot) error {
	f.byDate[snap.Date] = snap
	return nil
}

func (f *fakeSnapshotStore) UpdateReadiness(_ context.Context, snap *contracts.DailySnapshot) error {
	f.byDate[snap.Date] = snap
	f.updates++
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "console",
	})
}

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

// seedHistory adds seven prior days with fixed HRV, sleep, and recovery.
func seedHistory(store *fakeSnapshotStore, hrv, sleep float64, recovery int) {
	for d := 22; d <= 28; d++ {
		store.add(&contracts.DailySnapshot{
			Date:          day(d),
			HRVMs:         fp(hrv),
			SleepHours:    fp(sleep),
			Strain:        fp(12.0),
			RecoveryScore: ip(recovery),
		})
	}
}

func TestComputeForDate_NoSnapshot(t *testing.T) {
	store := newFakeSnapshotStore()
	eng := NewEngine(store, DefaultConfig(), testLogger())

	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Zero(t, store.updates)
}

func TestComputeForDate_AllNormal(t *testing.T) {
	store := newFakeSnapshotStore()
	seedHistory(store, 80.0, 8.0, 85)
	store.add(&contracts.DailySnapshot{
		Date:          day(29),
		HRVMs:         fp(88.0),
		SleepHours:    fp(8.0),
		RecoveryScore: ip(85),
	})

	eng := NewEngine(store, DefaultConfig(), testLogger())
	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)
	require.NotNil(t, snap)
	require.NotNil(t, snap.Flags)

	assert.Empty(t, snap.Flags.Flags)
	assert.Equal(t, contracts.ZoneGreen, *snap.ReadinessZone)
	assert.Equal(t, "All primary signals within normal range.", *snap.Insight)

	// Components: recovery 85, HRV 88/80*100 = 110, sleep 8/8*100 = 100
	// Index: round(0.6*85 + 0.2*110 + 0.2*100) = round(93.0) = 93
	require.NotNil(t, snap.ReadinessIndex)
	assert.Equal(t, 93, *snap.ReadinessIndex)

	// Trend: (88-80)/80 = +10%
	require.NotNil(t, snap.Flags.HRVTrendPct)
	assert.InDelta(t, 10.0, *snap.Flags.HRVTrendPct, 1e-9)
	require.NotNil(t, snap.Flags.SleepTrendPct)
	assert.InDelta(t, 0.0, *snap.Flags.SleepTrendPct, 1e-9)

	// Sleep debt reported as zero even though the flag did not fire
	require.NotNil(t, snap.Flags.SleepDebtHours)
	assert.InDelta(t, 0.0, *snap.Flags.SleepDebtHours, 1e-9)

	// Baselines
	require.NotNil(t, snap.Flags.HRVBaseline)
	assert.InDelta(t, 80.0, *snap.Flags.HRVBaseline, 1e-9)
	require.NotNil(t, snap.Flags.RecoveryBaseline)
	assert.InDelta(t, 85.0, *snap.Flags.RecoveryBaseline, 1e-9)

	// Signal scores
	require.NotNil(t, snap.Flags.SignalScores.HRV)
	assert.Equal(t, 110, *snap.Flags.SignalScores.HRV)
	require.NotNil(t, snap.Flags.SignalScores.Sleep)
	assert.Equal(t, 100, *snap.Flags.SignalScores.Sleep)
	require.NotNil(t, snap.Flags.SignalScores.Recovery)
	assert.Equal(t, 85, *snap.Flags.SignalScores.Recovery)

	assert.Equal(t, 1, store.updates)
}

func TestComputeForDate_HRVLowIsStrict(t *testing.T) {
	tests := []struct {
		name  string
		hrv   float64
		fires bool
	}{
		{"below baseline", 79.9, true},
		{"equal to baseline", 80.0, false},
		{"above baseline", 80.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeSnapshotStore()
			seedHistory(store, 80.0, 8.0, 85)
			store.add(&contracts.DailySnapshot{
				Date:          day(29),
				HRVMs:         fp(tt.hrv),
				SleepHours:    fp(8.0),
				RecoveryScore: ip(85),
			})

			eng := NewEngine(store, DefaultConfig(), testLogger())
			snap, err := eng.ComputeForDate(context.Background(), day(29))

			require.NoError(t, err)
			assert.Equal(t, tt.fires, snap.Flags.Triggered(contracts.FlagHRVLow))
		})
	}
}

func TestComputeForDate_SleepDebtThreshold(t *testing.T) {
	tests := []struct {
		name  string
		sleep float64
		fires bool
	}{
		{"debt above threshold", 6.9, true},
		{"debt at threshold", 7.0, false},
		{"no debt", 8.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeSnapshotStore()
			seedHistory(store, 80.0, 8.0, 85)
			store.add(&contracts.DailySnapshot{
				Date:          day(29),
				HRVMs:         fp(85.0),
				SleepHours:    fp(tt.sleep),
				RecoveryScore: ip(85),
			})

			eng := NewEngine(store, DefaultConfig(), testLogger())
			snap, err := eng.ComputeForDate(context.Background(), day(29))

			require.NoError(t, err)
			assert.Equal(t, tt.fires, snap.Flags.Triggered(contracts.FlagSleepDebt))
		})
	}
}

func TestComputeForDate_RecoveryLowIsStrict(t *testing.T) {
	tests := []struct {
		name     string
		recovery int
		fires    bool
	}{
		{"below threshold", 69, true},
		{"at threshold", 70, false},
		{"above threshold", 90, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeSnapshotStore()
			seedHistory(store, 80.0, 8.0, 85)
			store.add(&contracts.DailySnapshot{
				Date:          day(29),
				HRVMs:         fp(85.0),
				SleepHours:    fp(8.0),
				RecoveryScore: ip(tt.recovery),
			})

			eng := NewEngine(store, DefaultConfig(), testLogger())
			snap, err := eng.ComputeForDate(context.Background(), day(29))

			require.NoError(t, err)
			assert.Equal(t, tt.fires, snap.Flags.Triggered(contracts.FlagRecoveryLow))
		})
	}
}

func TestComputeForDate_ZoneByFlagCount(t *testing.T) {
	store := newFakeSnapshotStore()
	seedHistory(store, 80.0, 8.0, 85)
	// Two flags: hrv_low (70 < 80) and recovery_low (60 < 70)
	store.add(&contracts.DailySnapshot{
		Date:          day(29),
		HRVMs:         fp(70.0),
		SleepHours:    fp(8.0),
		RecoveryScore: ip(60),
	})

	eng := NewEngine(store, DefaultConfig(), testLogger())
	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)
	assert.Equal(t, contracts.ZoneRed, *snap.ReadinessZone)
	assert.Equal(t, []string{contracts.FlagHRVLow, contracts.FlagRecoveryLow}, snap.Flags.Flags)
	assert.Equal(t, "HRV below 7-day baseline; recovery score < 70", *snap.Insight)
}

func TestComputeForDate_SingleFlagIsYellow(t *testing.T) {
	store := newFakeSnapshotStore()
	seedHistory(store, 80.0, 8.0, 85)
	store.add(&contracts.DailySnapshot{
		Date:          day(29),
		HRVMs:         fp(85.0),
		SleepHours:    fp(6.0), // 2h debt
		RecoveryScore: ip(85),
	})

	eng := NewEngine(store, DefaultConfig(), testLogger())
	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)
	assert.Equal(t, contracts.ZoneYellow, *snap.ReadinessZone)
	assert.Equal(t, "sleep debt > 1h (target 8h)", *snap.Insight)
}

func TestComputeForDate_ComponentCap(t *testing.T) {
	store := newFakeSnapshotStore()
	seedHistory(store, 40.0, 8.0, 85)
	// HRV ratio 100/40 = 250%, capped at 120
	store.add(&contracts.DailySnapshot{
		Date:          day(29),
		HRVMs:         fp(100.0),
		SleepHours:    fp(8.0),
		RecoveryScore: ip(85),
	})

	eng := NewEngine(store, DefaultConfig(), testLogger())
	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)
	require.NotNil(t, snap.Flags.SignalScores.HRV)
	assert.Equal(t, 120, *snap.Flags.SignalScores.HRV)

	// Index: round(0.6*85 + 0.2*120 + 0.2*100) = round(95.0) = 95
	assert.Equal(t, 95, *snap.ReadinessIndex)
}

func TestComputeForDate_IndexClampedAt100(t *testing.T) {
	store := newFakeSnapshotStore()
	seedHistory(store, 40.0, 8.0, 85)
	// Recovery 100, HRV capped 120, sleep 12/8 capped 120:
	// weighted = 60 + 24 + 24 = 108, clamped to 100
	store.add(&contracts.DailySnapshot{
		Date:          day(29),
		HRVMs:         fp(100.0),
		SleepHours:    fp(12.0),
		RecoveryScore: ip(100),
	})

	eng := NewEngine(store, DefaultConfig(), testLogger())
	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)
	assert.Equal(t, 100, *snap.ReadinessIndex)
}

func TestComputeForDate_MissingRecoveryFallback(t *testing.T) {
	store := newFakeSnapshotStore()
	// No history at all: baselines are nil, trends nil
	store.add(&contracts.DailySnapshot{
		Date: day(29),
		// Everything missing
	})

	eng := NewEngine(store, DefaultConfig(), testLogger())
	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)
	require.NotNil(t, snap)

	// All components fall back to the zero recovery anchor
	assert.Equal(t, 0, *snap.ReadinessIndex)
	assert.Equal(t, contracts.ZoneGreen, *snap.ReadinessZone)

	assert.Nil(t, snap.Flags.HRVBaseline)
	assert.Nil(t, snap.Flags.HRVTrendPct)
	assert.Nil(t, snap.Flags.SleepDebtHours)
	assert.Nil(t, snap.Flags.SignalScores.Recovery, "missing recovery stays nil in signal scores")
	require.NotNil(t, snap.Flags.SignalScores.HRV)
	assert.Equal(t, 0, *snap.Flags.SignalScores.HRV)
}

func TestComputeForDate_HRVFallsBackToRecovery(t *testing.T) {
	store := newFakeSnapshotStore()
	// History has sleep but no HRV, so the HRV baseline is nil
	for d := 22; d <= 28; d++ {
		store.add(&contracts.DailySnapshot{
			Date:       day(d),
			SleepHours: fp(8.0),
		})
	}
	store.add(&contracts.DailySnapshot{
		Date:          day(29),
		HRVMs:         fp(72.0),
		SleepHours:    fp(8.0),
		RecoveryScore: ip(80),
	})

	eng := NewEngine(store, DefaultConfig(), testLogger())
	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)

	// HRV component = recovery (80) without a baseline;
	// index = round(0.6*80 + 0.2*80 + 0.2*100) = round(84.0) = 84
	assert.Equal(t, 84, *snap.ReadinessIndex)
	assert.Equal(t, 80, *snap.Flags.SignalScores.HRV)
}

func TestComputeForDate_EmptyHistory(t *testing.T) {
	store := newFakeSnapshotStore()
	// First tracked day: no baselines exist yet
	store.add(&contracts.DailySnapshot{
		Date:          day(29),
		HRVMs:         fp(60.0),
		SleepHours:    fp(7.5),
		RecoveryScore: ip(80),
	})

	eng := NewEngine(store, DefaultConfig(), testLogger())
	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)
	require.NotNil(t, snap)

	// 0.5h debt stays under the 1h threshold, and without baselines
	// neither hrv_low nor any other flag can fire
	assert.Empty(t, snap.Flags.Flags)
	assert.Equal(t, contracts.ZoneGreen, *snap.ReadinessZone)

	// HRV component falls back to recovery (80); sleep = 7.5/8*100 = 93.75;
	// index = round(0.6*80 + 0.2*80 + 0.2*93.75) = round(82.75) = 83
	assert.Equal(t, 83, *snap.ReadinessIndex)

	assert.Nil(t, snap.Flags.HRVBaseline)
	assert.Nil(t, snap.Flags.HRVTrendPct)
	require.NotNil(t, snap.Flags.SleepDebtHours)
	assert.InDelta(t, 0.5, *snap.Flags.SleepDebtHours, 1e-9)
}

func TestComputeForDate_BaselineExcludesToday(t *testing.T) {
	store := newFakeSnapshotStore()
	seedHistory(store, 80.0, 8.0, 85)
	// Today's HRV of 200 must not drag its own baseline up
	store.add(&contracts.DailySnapshot{
		Date:          day(29),
		HRVMs:         fp(200.0),
		SleepHours:    fp(8.0),
		RecoveryScore: ip(85),
	})

	eng := NewEngine(store, DefaultConfig(), testLogger())
	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)
	assert.InDelta(t, 80.0, *snap.Flags.HRVBaseline, 1e-9)
}

func TestComputeForDate_BaselineSkipsNullDays(t *testing.T) {
	store := newFakeSnapshotStore()
	store.add(&contracts.DailySnapshot{Date: day(27), HRVMs: fp(60.0)})
	store.add(&contracts.DailySnapshot{Date: day(28)}) // HRV missing, skipped
	store.add(&contracts.DailySnapshot{
		Date:          day(29),
		HRVMs:         fp(70.0),
		SleepHours:    fp(8.0),
		RecoveryScore: ip(85),
	})

	eng := NewEngine(store, DefaultConfig(), testLogger())
	snap, err := eng.ComputeForDate(context.Background(), day(29))

	require.NoError(t, err)
	assert.InDelta(t, 60.0, *snap.Flags.HRVBaseline, 1e-9)
}
