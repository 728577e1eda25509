package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose/sera/backend/internal/external/whoop"
)

func fp(v float64) *float64 { return &v }
func i64p(v int64) *int64   { return &v }
func ip(v int) *int         { return &v }
func bp(v bool) *bool       { return &v }

func sleepWith(nap bool, inBedMilli, deepMilli, remMilli int64, disturbances int) whoop.Sleep {
	return whoop.Sleep{
		Nap: bp(nap),
		Score: &whoop.SleepScore{
			SleepEfficiencyPercentage:  fp(94.5),
			SleepConsistencyPercentage: fp(81.0),
			RespiratoryRate:            fp(14.8),
			StageSummary: &whoop.SleepStageSummary{
				TotalInBedTimeMilli:         i64p(inBedMilli),
				TotalSlowWaveSleepTimeMilli: i64p(deepMilli),
				TotalREMSleepTimeMilli:      i64p(remMilli),
				DisturbanceCount:            ip(disturbances),
			},
		},
	}
}

func TestBuildDailySummary_Recovery(t *testing.T) {
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	recoveries := []whoop.Recovery{{
		Score: &whoop.RecoveryScore{
			RecoveryScore:    fp(84.6),
			RestingHeartRate: fp(48.0),
			HRVRmssdMilli:    fp(72.3),
			SpO2Percentage:   fp(97.1),
		},
	}}

	daily := buildDailySummary(date, recoveries, nil, nil)

	assert.Equal(t, date, daily.Date)
	require.NotNil(t, daily.RecoveryScore)
	assert.Equal(t, 85, *daily.RecoveryScore, "recovery score is rounded to an int")
	assert.Equal(t, fp(72.3), daily.HRVMs)
	assert.Equal(t, fp(48.0), daily.RHRBpm)
	assert.Equal(t, fp(97.1), daily.SpO2Pct)
}

func TestBuildDailySummary_SleepAggregation(t *testing.T) {
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	// Main sleep 7h, short second sleep 1h, nap ignored
	sleeps := []whoop.Sleep{
		sleepWith(false, 7*3_600_000, 90*60_000, 110*60_000, 8),
		sleepWith(false, 1*3_600_000, 10*60_000, 12*60_000, 1),
		sleepWith(true, 2*3_600_000, 30*60_000, 20*60_000, 3),
	}

	daily := buildDailySummary(date, nil, sleeps, nil)

	require.NotNil(t, daily.SleepHours)
	assert.InDelta(t, 8.0, *daily.SleepHours, 1e-9, "naps are excluded from total sleep")

	require.NotNil(t, daily.DeepSleepMin)
	assert.InDelta(t, 100.0, *daily.DeepSleepMin, 1e-9)
	require.NotNil(t, daily.REMSleepMin)
	assert.InDelta(t, 122.0, *daily.REMSleepMin, 1e-9)

	require.NotNil(t, daily.SleepDisturbanceCount)
	assert.Equal(t, 9, *daily.SleepDisturbanceCount)

	// Percentage scores come from the longest sleep
	assert.Equal(t, fp(94.5), daily.SleepEfficiencyPct)
	assert.Equal(t, fp(81.0), daily.SleepConsistencyPct)
	assert.Equal(t, fp(14.8), daily.RespiratoryRate)
}

func TestBuildDailySummary_SleepHoursRounded(t *testing.T) {
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	// 7h 23m 17s in bed = 7.38805... hours, rounds to 7.39
	sleeps := []whoop.Sleep{sleepWith(false, 26_597_000, 0, 0, 0)}

	daily := buildDailySummary(date, nil, sleeps, nil)

	require.NotNil(t, daily.SleepHours)
	assert.InDelta(t, 7.39, *daily.SleepHours, 1e-9)
}

func TestBuildDailySummary_StrainIsMaxCycle(t *testing.T) {
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	cycles := []whoop.Cycle{
		{Score: &whoop.CycleScore{Strain: fp(9.4), AverageHeartRate: fp(62.0)}},
		{Score: &whoop.CycleScore{Strain: fp(14.2)}},
		{Score: nil},
	}

	daily := buildDailySummary(date, nil, nil, cycles)

	require.NotNil(t, daily.Strain)
	assert.Equal(t, 14.2, *daily.Strain)
	assert.Equal(t, fp(62.0), daily.AvgHRDay)
}

func TestBuildDailySummary_Empty(t *testing.T) {
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	daily := buildDailySummary(date, nil, nil, nil)

	assert.Nil(t, daily.RecoveryScore)
	assert.Nil(t, daily.SleepHours)
	assert.Nil(t, daily.DeepSleepMin)
	assert.Nil(t, daily.SleepDisturbanceCount)
	assert.Nil(t, daily.Strain)
	assert.Nil(t, daily.RawPayload)
}

func TestBuildDailySummary_UnscoredSleepIgnored(t *testing.T) {
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	sleeps := []whoop.Sleep{{ScoreState: "PENDING_SCORE", Score: nil}}

	daily := buildDailySummary(date, nil, sleeps, nil)

	assert.Nil(t, daily.SleepHours)
	assert.Nil(t, daily.SleepEfficiencyPct)
}
