package readiness

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/internal/merge"
)

func TestFormatTrend(t *testing.T) {
	tests := []struct {
		name string
		pct  *float64
		want string
	}{
		{"nil", nil, "n/a"},
		{"positive", fp(10.0), "+10.0%"},
		{"zero", fp(0.0), "+0.0%"},
		{"negative", fp(-3.25), "-3.2%"},
		{"small positive", fp(0.04), "+0.0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTrend(tt.pct))
		})
	}
}

func TestResolveWeightLb(t *testing.T) {
	t.Run("prefers stored pounds", func(t *testing.T) {
		snap := &contracts.DailySnapshot{WeightKg: fp(80.0), WeightLb: fp(179.0)}
		got := ResolveWeightLb(snap)
		require.NotNil(t, got)
		assert.Equal(t, 179.0, *got)
	})

	t.Run("derives from kilograms", func(t *testing.T) {
		snap := &contracts.DailySnapshot{WeightKg: fp(81.2)}
		got := ResolveWeightLb(snap)
		require.NotNil(t, got)
		assert.InDelta(t, 81.2*merge.KgToLb, *got, 1e-9)
	})

	t.Run("nil when absent", func(t *testing.T) {
		assert.Nil(t, ResolveWeightLb(&contracts.DailySnapshot{}))
	})
}

func TestFormatSnapshot_FullData(t *testing.T) {
	zone := contracts.ZoneGreen
	snap := &contracts.DailySnapshot{
		Date:               time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
		WeightLb:           fp(179.0),
		BodyFatPct:         fp(18.4),
		HRVMs:              fp(72.0),
		RHRBpm:             fp(48.0),
		SleepHours:         fp(7.5),
		SleepEfficiencyPct: fp(94.5),
		ReadinessIndex:     ip(83),
		ReadinessZone:      &zone,
	}

	got := FormatSnapshot(snap, fp(10.0), fp(-3.2))

	want := strings.Join([]string{
		"HEALTH SNAPSHOT — 2026-08-29",
		"• Weight: 179.0 lb | BF: 18.4%",
		"• HRV: 72.0 ms | RHR: 48.0 bpm",
		"• Sleep: 7.50h (Eff 94.5%)",
		"• Readiness: 83/100 (green)",
		"• Trend: HRV +10.0%, Sleep -3.2%",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestFormatSnapshot_MissingData(t *testing.T) {
	snap := &contracts.DailySnapshot{
		Date: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
	}

	got := FormatSnapshot(snap, nil, nil)

	// Card shape is fixed; every missing value renders as n/a
	want := strings.Join([]string{
		"HEALTH SNAPSHOT — 2026-08-29",
		"• Weight: n/a lb | BF: n/a%",
		"• HRV: n/a ms | RHR: n/a bpm",
		"• Sleep: n/ah (Eff n/a%)",
		"• Readiness: n/a/100 (n/a)",
		"• Trend: HRV n/a, Sleep n/a",
	}, "\n")
	assert.Equal(t, want, got)
}
