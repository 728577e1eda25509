package readiness

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/internal/merge"
	"github.com/jose/sera/backend/pkg/logger"
)

// componentCap bounds the HRV and sleep ratio components: a great night
// can help, but not by more than 120 points before weighting.
const componentCap = 120.0

// Config holds the readiness engine tunables.
type Config struct {
	// SleepTargetHours is the nightly sleep target (v1: fixed 8h)
	SleepTargetHours float64

	// SleepDebtThresholdHours is the debt above which sleep_debt fires
	SleepDebtThresholdHours float64

	// RecoveryLowThreshold fires recovery_low when today's score is
	// strictly below it
	RecoveryLowThreshold int

	// BaselineLookbackDays is the trailing window (excluding today) for
	// baseline means
	BaselineLookbackDays int
}

// DefaultConfig returns the SERA v1 readiness rules.
func DefaultConfig() Config {
	return Config{
		SleepTargetHours:        8.0,
		SleepDebtThresholdHours: 1.0,
		RecoveryLowThreshold:    70,
		BaselineLookbackDays:    7,
	}
}

// Engine computes and persists readiness metrics onto daily snapshots.
// SSOT: snapshot readiness fields are written only by this engine.
type Engine struct {
	snapshots contracts.SnapshotRepository
	config    Config
	logger    *logger.Logger
}

// NewEngine creates a new readiness engine.
func NewEngine(snapshots contracts.SnapshotRepository, cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		snapshots: snapshots,
		config:    cfg,
		logger:    log,
	}
}

// ComputeForDate computes readiness for a date from its snapshot and the
// trailing baseline window, persists the result onto the snapshot, and
// returns it.
//
// Returns (nil, nil) when no snapshot exists for the date: readiness is
// never computed standalone from raw source records.
func (e *Engine) ComputeForDate(ctx context.Context, date time.Time) (*contracts.DailySnapshot, error) {
	day := merge.Day(date)

	snap, err := e.snapshots.GetByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return nil, nil
	}

	// Trailing window, strictly before today
	start := day.AddDate(0, 0, -e.config.BaselineLookbackDays)
	history, err := e.snapshots.GetRange(ctx, start, day)
	if err != nil {
		return nil, fmt.Errorf("load baseline history: %w", err)
	}

	hrvBaseline := mean(collect(history, func(s *contracts.DailySnapshot) *float64 { return s.HRVMs }))
	sleepBaseline := mean(collect(history, func(s *contracts.DailySnapshot) *float64 { return s.SleepHours }))
	strainBaseline := mean(collect(history, func(s *contracts.DailySnapshot) *float64 { return s.Strain }))
	recoveryBaseline := mean(collect(history, func(s *contracts.DailySnapshot) *float64 {
		if s.RecoveryScore == nil {
			return nil
		}
		v := float64(*s.RecoveryScore)
		return &v
	}))

	var flags []string

	// HRV flag: today strictly below baseline
	if snap.HRVMs != nil && hrvBaseline != nil && *snap.HRVMs < *hrvBaseline {
		flags = append(flags, contracts.FlagHRVLow)
	}

	// Sleep debt: shortfall vs target, clamped at zero, reported even
	// when the flag does not fire
	var sleepDebt *float64
	if snap.SleepHours != nil {
		debt := math.Max(0.0, e.config.SleepTargetHours-*snap.SleepHours)
		sleepDebt = &debt
		if debt > e.config.SleepDebtThresholdHours {
			flags = append(flags, contracts.FlagSleepDebt)
		}
	}

	// Recovery flag: strict less-than
	if snap.RecoveryScore != nil && *snap.RecoveryScore < e.config.RecoveryLowThreshold {
		flags = append(flags, contracts.FlagRecoveryLow)
	}

	// Zone by flag count
	var zone string
	switch {
	case len(flags) >= 2:
		zone = contracts.ZoneRed
	case len(flags) == 1:
		zone = contracts.ZoneYellow
	default:
		zone = contracts.ZoneGreen
	}

	// Trends vs baseline, nil unless today's value and a non-zero
	// baseline both exist
	hrvTrend := trendPct(snap.HRVMs, hrvBaseline)
	sleepTrend := trendPct(snap.SleepHours, sleepBaseline)

	// Composite index components. Recovery is the anchor and the only
	// component that coerces a missing value to zero; HRV and sleep fall
	// back to it when their own inputs are missing.
	recoveryComponent := 0.0
	if snap.RecoveryScore != nil {
		recoveryComponent = float64(*snap.RecoveryScore)
	}

	hrvComponent := recoveryComponent
	if snap.HRVMs != nil && hrvBaseline != nil && *hrvBaseline != 0 {
		hrvComponent = clamp(*snap.HRVMs / *hrvBaseline * 100.0, 0.0, componentCap)
	}

	sleepComponent := recoveryComponent
	if snap.SleepHours != nil {
		sleepComponent = clamp(*snap.SleepHours/e.config.SleepTargetHours*100.0, 0.0, componentCap)
	}

	weighted := 0.6*recoveryComponent + 0.2*hrvComponent + 0.2*sleepComponent
	index := int(clamp(math.Round(weighted), 0.0, 100.0))

	// Signal scores: rounded components, and the raw recovery score
	// (nil-safe; a missing recovery stays nil rather than becoming 0)
	hrvSignal := roundToInt(hrvComponent)
	sleepSignal := roundToInt(sleepComponent)
	var recoverySignal *int
	if snap.RecoveryScore != nil {
		v := *snap.RecoveryScore
		recoverySignal = &v
	}

	insight := e.buildInsight(flags)

	snap.ReadinessIndex = &index
	snap.ReadinessZone = &zone
	snap.Insight = &insight
	snap.Flags = &contracts.ReadinessFlags{
		Flags:            flags,
		SleepDebtHours:   sleepDebt,
		HRVBaseline:      hrvBaseline,
		SleepBaseline:    sleepBaseline,
		StrainBaseline:   strainBaseline,
		RecoveryBaseline: recoveryBaseline,
		HRVTrendPct:      hrvTrend,
		SleepTrendPct:    sleepTrend,
		SignalScores: contracts.SignalScores{
			HRV:      &hrvSignal,
			Sleep:    &sleepSignal,
			Recovery: recoverySignal,
		},
	}

	if err := e.snapshots.UpdateReadiness(ctx, snap); err != nil {
		return nil, fmt.Errorf("persist readiness: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"date":  day.Format("2006-01-02"),
		"index": index,
		"zone":  zone,
		"flags": flags,
	}).Debug("Computed readiness")

	return snap, nil
}

// buildInsight concatenates a canned clause per triggered flag in fixed
// order, or the all-normal sentence when nothing fired.
func (e *Engine) buildInsight(flags []string) string {
	triggered := make(map[string]bool, len(flags))
	for _, f := range flags {
		triggered[f] = true
	}

	var bits []string
	if triggered[contracts.FlagHRVLow] {
		bits = append(bits, fmt.Sprintf("HRV below %d-day baseline", e.config.BaselineLookbackDays))
	}
	if triggered[contracts.FlagSleepDebt] {
		bits = append(bits, fmt.Sprintf("sleep debt > %gh (target %gh)",
			e.config.SleepDebtThresholdHours, e.config.SleepTargetHours))
	}
	if triggered[contracts.FlagRecoveryLow] {
		bits = append(bits, fmt.Sprintf("recovery score < %d", e.config.RecoveryLowThreshold))
	}

	if len(bits) == 0 {
		return "All primary signals within normal range."
	}
	return strings.Join(bits, "; ")
}

// mean is the arithmetic mean of the non-nil values; nil for an empty set.
func mean(values []*float64) *float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}

func collect(history []*contracts.DailySnapshot, get func(*contracts.DailySnapshot) *float64) []*float64 {
	out := make([]*float64, 0, len(history))
	for _, s := range history {
		out = append(out, get(s))
	}
	return out
}

// trendPct is the percent change of today vs baseline; nil unless both
// exist and the baseline is non-zero.
func trendPct(today, baseline *float64) *float64 {
	if today == nil || baseline == nil || *baseline == 0 {
		return nil
	}
	pct := (*today - *baseline) / *baseline * 100.0
	return &pct
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func roundToInt(v float64) int {
	return int(math.Round(v))
}
