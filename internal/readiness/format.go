package readiness

import (
	"fmt"
	"strings"

	"github.com/jose/sera/backend/internal/contracts"
	"github.com/jose/sera/backend/internal/merge"
)

// Presentation formatting for the "health snapshot" card. Pure functions
// of the snapshot and trend values; every missing field renders as the
// literal "n/a" so the card shape is fixed regardless of data coverage.

// FormatTrend renders a trend percentage: "n/a" when nil, otherwise a
// sign-prefixed value with one decimal ("+10.0%", "-3.2%"). Non-negative
// values get an explicit plus; negatives already carry their sign.
func FormatTrend(pct *float64) string {
	if pct == nil {
		return "n/a"
	}
	sign := ""
	if *pct >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1f%%", sign, *pct)
}

// ResolveWeightLb prefers the stored pounds value on the snapshot and
// falls back to converting from kilograms. Nil when neither is present.
func ResolveWeightLb(snap *contracts.DailySnapshot) *float64 {
	if snap.WeightLb != nil {
		return snap.WeightLb
	}
	if snap.WeightKg != nil {
		v := *snap.WeightKg * merge.KgToLb
		return &v
	}
	return nil
}

// FormatSnapshot renders the multi-line health snapshot card.
func FormatSnapshot(snap *contracts.DailySnapshot, hrvTrendPct, sleepTrendPct *float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "HEALTH SNAPSHOT — %s\n", snap.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "• Weight: %s lb | BF: %s%%\n",
		fmtFloat(ResolveWeightLb(snap), 1),
		fmtFloat(snap.BodyFatPct, 1))
	fmt.Fprintf(&b, "• HRV: %s ms | RHR: %s bpm\n",
		fmtFloat(snap.HRVMs, 1),
		fmtFloat(snap.RHRBpm, 1))
	fmt.Fprintf(&b, "• Sleep: %sh (Eff %s%%)\n",
		fmtFloat(snap.SleepHours, 2),
		fmtFloat(snap.SleepEfficiencyPct, 1))
	fmt.Fprintf(&b, "• Readiness: %s/100 (%s)\n",
		fmtInt(snap.ReadinessIndex),
		fmtString(snap.ReadinessZone))
	fmt.Fprintf(&b, "• Trend: HRV %s, Sleep %s",
		FormatTrend(hrvTrendPct),
		FormatTrend(sleepTrendPct))

	return b.String()
}

func fmtFloat(v *float64, decimals int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

func fmtInt(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *v)
}

func fmtString(v *string) string {
	if v == nil {
		return "n/a"
	}
	return *v
}
