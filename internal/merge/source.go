package merge

import "github.com/jose/sera/backend/internal/contracts"

// SourceKind identifies an upstream source category. The set is closed:
// the wearable (recovery/sleep/strain) and the body-composition scale.
type SourceKind string

const (
	SourceWearable SourceKind = "wearable"
	SourceBody     SourceKind = "body"
)

// Metric is a canonical snapshot metric identifier.
type Metric string

const (
	MetricHRV                   Metric = "hrv_ms"
	MetricRHR                   Metric = "rhr_bpm"
	MetricSleepHours            Metric = "sleep_hours"
	MetricSleepEfficiencyPct    Metric = "sleep_efficiency_pct"
	MetricDeepSleepPct          Metric = "deep_sleep_pct"
	MetricREMSleepPct           Metric = "rem_sleep_pct"
	MetricSleepConsistencyPct   Metric = "sleep_consistency_pct"
	MetricSleepDisturbanceCount Metric = "sleep_disturbance_count"
	MetricWeightKg              Metric = "weight_kg"
	MetricWeightLb              Metric = "weight_lb"
	MetricBodyFatPct            Metric = "bodyfat_pct"
	MetricHydrationPct          Metric = "hydration_pct"
	MetricRecoveryScore         Metric = "recovery_score"
	MetricStrain                Metric = "strain"
	MetricRespiratoryRate       Metric = "respiratory_rate"
	MetricSpO2Pct               Metric = "spo2_pct"
)

// allMetrics lists every canonical metric the engine resolves.
var allMetrics = []Metric{
	MetricHRV,
	MetricRHR,
	MetricSleepHours,
	MetricSleepEfficiencyPct,
	MetricDeepSleepPct,
	MetricREMSleepPct,
	MetricSleepConsistencyPct,
	MetricSleepDisturbanceCount,
	MetricWeightKg,
	MetricWeightLb,
	MetricBodyFatPct,
	MetricHydrationPct,
	MetricRecoveryScore,
	MetricStrain,
	MetricRespiratoryRate,
	MetricSpO2Pct,
}

// metricSourcePriority is the static per-metric source preference table.
// The wearable is primary for recovery/sleep/strain/cardio metrics; the
// scale is primary for weight/body-fat/hydration with the wearable as
// fallback. Adding a source or metric is a data change here, not a new
// branch in the resolver.
var metricSourcePriority = map[Metric][]SourceKind{
	MetricHRV:                   {SourceWearable},
	MetricRHR:                   {SourceWearable},
	MetricSleepHours:            {SourceWearable},
	MetricSleepEfficiencyPct:    {SourceWearable},
	MetricDeepSleepPct:          {SourceWearable},
	MetricREMSleepPct:           {SourceWearable},
	MetricSleepConsistencyPct:   {SourceWearable},
	MetricSleepDisturbanceCount: {SourceWearable},
	MetricRecoveryScore:         {SourceWearable},
	MetricStrain:                {SourceWearable},
	MetricRespiratoryRate:       {SourceWearable},
	MetricSpO2Pct:               {SourceWearable},

	// Scale-related metrics
	MetricWeightKg:     {SourceBody, SourceWearable},
	MetricWeightLb:     {SourceBody, SourceWearable},
	MetricBodyFatPct:   {SourceBody, SourceWearable},
	MetricHydrationPct: {SourceBody, SourceWearable},
}

// resolver resolves metric values from the source records available for
// one date. A missing record resolves every metric to nil, never an error.
type resolver struct {
	wearable *contracts.WearableDaily
	body     *contracts.BodyMetricsEntry
	kgToLb   float64
}

// choose walks the priority list for a metric and returns the first
// non-nil value, or nil if no source supplies one.
func (r resolver) choose(metric Metric) *float64 {
	for _, src := range metricSourcePriority[metric] {
		if v := r.resolve(src, metric); v != nil {
			return v
		}
	}
	return nil
}

func (r resolver) resolve(src SourceKind, metric Metric) *float64 {
	switch src {
	case SourceWearable:
		return r.resolveWearable(metric)
	case SourceBody:
		return r.resolveBody(metric)
	}
	return nil
}

func (r resolver) resolveWearable(metric Metric) *float64 {
	w := r.wearable
	if w == nil {
		return nil
	}

	switch metric {
	case MetricHRV:
		return w.HRVMs
	case MetricRHR:
		return w.RHRBpm
	case MetricSleepHours:
		return w.SleepHours
	case MetricSleepEfficiencyPct:
		return w.SleepEfficiencyPct
	case MetricSleepConsistencyPct:
		return w.SleepConsistencyPct
	case MetricSleepDisturbanceCount:
		return intToFloat(w.SleepDisturbanceCount)
	case MetricDeepSleepPct:
		// Derived from stage minutes; nil (not zero) when total sleep is
		// missing or zero so a zero total never produces a division.
		return stagePct(w.DeepSleepMin, w.SleepHours)
	case MetricREMSleepPct:
		return stagePct(w.REMSleepMin, w.SleepHours)
	case MetricRecoveryScore:
		return intToFloat(w.RecoveryScore)
	case MetricStrain:
		return w.Strain
	case MetricRespiratoryRate:
		return w.RespiratoryRate
	case MetricSpO2Pct:
		return w.SpO2Pct
	}

	// Scale metrics: the wearable summary carries no weight/composition
	// data, so the fallback resolves to nil.
	return nil
}

func (r resolver) resolveBody(metric Metric) *float64 {
	b := r.body
	if b == nil {
		return nil
	}

	switch metric {
	case MetricWeightKg:
		// Prefer the stored kg value over one derived from lb
		if b.WeightKg != nil {
			return b.WeightKg
		}
		if b.WeightLb != nil {
			v := *b.WeightLb / r.kgToLb
			return &v
		}
		return nil
	case MetricWeightLb:
		if b.WeightLb != nil {
			return b.WeightLb
		}
		if b.WeightKg != nil {
			v := *b.WeightKg * r.kgToLb
			return &v
		}
		return nil
	case MetricBodyFatPct:
		return b.BodyFatPct
	case MetricHydrationPct:
		return b.BodyWaterPct
	}

	return nil
}

// stagePct derives a sleep-stage percentage from stage minutes and total
// sleep hours. Returns nil when either input is missing or total is zero.
func stagePct(stageMin, sleepHours *float64) *float64 {
	if stageMin == nil || sleepHours == nil || *sleepHours <= 0 {
		return nil
	}
	totalMin := *sleepHours * 60.0
	pct := (*stageMin / totalMin) * 100.0
	return &pct
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
