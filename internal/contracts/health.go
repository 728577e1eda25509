package contracts

import "time"

// Nullable metric fields are pointers throughout: a nil pointer means the
// metric is absent for the day, which is distinct from a measured zero.

// WearableDaily is the per-date summary row written by the wearable
// ingestion path (one row per calendar date).
type WearableDaily struct {
	ID   int64     `json:"id"`
	Date time.Time `json:"date"`

	RecoveryScore   *int     `json:"recovery_score"`
	HRVMs           *float64 `json:"hrv_ms"`
	RHRBpm          *float64 `json:"rhr_bpm"`
	RespiratoryRate *float64 `json:"respiratory_rate"`

	SleepHours            *float64 `json:"sleep_hours"`
	SleepEfficiencyPct    *float64 `json:"sleep_efficiency_pct"`
	SleepConsistencyPct   *float64 `json:"sleep_consistency_pct"`
	SleepDisturbanceCount *int     `json:"sleep_disturbance_count"`
	DeepSleepMin          *float64 `json:"deep_sleep_min"`
	REMSleepMin           *float64 `json:"rem_sleep_min"`

	Strain     *float64 `json:"strain"`
	AvgHRDay   *float64 `json:"avg_hr_day"`
	AvgHRSleep *float64 `json:"avg_hr_sleep"`
	SpO2Pct    *float64 `json:"spo2_pct"`

	RawPayload []byte    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// BodyMetricsEntry is a single body-composition measurement (scale reading)
// at a point in time. Several entries may exist per date; the merge engine
// uses the latest one of the day.
type BodyMetricsEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Date      time.Time `json:"date"`

	WeightKg *float64 `json:"weight_kg"`
	WeightLb *float64 `json:"weight_lb"`

	BMI               *float64 `json:"bmi"`
	BodyFatPct        *float64 `json:"body_fat_pct"`
	BodyFatMassKg     *float64 `json:"body_fat_mass_kg"`
	BodyFatMassLb     *float64 `json:"body_fat_mass_lb"`
	SubcutaneousFat   *float64 `json:"subcutaneous_fat_pct"`
	VisceralFat       *float64 `json:"visceral_fat"`
	BodyWaterPct      *float64 `json:"body_water_pct"`
	MuscleMassKg      *float64 `json:"muscle_mass_kg"`
	MuscleMassLb      *float64 `json:"muscle_mass_lb"`
	SkeletalMuscleKg  *float64 `json:"skeletal_muscle_kg"`
	SkeletalMuscleLb  *float64 `json:"skeletal_muscle_lb"`
	BoneMassKg        *float64 `json:"bone_mass_kg"`
	BoneMassLb        *float64 `json:"bone_mass_lb"`
	FatFreeMassKg     *float64 `json:"fat_free_mass_kg"`
	FatFreeMassLb     *float64 `json:"fat_free_mass_lb"`
	ProteinPct        *float64 `json:"protein_pct"`
	ProteinKg         *float64 `json:"protein_kg"`
	BMRKcal           *float64 `json:"bmr_kcal"`
	MetabolicAge      *int     `json:"metabolic_age"`
	BodyType          *string  `json:"body_type"`

	Source string `json:"source"` // manual, screenshot, integration, ...
}

// SignalScores are the rounded per-signal sub-scores of a readiness
// computation. Recovery stays nil when the raw score is missing.
type SignalScores struct {
	HRV      *int `json:"hrv"`
	Sleep    *int `json:"sleep"`
	Recovery *int `json:"recovery"`
}

// ReadinessFlags is the JSON payload persisted on the snapshot by the
// readiness engine: triggered flags plus all derived context values.
type ReadinessFlags struct {
	Flags            []string     `json:"flags"`
	SleepDebtHours   *float64     `json:"sleep_debt_hours"`
	HRVBaseline      *float64     `json:"hrv_baseline"`
	SleepBaseline    *float64     `json:"sleep_baseline"`
	StrainBaseline   *float64     `json:"strain_baseline"`
	RecoveryBaseline *float64     `json:"recovery_baseline"`
	HRVTrendPct      *float64     `json:"hrv_trend_pct"`
	SleepTrendPct    *float64     `json:"sleep_trend_pct"`
	SignalScores     SignalScores `json:"signal_scores"`
}

// Triggered reports whether the named flag fired.
func (f *ReadinessFlags) Triggered(name string) bool {
	for _, fl := range f.Flags {
		if fl == name {
			return true
		}
	}
	return false
}

// DailySnapshot is the canonical merged health record, unique per date.
//
// Raw metric fields are owned by the merge engine; readiness fields are
// owned by the readiness engine. Neither overwrites the other's fields.
type DailySnapshot struct {
	ID   int64     `json:"id"`
	Date time.Time `json:"date"`

	// Raw canonical metrics (merge engine)
	HRVMs                 *float64 `json:"hrv_ms"`
	RHRBpm                *float64 `json:"rhr_bpm"`
	SleepHours            *float64 `json:"sleep_hours"`
	SleepEfficiencyPct    *float64 `json:"sleep_efficiency_pct"`
	DeepSleepPct          *float64 `json:"deep_sleep_pct"`
	REMSleepPct           *float64 `json:"rem_sleep_pct"`
	SleepConsistencyPct   *float64 `json:"sleep_consistency_pct"`
	SleepDisturbanceCount *int     `json:"sleep_disturbance_count"`
	WeightKg              *float64 `json:"weight_kg"`
	WeightLb              *float64 `json:"weight_lb"`
	BodyFatPct            *float64 `json:"bodyfat_pct"`
	HydrationPct          *float64 `json:"hydration_pct"`
	RecoveryScore         *int     `json:"recovery_score"`
	Strain                *float64 `json:"strain"`
	RespiratoryRate       *float64 `json:"respiratory_rate"`
	SpO2Pct               *float64 `json:"spo2_pct"`

	// Derived readiness fields (readiness engine)
	ReadinessIndex *int            `json:"readiness_index"`
	ReadinessZone  *string         `json:"readiness_zone"`
	Flags          *ReadinessFlags `json:"flags"`
	Insight        *string         `json:"insight"`

	// Provenance: the contributing wearable summary row, if any
	WearableID *int64 `json:"wearable_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Readiness zones (traffic-light classification by flag count)
const (
	ZoneGreen  = "green"
	ZoneYellow = "yellow"
	ZoneRed    = "red"
)

// Readiness flag names, in the fixed evaluation and reporting order
const (
	FlagHRVLow      = "hrv_low"
	FlagSleepDebt   = "sleep_debt"
	FlagRecoveryLow = "recovery_low"
)
