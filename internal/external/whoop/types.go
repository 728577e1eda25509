package whoop

import (
	"encoding/json"
	"time"
)

// Typed views of the WHOOP developer v2 API objects. Every record also
// carries its raw JSON so the warehouse keeps the upstream payload.

// Recovery is one recovery record (at most one per cycle).
type Recovery struct {
	CycleID   int64  `json:"cycle_id"`
	SleepID   string `json:"sleep_id"`
	UserID    int64  `json:"user_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`

	Score *RecoveryScore `json:"score"`

	Raw json.RawMessage `json:"-"`
}

// RecoveryScore is the scored portion of a recovery record.
type RecoveryScore struct {
	UserCalibrating  *bool    `json:"user_calibrating"`
	RecoveryScore    *float64 `json:"recovery_score"`
	RestingHeartRate *float64 `json:"resting_heart_rate"`
	HRVRmssdMilli    *float64 `json:"hrv_rmssd_milli"`
	SpO2Percentage   *float64 `json:"spo2_percentage"`
	SkinTempCelsius  *float64 `json:"skin_temp_celsius"`
}

// Sleep is one sleep activity (possibly a nap).
type Sleep struct {
	ID             string `json:"id"`
	CycleID        int64  `json:"cycle_id"`
	UserID         int64  `json:"user_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
	TimezoneOffset string `json:"timezone_offset"`
	Nap            *bool  `json:"nap"`
	ScoreState     string `json:"score_state"` // SCORED / PENDING_SCORE / UNSCORABLE
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`

	Score *SleepScore `json:"score"`

	Raw json.RawMessage `json:"-"`
}

// SleepScore is the scored portion of a sleep record.
type SleepScore struct {
	StageSummary               *SleepStageSummary `json:"stage_summary"`
	RespiratoryRate            *float64           `json:"respiratory_rate"`
	SleepPerformancePercentage *float64           `json:"sleep_performance_percentage"`
	SleepConsistencyPercentage *float64           `json:"sleep_consistency_percentage"`
	SleepEfficiencyPercentage  *float64           `json:"sleep_efficiency_percentage"`
}

// SleepStageSummary holds per-stage durations in milliseconds.
type SleepStageSummary struct {
	TotalInBedTimeMilli         *int64 `json:"total_in_bed_time_milli"`
	TotalAwakeTimeMilli         *int64 `json:"total_awake_time_milli"`
	TotalNoDataTimeMilli        *int64 `json:"total_no_data_time_milli"`
	TotalLightSleepTimeMilli    *int64 `json:"total_light_sleep_time_milli"`
	TotalSlowWaveSleepTimeMilli *int64 `json:"total_slow_wave_sleep_time_milli"`
	TotalREMSleepTimeMilli      *int64 `json:"total_rem_sleep_time_milli"`
	SleepCycleCount             *int   `json:"sleep_cycle_count"`
	DisturbanceCount            *int   `json:"disturbance_count"`
}

// Cycle is one physiological cycle (day-level strain).
type Cycle struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
	TimezoneOffset string `json:"timezone_offset"`
	ScoreState     string `json:"score_state"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`

	Score *CycleScore `json:"score"`

	Raw json.RawMessage `json:"-"`
}

// CycleScore is the scored portion of a cycle record.
type CycleScore struct {
	Strain           *float64 `json:"strain"`
	Kilojoule        *float64 `json:"kilojoule"`
	AverageHeartRate *float64 `json:"average_heart_rate"`
	MaxHeartRate     *float64 `json:"max_heart_rate"`
}

// Workout is one workout activity.
type Workout struct {
	ID             string `json:"id"`
	UserID         int64  `json:"user_id"`
	SportName      string `json:"sport_name"`
	Start          string `json:"start"`
	End            string `json:"end"`
	TimezoneOffset string `json:"timezone_offset"`
	ScoreState     string `json:"score_state"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`

	Score *WorkoutScore `json:"score"`

	Raw json.RawMessage `json:"-"`
}

// WorkoutScore is the scored portion of a workout record.
type WorkoutScore struct {
	Strain           *float64 `json:"strain"`
	AverageHeartRate *float64 `json:"average_heart_rate"`
	MaxHeartRate     *float64 `json:"max_heart_rate"`
	Kilojoule        *float64 `json:"kilojoule"`
	DistanceMeter    *float64 `json:"distance_meter"`
}

// collectionResponse is the envelope every collection endpoint returns.
type collectionResponse struct {
	Records   []json.RawMessage `json:"records"`
	NextToken *string           `json:"next_token"`
}

// ParseTime parses a WHOOP API timestamp (RFC3339, usually with a Z
// suffix). Returns nil for empty or malformed values.
func ParseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// DayWindow returns the UTC [start, end) window covering a calendar date.
func DayWindow(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
