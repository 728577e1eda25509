package contracts

import (
	"context"
	"time"
)

// Warehouse rows mirror the upstream WHOOP API objects per day. They are
// kept verbatim (plus raw payload) so summaries can be rebuilt when the
// derivation rules change.

// WearableRecovery is the per-date recovery object.
type WearableRecovery struct {
	ID   int64     `json:"id"`
	Date time.Time `json:"date"`

	CycleID int64  `json:"cycle_id"`
	SleepID string `json:"sleep_id"`
	UserID  int64  `json:"user_id"`

	RecoveryScore    *float64 `json:"recovery_score"`
	RestingHeartRate *float64 `json:"resting_heart_rate"`
	HRVRmssdMilli    *float64 `json:"hrv_rmssd_milli"`
	SpO2Percentage   *float64 `json:"spo2_percentage"`
	SkinTempCelsius  *float64 `json:"skin_temp_celsius"`
	UserCalibrating  *bool    `json:"user_calibrating"`

	APICreatedAt *time.Time `json:"api_created_at"`
	APIUpdatedAt *time.Time `json:"api_updated_at"`
	RawPayload   []byte     `json:"-"`
}

// WearableCycle is one physiological cycle (strain) record for a date.
type WearableCycle struct {
	ID   int64     `json:"id"`
	Date time.Time `json:"date"`

	CycleID int64 `json:"cycle_id"`
	UserID  int64 `json:"user_id"`

	Start          *time.Time `json:"start"`
	End            *time.Time `json:"end"`
	TimezoneOffset string     `json:"timezone_offset"`
	ScoreState     string     `json:"score_state"` // SCORED / PENDING_SCORE / UNSCORABLE

	Strain           *float64 `json:"strain"`
	Kilojoule        *float64 `json:"kilojoule"`
	AverageHeartRate *float64 `json:"average_heart_rate"`
	MaxHeartRate     *float64 `json:"max_heart_rate"`

	APICreatedAt *time.Time `json:"api_created_at"`
	APIUpdatedAt *time.Time `json:"api_updated_at"`
	RawPayload   []byte     `json:"-"`
}

// WearableSleepActivity is one sleep activity (possibly a nap) with its
// stage summary and score metrics.
type WearableSleepActivity struct {
	ID int64 `json:"id"`

	SleepID string    `json:"sleep_id"` // UUID from the upstream API
	CycleID int64     `json:"cycle_id"`
	UserID  int64     `json:"user_id"`
	Date    time.Time `json:"date"`

	Start          *time.Time `json:"start"`
	End            *time.Time `json:"end"`
	TimezoneOffset string     `json:"timezone_offset"`
	Nap            *bool      `json:"nap"`
	ScoreState     string     `json:"score_state"`

	// Stage summary
	TotalInBedTimeMilli         *int64 `json:"total_in_bed_time_milli"`
	TotalAwakeTimeMilli         *int64 `json:"total_awake_time_milli"`
	TotalNoDataTimeMilli        *int64 `json:"total_no_data_time_milli"`
	TotalLightSleepTimeMilli    *int64 `json:"total_light_sleep_time_milli"`
	TotalSlowWaveSleepTimeMilli *int64 `json:"total_slow_wave_sleep_time_milli"`
	TotalREMSleepTimeMilli      *int64 `json:"total_rem_sleep_time_milli"`
	SleepCycleCount             *int   `json:"sleep_cycle_count"`
	DisturbanceCount            *int   `json:"disturbance_count"`

	// Sleep score metrics
	RespiratoryRate            *float64 `json:"respiratory_rate"`
	SleepPerformancePercentage *float64 `json:"sleep_performance_percentage"`
	SleepConsistencyPercentage *float64 `json:"sleep_consistency_percentage"`
	SleepEfficiencyPercentage  *float64 `json:"sleep_efficiency_percentage"`

	APICreatedAt *time.Time `json:"api_created_at"`
	APIUpdatedAt *time.Time `json:"api_updated_at"`
	RawPayload   []byte     `json:"-"`
}

// WearableWorkout is one workout record.
type WearableWorkout struct {
	ID int64 `json:"id"`

	WorkoutID string    `json:"workout_id"` // UUID from the upstream API
	UserID    int64     `json:"user_id"`
	Date      time.Time `json:"date"`

	SportName  string `json:"sport_name"`
	ScoreState string `json:"score_state"`

	Start          *time.Time `json:"start"`
	End            *time.Time `json:"end"`
	TimezoneOffset string     `json:"timezone_offset"`

	Strain           *float64 `json:"strain"`
	AverageHeartRate *float64 `json:"average_heart_rate"`
	MaxHeartRate     *float64 `json:"max_heart_rate"`
	Kilojoule        *float64 `json:"kilojoule"`
	DistanceMeter    *float64 `json:"distance_meter"`

	APICreatedAt *time.Time `json:"api_created_at"`
	APIUpdatedAt *time.Time `json:"api_updated_at"`
	RawPayload   []byte     `json:"-"`
}

// OAuthToken is the single stored WHOOP OAuth token row.
type OAuthToken struct {
	ID           int64      `json:"id"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	Scope        string     `json:"scope"`
	ExpiresAt    *time.Time `json:"expires_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// WarehouseRepository stores the raw upstream wearable objects.
type WarehouseRepository interface {
	UpsertRecovery(ctx context.Context, row *WearableRecovery) error
	UpsertCycle(ctx context.Context, row *WearableCycle) error
	UpsertSleepActivity(ctx context.Context, row *WearableSleepActivity) error
	UpsertWorkout(ctx context.Context, row *WearableWorkout) error
}

// TokenRepository stores the single WHOOP OAuth token.
type TokenRepository interface {
	// Get returns the stored token, or nil if none exists.
	Get(ctx context.Context) (*OAuthToken, error)

	// Save inserts or replaces the stored token.
	Save(ctx context.Context, token *OAuthToken) error
}
