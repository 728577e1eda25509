package contracts

import "testing"

func TestReadinessFlags_Triggered(t *testing.T) {
	flags := &ReadinessFlags{
		Flags: []string{FlagHRVLow, FlagSleepDebt},
	}

	tests := []struct {
		name string
		flag string
		want bool
	}{
		{"hrv_low fired", FlagHRVLow, true},
		{"sleep_debt fired", FlagSleepDebt, true},
		{"recovery_low not fired", FlagRecoveryLow, false},
		{"unknown flag", "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flags.Triggered(tt.flag); got != tt.want {
				t.Errorf("Triggered(%q) = %v, want %v", tt.flag, got, tt.want)
			}
		})
	}
}

func TestReadinessFlags_TriggeredEmpty(t *testing.T) {
	flags := &ReadinessFlags{}
	if flags.Triggered(FlagHRVLow) {
		t.Error("Expected no flags to be triggered on an empty set")
	}
}
