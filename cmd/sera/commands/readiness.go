package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jose/sera/backend/internal/merge"
	"github.com/jose/sera/backend/internal/readiness"
	"github.com/jose/sera/backend/internal/store"
	"github.com/jose/sera/backend/pkg/config"
	"github.com/jose/sera/backend/pkg/database"
	"github.com/jose/sera/backend/pkg/logger"
)

// readinessCmd represents the readiness command
var readinessCmd = &cobra.Command{
	Use:   "readiness",
	Short: "Compute readiness for a date",
	Long: `Re-merges the sources for a date, recomputes readiness, and
prints the health snapshot card.

Example:
  go run ./cmd/sera readiness                   # today
  go run ./cmd/sera readiness --date 2026-08-29`,
	RunE: runReadiness,
}

var (
	readinessDate string
)

func init() {
	rootCmd.AddCommand(readinessCmd)

	// Flags
	readinessCmd.Flags().StringVar(&readinessDate, "date", "", "date to compute (YYYY-MM-DD, default today)")
}

func runReadiness(cmd *cobra.Command, args []string) error {
	date := time.Now().UTC()
	if readinessDate != "" {
		parsed, err := time.Parse("2006-01-02", readinessDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		date = parsed
	}

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 4. Create repositories and engines
	wearableRepo := store.NewWearableRepository(db.Pool)
	bodyRepo := store.NewBodyMetricsRepository(db.Pool)
	snapshotRepo := store.NewSnapshotRepository(db.Pool)

	merger := merge.NewEngine(wearableRepo, bodyRepo, snapshotRepo, merge.DefaultConfig(), log)
	engine := readiness.NewEngine(snapshotRepo, readiness.Config{
		SleepTargetHours:        cfg.Readiness.SleepTargetHours,
		SleepDebtThresholdHours: cfg.Readiness.SleepDebtThresholdHrs,
		RecoveryLowThreshold:    cfg.Readiness.RecoveryLowThreshold,
		BaselineLookbackDays:    cfg.Readiness.BaselineLookbackDays,
	}, log)

	// 5. Merge and compute
	ctx := context.Background()

	if _, err := merger.MergeForDate(ctx, date); err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	snap, err := engine.ComputeForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("compute readiness: %w", err)
	}
	if snap == nil {
		fmt.Printf("No data for %s\n", date.Format("2006-01-02"))
		return nil
	}

	var hrvTrend, sleepTrend *float64
	if snap.Flags != nil {
		hrvTrend = snap.Flags.HRVTrendPct
		sleepTrend = snap.Flags.SleepTrendPct
	}

	fmt.Println()
	fmt.Println(readiness.FormatSnapshot(snap, hrvTrend, sleepTrend))
	if snap.Insight != nil {
		fmt.Printf("\nInsight: %s\n", *snap.Insight)
	}

	return nil
}
