package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jose/sera/backend/internal/external/whoop"
	"github.com/jose/sera/backend/internal/ingest"
	"github.com/jose/sera/backend/internal/merge"
	"github.com/jose/sera/backend/internal/readiness"
	"github.com/jose/sera/backend/internal/scheduler"
	"github.com/jose/sera/backend/internal/scheduler/jobs"
	"github.com/jose/sera/backend/internal/store"
	"github.com/jose/sera/backend/pkg/config"
	"github.com/jose/sera/backend/pkg/database"
	"github.com/jose/sera/backend/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the scheduler",
	Long: `Starts the scheduler or manages its jobs.

Registered jobs:
- daily_import: every day at 6:30 AM (wearable import + readiness)
- readiness_refresh: every 3 hours (recompute today's readiness)

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run a specific job immediately

Example:
  go run ./cmd/sera scheduler start
  go run ./cmd/sera scheduler list
  go run ./cmd/sera scheduler run daily_import`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a specific job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SERA Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// Block so the backgrounded job can finish
	fmt.Println("Job started, press Ctrl+C when done")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}

func initScheduler() (*scheduler.Scheduler, func(), error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Create repositories and engines
	wearableRepo := store.NewWearableRepository(db.Pool)
	bodyRepo := store.NewBodyMetricsRepository(db.Pool)
	snapshotRepo := store.NewSnapshotRepository(db.Pool)
	warehouseRepo := store.NewWarehouseRepository(db.Pool)
	tokenRepo := store.NewTokenRepository(db.Pool)

	merger := merge.NewEngine(wearableRepo, bodyRepo, snapshotRepo, merge.DefaultConfig(), log)
	readinessEngine := readiness.NewEngine(snapshotRepo, readiness.Config{
		SleepTargetHours:        cfg.Readiness.SleepTargetHours,
		SleepDebtThresholdHours: cfg.Readiness.SleepDebtThresholdHrs,
		RecoveryLowThreshold:    cfg.Readiness.RecoveryLowThreshold,
		BaselineLookbackDays:    cfg.Readiness.BaselineLookbackDays,
	}, log)

	// 5. Create WHOOP client and importer
	oauth := whoop.NewOAuth(cfg, log)
	tokens := whoop.NewDefaultTokenSource(tokenRepo, oauth, cfg.Whoop.CredentialsPath)
	whoopClient := whoop.NewClient(cfg, tokens, log)
	importer := ingest.New(whoopClient, warehouseRepo, wearableRepo, merger, log)

	// 6. Create scheduler and register jobs
	sched := scheduler.New(log)
	sched.AddJob(jobs.NewDailyImportJob(importer, readinessEngine, log))
	sched.AddJob(jobs.NewReadinessRefreshJob(readinessEngine, log))

	return sched, db.Close, nil
}
