package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jose/sera/backend/internal/external/whoop"
	"github.com/jose/sera/backend/internal/ingest"
	"github.com/jose/sera/backend/internal/merge"
	"github.com/jose/sera/backend/internal/readiness"
	"github.com/jose/sera/backend/internal/store"
	"github.com/jose/sera/backend/pkg/config"
	"github.com/jose/sera/backend/pkg/database"
	"github.com/jose/sera/backend/pkg/logger"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import wearable data",
	Long: `Imports wearable data from the upstream API for one date or a
date range, stores the raw records, derives the daily summary, and
recomputes readiness for the affected dates.

Example:
  go run ./cmd/sera import                         # yesterday
  go run ./cmd/sera import --date 2026-08-29
  go run ./cmd/sera import --from 2026-08-01 --to 2026-08-29`,
	RunE: runImport,
}

var (
	importDate string
	importFrom string
	importTo   string
)

func init() {
	rootCmd.AddCommand(importCmd)

	// Flags
	importCmd.Flags().StringVar(&importDate, "date", "", "single date to import (YYYY-MM-DD)")
	importCmd.Flags().StringVar(&importFrom, "from", "", "range start (YYYY-MM-DD)")
	importCmd.Flags().StringVar(&importTo, "to", "", "range end (YYYY-MM-DD)")
}

func runImport(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SERA Wearable Import ===")

	var from, to time.Time
	var err error
	switch {
	case importDate != "":
		from, err = time.Parse("2006-01-02", importDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		to = from
	case importFrom != "" && importTo != "":
		from, err = time.Parse("2006-01-02", importFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		to, err = time.Parse("2006-01-02", importTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
	default:
		from = time.Now().UTC().AddDate(0, 0, -1)
		to = from
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

	// 6. Import and recompute readiness
	ctx := context.Background()

	fmt.Printf("Importing %s .. %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	imported, err := importer.ImportRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Printf("✅ Imported %d day(s) with data\n", imported)

	for day := merge.Day(from); !day.After(merge.Day(to)); day = day.AddDate(0, 0, 1) {
		if _, err := readinessEngine.ComputeForDate(ctx, day); err != nil {
			return fmt.Errorf("compute readiness for %s: %w", day.Format("2006-01-02"), err)
		}
	}
	fmt.Println("✅ Readiness recomputed")

	return nil
}
