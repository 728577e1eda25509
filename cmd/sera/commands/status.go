package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jose/sera/backend/internal/store"
	"github.com/jose/sera/backend/pkg/config"
	"github.com/jose/sera/backend/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tracker status",
	Long: `Shows the current state of the tracker.

Displayed information:
- Latest snapshot date and readiness
- Body-composition measurement coverage
- WHOOP token state
- Database health

Example:
  go run ./cmd/sera status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SERA Tracker Status ===")
	fmt.Println()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshotRepo := store.NewSnapshotRepository(db.Pool)
	bodyRepo := store.NewBodyMetricsRepository(db.Pool)
	tokenRepo := store.NewTokenRepository(db.Pool)

	// Latest snapshot
	fmt.Println("📅 Latest Snapshot")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	snap, err := snapshotRepo.GetLatest(ctx)
	if err != nil {
		return fmt.Errorf("get latest snapshot: %w", err)
	}
	if snap == nil {
		fmt.Println("No snapshots yet. Run: go run ./cmd/sera import")
	} else {
		fmt.Printf("%-15s %s\n", "Date:", snap.Date.Format("2006-01-02"))
		if snap.ReadinessIndex != nil {
			fmt.Printf("%-15s %d\n", "Readiness:", *snap.ReadinessIndex)
		} else {
			fmt.Printf("%-15s --\n", "Readiness:")
		}
		if snap.ReadinessZone != nil {
			fmt.Printf("%-15s %s\n", "Zone:", *snap.ReadinessZone)
		}
		if snap.RecoveryScore != nil {
			fmt.Printf("%-15s %d%%\n", "Recovery:", *snap.RecoveryScore)
		}
		if snap.SleepHours != nil {
			fmt.Printf("%-15s %.1fh\n", "Sleep:", *snap.SleepHours)
		}
	}
	fmt.Println()

	// Body-composition coverage
	fmt.Println("⚖️  Body Metrics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	dates, err := bodyRepo.ListDates(ctx)
	if err != nil {
		return fmt.Errorf("list body metric dates: %w", err)
	}
	fmt.Printf("%-15s %d\n", "Days logged:", len(dates))
	if len(dates) > 0 {
		fmt.Printf("%-15s %s\n", "First:", dates[0].Format("2006-01-02"))
		fmt.Printf("%-15s %s\n", "Last:", dates[len(dates)-1].Format("2006-01-02"))
	}
	fmt.Println()

	// WHOOP token
	fmt.Println("🔑 WHOOP Token")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	token, err := tokenRepo.Get(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	switch {
	case token == nil:
		fmt.Println("Not connected. Run: go run ./cmd/sera api, then visit /auth/whoop")
	case token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()):
		fmt.Printf("%-15s expired %s\n", "State:", token.ExpiresAt.Format(time.RFC3339))
	default:
		fmt.Printf("%-15s connected\n", "State:")
		if token.ExpiresAt != nil {
			fmt.Printf("%-15s %s\n", "Expires:", token.ExpiresAt.Format(time.RFC3339))
		}
	}
	fmt.Println()

	// Database health
	fmt.Println("🗄️  Database")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	health, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	fmt.Printf("%-15s %v\n", "Healthy:", health.Healthy)
	fmt.Printf("%-15s %v\n", "Response:", health.ResponseTime)
	fmt.Printf("%-15s %d/%d\n", "Connections:", health.Stats.AcquiredConns, health.Stats.MaxConns)

	return nil
}
