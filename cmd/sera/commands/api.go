package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jose/sera/backend/internal/api"
	"github.com/jose/sera/backend/internal/api/handlers"
	"github.com/jose/sera/backend/internal/external/whoop"
	"github.com/jose/sera/backend/internal/ingest"
	"github.com/jose/sera/backend/internal/merge"
	"github.com/jose/sera/backend/internal/readiness"
	"github.com/jose/sera/backend/internal/store"
	"github.com/jose/sera/backend/pkg/config"
	"github.com/jose/sera/backend/pkg/database"
	"github.com/jose/sera/backend/pkg/logger"
	"github.com/jose/sera/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

This command:
- Starts the HTTP API server
- Serves snapshot and readiness endpoints
- Accepts manual wearable and body-composition submissions
- Triggers upstream wearable imports

Endpoints:
  GET  /health                      - Health check
  GET  /api/snapshots/daily/{date}  - Merged snapshot for a date
  GET  /api/snapshots/latest        - Most recent snapshot
  GET  /api/snapshots/range         - Snapshots in a date range
  GET  /api/readiness/{date}        - Readiness for a date
  GET  /api/readiness/latest        - Latest readiness view
  POST /api/wearable/ingest         - Manual wearable summary
  POST /api/wearable/import         - Trigger upstream import
  GET  /api/wearable/daily/{date}   - Wearable summary for a date
  POST /api/body/ingest             - Body-composition measurement
  GET  /api/body/daily/{date}       - Latest measurement on a date
  GET  /api/body/dates              - Dates with measurements
  GET  /api/whoop/auth-url          - OAuth authorization URL
  GET  /api/whoop/callback          - OAuth callback

Example:
  go run ./cmd/sera api
  go run ./cmd/sera api --port 8000`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SERA API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis (no-op client when disabled)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "sera")

	// 5. Create repositories
	wearableRepo := store.NewWearableRepository(db.Pool)
	bodyRepo := store.NewBodyMetricsRepository(db.Pool)
	snapshotRepo := store.NewSnapshotRepository(db.Pool)
	warehouseRepo := store.NewWarehouseRepository(db.Pool)
	tokenRepo := store.NewTokenRepository(db.Pool)

	// 6. Create engines
	merger := merge.NewEngine(wearableRepo, bodyRepo, snapshotRepo, merge.DefaultConfig(), log)
	readinessEngine := readiness.NewEngine(snapshotRepo, readiness.Config{
		SleepTargetHours:        cfg.Readiness.SleepTargetHours,
		SleepDebtThresholdHours: cfg.Readiness.SleepDebtThresholdHrs,
		RecoveryLowThreshold:    cfg.Readiness.RecoveryLowThreshold,
		BaselineLookbackDays:    cfg.Readiness.BaselineLookbackDays,
	}, log)

	// 7. Create WHOOP client and importer
	oauth := whoop.NewOAuth(cfg, log)
	tokens := whoop.NewDefaultTokenSource(tokenRepo, oauth, cfg.Whoop.CredentialsPath)
	whoopClient := whoop.NewClient(cfg, tokens, log)
	importer := ingest.New(whoopClient, warehouseRepo, wearableRepo, merger, log)

	// 8. Create handlers
	snapshotHandler := handlers.NewSnapshotHandler(snapshotRepo, merger, log)
	readinessHandler := handlers.NewReadinessHandler(snapshotRepo, merger, readinessEngine, cache, log)
	wearableHandler := handlers.NewWearableHandler(wearableRepo, merger, importer, cache, log)
	bodyHandler := handlers.NewBodyMetricsHandler(bodyRepo, merger, cache, log)
	oauthHandler := handlers.NewOAuthHandler(oauth, tokenRepo, log)

	// 9. Create router and server
	router := api.NewRouter(snapshotHandler, readinessHandler, wearableHandler, bodyHandler, oauthHandler, log)
	server := api.New(cfg, log, router)

	// 10. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
