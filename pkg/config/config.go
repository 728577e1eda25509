package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// SSOT: every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// WHOOP upstream API
	Whoop WhoopConfig

	// Readiness tuning
	Readiness ReadinessConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// WhoopConfig holds WHOOP developer API configuration.
// Tokens come either from the OAuth flow (client id/secret) or from a
// MyWhoop-managed credentials.json on disk.
type WhoopConfig struct {
	APIBase         string
	AuthURL         string
	TokenURL        string
	ClientID        string
	ClientSecret    string
	RedirectURI     string
	CredentialsPath string

	// Outbound request budget against the WHOOP API (requests per second)
	RateLimit int
}

// ReadinessConfig holds the tunables of the merge and readiness engines.
// Defaults match SERA v1 behavior (8h sleep target, 7-day baselines).
type ReadinessConfig struct {
	SleepTargetHours      float64
	SleepDebtThresholdHrs float64
	RecoveryLowThreshold  int
	BaselineLookbackDays  int
}

// Load reads configuration from environment variables.
// SSOT: this is the only function that calls os.Getenv().
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// WHOOP
		Whoop: WhoopConfig{
			APIBase:         getEnv("WHOOP_API_BASE", "https://api.prod.whoop.com/developer"),
			AuthURL:         getEnv("WHOOP_AUTH_URL", "https://api.prod.whoop.com/oauth/oauth2/auth"),
			TokenURL:        getEnv("WHOOP_TOKEN_URL", "https://api.prod.whoop.com/oauth/oauth2/token"),
			ClientID:        getEnv("WHOOP_CLIENT_ID", ""),
			ClientSecret:    getEnv("WHOOP_CLIENT_SECRET", ""),
			RedirectURI:     getEnv("WHOOP_REDIRECT_URI", ""),
			CredentialsPath: getEnv("WHOOP_CREDENTIALS_PATH", "/home/jose/mywhoop/credentials.json"),
			RateLimit:       getEnvAsInt("WHOOP_RATE_LIMIT", 4),
		},

		// Readiness
		Readiness: ReadinessConfig{
			SleepTargetHours:      getEnvAsFloat("READINESS_SLEEP_TARGET_HOURS", 8.0),
			SleepDebtThresholdHrs: getEnvAsFloat("READINESS_SLEEP_DEBT_THRESHOLD_HOURS", 1.0),
			RecoveryLowThreshold:  getEnvAsInt("READINESS_RECOVERY_LOW_THRESHOLD", 70),
			BaselineLookbackDays:  getEnvAsInt("READINESS_BASELINE_LOOKBACK_DAYS", 7),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Readiness.BaselineLookbackDays <= 0 {
		return fmt.Errorf("READINESS_BASELINE_LOOKBACK_DAYS must be positive")
	}

	if c.Readiness.SleepTargetHours <= 0 {
		return fmt.Errorf("READINESS_SLEEP_TARGET_HOURS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
