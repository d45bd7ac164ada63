package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv     string
	Port        string
	JWTSecret   string
	FrontendDir string
	Database    DatabaseConfig
	Upstream    UpstreamConfig
	Workflow    WorkflowConfig
	Costing     CostingConfig
	Cache       CacheConfig
	Jobs        JobsConfig
	RateLimit   RateLimitConfig
}

// DatabaseConfig holds database configuration. An empty password on
// localhost starts an embedded server in DataDir.
type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	DataDir      string
	EmbeddedPort int
	LogSQL       bool
}

// UpstreamConfig describes the Indus Analytics REST API and the identity used
// when a request carries no session of its own.
type UpstreamConfig struct {
	BaseURL          string
	Username         string
	Password         string
	CompanyID        string
	UserID           string
	Fyear            string
	ProductionUnitID string
	Timeout          time.Duration
	RequestsPerSec   float64
}

// WorkflowConfig holds the thresholds used by status derivations
type WorkflowConfig struct {
	OverdueAfter           time.Duration
	L2MarginBelow          float64
	HighUrgencyMarginBelow float64
	RefreshDelay           time.Duration
	DraftRetentionDays     int
}

// CostingConfig selects the assistant behind the costing chat
type CostingConfig struct {
	Assistant    string // upstream | gemini
	GeminiAPIKey string
	GeminiModel  string
	CompanyName  string
}

// CacheConfig holds lookup cache configuration. Empty RedisAddr means in-memory.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// JobsConfig holds cron specs for background jobs
type JobsConfig struct {
	OverdueScanSpec  string
	DraftCleanupSpec string
}

// RateLimitConfig holds per-client limits for the public API
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		NodeEnv:     getEnv("NODE_ENV", "development"),
		Port:        getEnv("PORT", "3001"),
		JWTSecret:   jwtSecret,
		FrontendDir: os.Getenv("FRONTEND_DIR"),
		Database: DatabaseConfig{
			Host:         getEnv("PG_HOST", "localhost"),
			Port:         getEnv("PG_PORT", "5432"),
			Username:     getEnv("PG_USERNAME", "postgres"),
			Password:     os.Getenv("PG_PASSWORD"),
			Database:     getEnv("PG_DATABASE", "opsdesk"),
			DataDir:      getEnv("PG_DATA_DIR", "./pgdata"),
			EmbeddedPort: getEnvInt("PG_EMBEDDED_PORT", 5433),
			LogSQL:       getEnv("DB_LOG_SQL", "false") == "true",
		},
		Upstream: UpstreamConfig{
			BaseURL:          getEnv("INDUS_API_URL", "https://api.indusanalytics.co.in"),
			Username:         os.Getenv("INDUS_API_USERNAME"),
			Password:         os.Getenv("INDUS_API_PASSWORD"),
			CompanyID:        getEnv("INDUS_COMPANY_ID", "2"),
			UserID:           getEnv("INDUS_USER_ID", "2"),
			Fyear:            getEnv("INDUS_FYEAR", "2025-2026"),
			ProductionUnitID: getEnv("INDUS_PRODUCTION_UNIT_ID", "1"),
			Timeout:          time.Duration(getEnvInt("INDUS_API_TIMEOUT_SECONDS", 30)) * time.Second,
			RequestsPerSec:   getEnvFloat("INDUS_API_RPS", 10),
		},
		Workflow: WorkflowConfig{
			OverdueAfter:           time.Duration(getEnvInt("RATE_QUERY_OVERDUE_HOURS", 24)) * time.Hour,
			L2MarginBelow:          getEnvFloat("QUOTE_L2_MARGIN_BELOW", 5),
			HighUrgencyMarginBelow: getEnvFloat("QUOTE_HIGH_URGENCY_MARGIN_BELOW", 10),
			RefreshDelay:           time.Duration(getEnvInt("REFRESH_DELAY_MS", 750)) * time.Millisecond,
			DraftRetentionDays:     getEnvInt("DRAFT_RETENTION_DAYS", 30),
		},
		Costing: CostingConfig{
			Assistant:    getEnv("COSTING_ASSISTANT", "upstream"),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  os.Getenv("GEMINI_MODEL"),
			CompanyName:  getEnv("COMPANY_NAME", "Indus Packaging"),
		},
		Cache: CacheConfig{
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			TTL:           time.Duration(getEnvInt("CACHE_TTL_MINUTES", 30)) * time.Minute,
		},
		Jobs: JobsConfig{
			OverdueScanSpec:  getEnv("OVERDUE_SCAN_SPEC", "@every 15m"),
			DraftCleanupSpec: getEnv("DRAFT_CLEANUP_SPEC", "0 3 * * *"),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("API_RATE_LIMIT_RPS", 20),
			Burst: getEnvInt("API_RATE_LIMIT_BURST", 40),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
