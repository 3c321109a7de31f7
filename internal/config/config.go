// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	CacheDir      string // Directory for file snapshots and client_data.db (always absolute)
	LogLevel      string
	LogPretty     bool
	Port          int
	DevMode       bool
	PortfolioFile string // Optional YAML file with the default holdings

	Analytics AnalyticsConfig
	Quotes    QuotesConfig
	R2        R2Config

	PriceTTL         time.Duration
	WorkerCount      int
	SchedulerEnabled bool
	StreamInterval   time.Duration
}

// AnalyticsConfig describes how to reach the analytical SQL database.
type AnalyticsConfig struct {
	Driver          string // "duckdb" (MotherDuck) or "sqlite"
	DSN             string // Explicit DSN; built from MotherDuckToken when empty
	MotherDuckToken string
	TablePrefix     string // e.g. "PROD_EODHD.main."
}

// QuotesConfig configures the quote provider chain.
type QuotesConfig struct {
	YahooBaseURL string
	EODHDAPIKey  string
	EODHDBaseURL string
	Timeout      time.Duration
}

// R2Config holds Cloudflare R2 credentials for cache backups.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	RetentionDays   int
}

// Enabled reports whether every credential needed for R2 is present.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// Configured reports whether the analytics source can be opened.
func (c AnalyticsConfig) Configured() bool {
	return c.DataSourceName() != ""
}

// DataSourceName returns the DSN to hand to database/sql.
func (c AnalyticsConfig) DataSourceName() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == "duckdb" && c.MotherDuckToken != "" {
		return "md:?motherduck_token=" + c.MotherDuckToken
	}
	return ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env.local wins over .env; neither is required
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cacheDir, err := filepath.Abs(getEnv("CACHE_DIR", "/tmp/jcn_cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cfg := &Config{
		CacheDir:      cacheDir,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPretty:     getEnvAsBool("LOG_PRETTY", false),
		Port:          getEnvAsInt("PORT", 8000),
		DevMode:       getEnvAsBool("DEV_MODE", false),
		PortfolioFile: getEnv("PORTFOLIO_FILE", ""),
		Analytics: AnalyticsConfig{
			Driver:          strings.ToLower(getEnv("ANALYTICS_DRIVER", "duckdb")),
			DSN:             getEnv("ANALYTICS_DSN", ""),
			MotherDuckToken: getEnv("MOTHERDUCK_TOKEN", ""),
			TablePrefix:     getEnv("ANALYTICS_TABLE_PREFIX", "PROD_EODHD.main."),
		},
		Quotes: QuotesConfig{
			YahooBaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			EODHDAPIKey:  getEnv("EODHD_API_KEY", ""),
			EODHDBaseURL: getEnv("EODHD_BASE_URL", "https://eodhd.com"),
			Timeout:      time.Duration(getEnvAsInt("QUOTE_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("R2_BUCKET", ""),
			RetentionDays:   getEnvAsInt("R2_RETENTION_DAYS", 7),
		},
		PriceTTL:         time.Duration(getEnvAsInt("PRICE_TTL_MINUTES", 30)) * time.Minute,
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 10),
		SchedulerEnabled: getEnvAsBool("SCHEDULER_ENABLED", true),
		StreamInterval:   time.Duration(getEnvAsInt("STREAM_INTERVAL_SECONDS", 30)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.Analytics.Driver {
	case "duckdb", "sqlite":
	default:
		return fmt.Errorf("unsupported analytics driver: %q", c.Analytics.Driver)
	}

	if c.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.WorkerCount)
	}

	if c.PriceTTL <= 0 {
		return fmt.Errorf("price TTL must be positive, got %s", c.PriceTTL)
	}

	// MotherDuck token is optional: without it every analytics call degrades to an empty payload
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
