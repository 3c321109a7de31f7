package di

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcnfinancial/dashboard-api/internal/config"
)

// testConfig returns a config with every external dependency switched off.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		CacheDir: t.TempDir(),
		Port:     8000,
		Analytics: config.AnalyticsConfig{
			Driver:      "duckdb",
			TablePrefix: "PROD_EODHD.main.",
		},
		Quotes: config.QuotesConfig{
			YahooBaseURL: "http://127.0.0.1:0",
			EODHDBaseURL: "http://127.0.0.1:0",
			Timeout:      time.Second,
		},
		PriceTTL:       30 * time.Minute,
		WorkerCount:    2,
		StreamInterval: time.Second,
	}
}

func TestInitializeDatabases(t *testing.T) {
	cfg := testConfig(t)

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.ClientDataDB)
	assert.NotNil(t, container.ClientDataRepo)
	assert.NotNil(t, container.Store)
	assert.Nil(t, container.Analytics, "analytics stays off without a DSN")

	assert.FileExists(t, filepath.Join(cfg.CacheDir, "client_data.db"))
}

func TestInitializeDatabases_SQLiteAnalytics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analytics.Driver = "sqlite"
	cfg.Analytics.DSN = filepath.Join(cfg.CacheDir, "analytics.db")
	cfg.Analytics.TablePrefix = ""

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.Analytics)
}

func TestContainer_DefaultSymbols(t *testing.T) {
	container := &Container{}
	assert.Nil(t, container.DefaultSymbols())

	container.Portfolio = &config.PortfolioFile{}
	assert.Empty(t, container.DefaultSymbols())
}

func TestContainer_CloseEmpty(t *testing.T) {
	container := &Container{}
	assert.NoError(t, container.Close())
}
