package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeServices(t *testing.T) {
	cfg := testConfig(t)
	log := zerolog.Nop()

	container, err := InitializeDatabases(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	err = InitializeServices(container, cfg, log)
	require.NoError(t, err)

	assert.NotNil(t, container.WorkerPool)
	assert.Equal(t, 2, container.WorkerPool.Size())
	assert.NotNil(t, container.Quotes)
	assert.Equal(t, 1, container.Quotes.Providers(), "only yahoo without an EODHD key")
	assert.NotNil(t, container.Prices)
	assert.NotNil(t, container.Snapshots)
	assert.NotNil(t, container.Portfolio)

	assert.NotNil(t, container.PerformanceService)
	assert.NotNil(t, container.AllocationService)
	assert.NotNil(t, container.BenchmarksService)
	assert.NotNil(t, container.FundamentalsService)
	assert.NotNil(t, container.TrendsService)
	assert.NotNil(t, container.StockPricesService)

	assert.Nil(t, container.BackupService, "R2 is not configured")
}

func TestInitializeServices_WithEODHDKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quotes.EODHDAPIKey = "demo"
	log := zerolog.Nop()

	container, err := InitializeDatabases(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	require.NoError(t, InitializeServices(container, cfg, log))
	assert.Equal(t, 2, container.Quotes.Providers())
}

func TestInitializeServices_DefaultPortfolio(t *testing.T) {
	cfg := testConfig(t)
	cfg.PortfolioFile = filepath.Join(cfg.CacheDir, "portfolio.yaml")
	require.NoError(t, os.WriteFile(cfg.PortfolioFile, []byte(`
name: Core
holdings:
  - symbol: aapl
    cost_basis: 150
    shares: 10
  - symbol: MSFT
    cost_basis: 300
    shares: 5
`), 0644))
	log := zerolog.Nop()

	container, err := InitializeDatabases(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	require.NoError(t, InitializeServices(container, cfg, log))
	assert.Equal(t, []string{"AAPL", "MSFT"}, container.DefaultSymbols())
}

func TestInitializeServices_BadPortfolio(t *testing.T) {
	cfg := testConfig(t)
	cfg.PortfolioFile = filepath.Join(cfg.CacheDir, "missing.yaml")
	log := zerolog.Nop()

	container, err := InitializeDatabases(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	err = InitializeServices(container, cfg, log)
	assert.Error(t, err)
}

func TestInitializeServices_NilContainer(t *testing.T) {
	err := InitializeServices(nil, testConfig(t), zerolog.Nop())
	assert.Error(t, err)
}
