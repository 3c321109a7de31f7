package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("PORT", "")
	t.Setenv("ANALYTICS_DRIVER", "")
	t.Setenv("PRICE_TTL_MINUTES", "")
	t.Setenv("WORKER_COUNT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "cache"), cfg.CacheDir)
	assert.DirExists(t, cfg.CacheDir)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "duckdb", cfg.Analytics.Driver)
	assert.Equal(t, "PROD_EODHD.main.", cfg.Analytics.TablePrefix)
	assert.Equal(t, 30*time.Minute, cfg.PriceTTL)
	assert.Equal(t, 10, cfg.WorkerCount)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("CACHE_DIR", t.TempDir())
	t.Setenv("ANALYTICS_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}

func TestAnalyticsConfig_DataSourceName(t *testing.T) {
	tests := []struct {
		name string
		cfg  AnalyticsConfig
		want string
	}{
		{name: "explicit dsn wins", cfg: AnalyticsConfig{Driver: "duckdb", DSN: "md:PROD", MotherDuckToken: "x"}, want: "md:PROD"},
		{name: "token builds motherduck dsn", cfg: AnalyticsConfig{Driver: "duckdb", MotherDuckToken: "tok"}, want: "md:?motherduck_token=tok"},
		{name: "nothing configured", cfg: AnalyticsConfig{Driver: "duckdb"}, want: ""},
		{name: "sqlite needs dsn", cfg: AnalyticsConfig{Driver: "sqlite", MotherDuckToken: "tok"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DataSourceName())
			assert.Equal(t, tt.want != "", tt.cfg.Configured())
		})
	}
}

func TestR2Config_Enabled(t *testing.T) {
	assert.False(t, R2Config{}.Enabled())
	assert.True(t, R2Config{AccountID: "a", AccessKeyID: "b", SecretAccessKey: "c", Bucket: "d"}.Enabled())
}

func TestLoadPortfolio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	content := `name: core
holdings:
  - symbol: aapl.us
    cost_basis: 100
    shares: 10
  - symbol: MSFT
    cost_basis: 250.5
    shares: 2.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	pf, err := LoadPortfolio(path)
	require.NoError(t, err)
	assert.Equal(t, "core", pf.Name)
	require.Len(t, pf.Holdings, 2)
	assert.Equal(t, "AAPL", pf.Holdings[0].Symbol)
	assert.Equal(t, 2.5, pf.Holdings[1].Shares)
	assert.Equal(t, []string{"AAPL", "MSFT"}, pf.Symbols())
}

func TestLoadPortfolio_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("holdings:\n  - symbol: AAPL\n    cost_basis: 0\n    shares: 1\n"), 0644))

	_, err := LoadPortfolio(path)
	assert.Error(t, err)

	_, err = LoadPortfolio(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	pf, err := LoadPortfolio("")
	require.NoError(t, err)
	assert.Empty(t, pf.Holdings)
}
