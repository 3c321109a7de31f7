package di

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container)
	t.Cleanup(func() { container.Close() })

	assert.Same(t, cfg, container.Config)
	assert.NotNil(t, container.ClientDataDB)
	assert.NotNil(t, container.Prices)
	assert.NotNil(t, container.PerformanceService)
	assert.Equal(t, 0, container.Prices.Len())
	assert.Equal(t, 0, container.Snapshots.Len())
}

func TestWire_UnreadablePortfolio(t *testing.T) {
	cfg := testConfig(t)
	cfg.PortfolioFile = cfg.CacheDir // a directory, not a file

	_, err := Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}
