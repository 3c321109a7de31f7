package performance

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	testingpkg "github.com/jcnfinancial/dashboard-api/internal/testing"
	"github.com/jcnfinancial/dashboard-api/pkg/formulas"
)

func newTestService(snaps map[string]domain.PriceSnapshot, prices map[string]float64) (*Service, *testingpkg.MockPriceCache) {
	priceCache := testingpkg.NewMockPriceCache(prices)
	svc := NewService(testingpkg.NewMockSnapshotCache(snaps), priceCache, zerolog.New(nil).Level(zerolog.Disabled))
	return svc, priceCache
}

func TestCalculate_SingleHoldingExample(t *testing.T) {
	snaps := map[string]domain.PriceSnapshot{
		"AAPL": {Symbol: "AAPL", PrevClose: formulas.Ptr(145), Sector: "Information Technology", Industry: "Technology Hardware"},
	}
	svc, _ := newTestService(snaps, map[string]float64{"AAPL": 150})

	result, err := svc.Calculate(context.Background(), []domain.Holding{{Symbol: "AAPL", CostBasis: 100, Shares: 10}}, false)
	require.NoError(t, err)
	require.Len(t, result.Data, 1)

	pos := result.Data[0]
	assert.Equal(t, 3.45, pos.DailyChangePct)
	assert.Equal(t, 1500.0, pos.PositionValue)
	assert.Equal(t, 100.0, pos.PortfolioPct)
	assert.Equal(t, 50.0, pos.PortGainPct)
	assert.Equal(t, 1500.0, result.TotalPortfolioValue)
	assert.Equal(t, 1, result.TotalPositions)
	assert.Equal(t, RefreshAuto, result.CacheInfo.RefreshMode)
}

func TestCalculate_FullSnapshot(t *testing.T) {
	svc, _ := newTestService(testingpkg.NewSnapshotFixtures(), map[string]float64{"AAPL": 150, "MSFT": 400, "NVDA": 800})

	result, err := svc.Calculate(context.Background(), testingpkg.NewHoldingFixtures(), false)
	require.NoError(t, err)

	aapl := result.Data[0]
	assert.Equal(t, 25.0, aapl.YTDPct)
	assert.Equal(t, 50.0, aapl.YoYPct)
	assert.Equal(t, 6.25, aapl.PctBelow52WkHigh)
	assert.Equal(t, 80.0, aapl.ChanRangePct)
	assert.Equal(t, 160.0, aapl.Week52High)
	assert.Equal(t, "Technology Hardware", aapl.Industry)

	msft := result.Data[1]
	assert.Equal(t, -0.99, msft.DailyChangePct)

	// 1500 + 2000 + 1600
	assert.Equal(t, 5100.0, result.TotalPortfolioValue)
}

func TestCalculate_WeightsSumTo100(t *testing.T) {
	svc, _ := newTestService(testingpkg.NewSnapshotFixtures(), map[string]float64{"AAPL": 151.37, "MSFT": 402.11, "NVDA": 799.99})

	result, err := svc.Calculate(context.Background(), testingpkg.NewHoldingFixtures(), false)
	require.NoError(t, err)

	sum := 0.0
	for _, p := range result.Data {
		sum += p.PortfolioPct
	}
	assert.InDelta(t, 100.0, sum, 0.02)
}

func TestCalculate_MissingPriceExcludedFromTotal(t *testing.T) {
	svc, _ := newTestService(testingpkg.NewSnapshotFixtures(), map[string]float64{"AAPL": 150})

	result, err := svc.Calculate(context.Background(), testingpkg.NewHoldingFixtures(), false)
	require.NoError(t, err)
	require.Len(t, result.Data, 3)

	assert.Equal(t, 1500.0, result.TotalPortfolioValue)
	assert.Equal(t, 100.0, result.Data[0].PortfolioPct)

	msft := result.Data[1]
	assert.Equal(t, 0.0, msft.CurrentPrice)
	assert.Equal(t, 0.0, msft.DailyChangePct)
	assert.Equal(t, 0.0, msft.PortfolioPct)
	assert.Equal(t, "Software", msft.Industry)
}

func TestCalculate_MissingSnapshot(t *testing.T) {
	svc, _ := newTestService(nil, map[string]float64{"TSLA": 200})

	result, err := svc.Calculate(context.Background(), []domain.Holding{{Symbol: "tsla", CostBasis: 250, Shares: 4}}, false)
	require.NoError(t, err)

	pos := result.Data[0]
	assert.Equal(t, "TSLA", pos.Symbol)
	assert.Equal(t, 800.0, pos.PositionValue)
	assert.Equal(t, -20.0, pos.PortGainPct)
	assert.Equal(t, 0.0, pos.DailyChangePct)
	assert.Equal(t, 0.0, pos.ChanRangePct)
	assert.Equal(t, domain.NotAvailable, pos.Sector)
	assert.Equal(t, domain.NotAvailable, pos.Industry)
}

func TestCalculate_FlatChannel(t *testing.T) {
	snaps := map[string]domain.PriceSnapshot{
		"KO": {Symbol: "KO", Week52High: formulas.Ptr(60), Week52Low: formulas.Ptr(60)},
	}
	svc, _ := newTestService(snaps, map[string]float64{"KO": 60})

	result, err := svc.Calculate(context.Background(), []domain.Holding{{Symbol: "KO", CostBasis: 50, Shares: 1}}, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Data[0].ChanRangePct)
}

func TestCalculate_RefreshModes(t *testing.T) {
	svc, priceCache := newTestService(testingpkg.NewSnapshotFixtures(), map[string]float64{"AAPL": 150})
	holdings := []domain.Holding{{Symbol: "AAPL", CostBasis: 100, Shares: 1}}

	_, err := svc.Calculate(context.Background(), holdings, false)
	require.NoError(t, err)
	calls, _ := priceCache.RefreshCalls()
	assert.Equal(t, 0, calls)

	priceCache.SetStale(true)
	_, err = svc.Calculate(context.Background(), holdings, false)
	require.NoError(t, err)
	calls, forced := priceCache.RefreshCalls()
	assert.Equal(t, 1, calls)
	assert.False(t, forced)

	result, err := svc.Calculate(context.Background(), holdings, true)
	require.NoError(t, err)
	calls, forced = priceCache.RefreshCalls()
	assert.Equal(t, 2, calls)
	assert.True(t, forced)
	assert.Equal(t, RefreshForced, result.CacheInfo.RefreshMode)
}

func TestCalculate_SnapshotErrorDegrades(t *testing.T) {
	snapCache := testingpkg.NewMockSnapshotCache(nil)
	snapCache.SetError(testingpkg.ErrMockUpstream)
	svc := NewService(snapCache, testingpkg.NewMockPriceCache(map[string]float64{"AAPL": 150}), zerolog.Nop())

	result, err := svc.Calculate(context.Background(), []domain.Holding{{Symbol: "AAPL", CostBasis: 100, Shares: 2}}, false)
	require.NoError(t, err)
	assert.Equal(t, 300.0, result.TotalPortfolioValue)
}

func TestCalculate_Empty(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	_, err := svc.Calculate(context.Background(), nil, false)
	assert.ErrorIs(t, err, domain.ErrNoHoldings)
}
