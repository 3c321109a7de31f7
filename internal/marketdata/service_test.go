package marketdata

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
	testingpkg "github.com/jcnfinancial/dashboard-api/internal/testing"
)

type fakeSource struct {
	mu    sync.Mutex
	data  map[string]domain.PriceSnapshot
	err   error
	calls [][]string
}

func (f *fakeSource) Snapshots(ctx context.Context, symbols []string, now time.Time) (map[string]domain.PriceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbols)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.PriceSnapshot)
	for _, s := range symbols {
		if snap, ok := f.data[s]; ok {
			out[s] = snap
		}
	}
	return out, nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestService(t *testing.T, src domain.SnapshotSource) (*Service, *clock, *cache.Store) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 2, 17, 9, 0, 0, 0, time.Local)}
	log := zerolog.New(nil).Level(zerolog.Disabled)
	store, err := cache.NewStore(t.TempDir(), log, cache.WithClock(clk.Now))
	require.NoError(t, err)
	return NewService(src, store, log, WithClock(clk.Now)), clk, store
}

func TestSnapshots_LoadsOnlyUnknownSymbols(t *testing.T) {
	src := &fakeSource{data: testingpkg.NewSnapshotFixtures()}
	svc, _, _ := newTestService(t, src)

	got, err := svc.Snapshots(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.Snapshots(context.Background(), []string{"aapl", "NVDA", "ZZZZ"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// ZZZZ had no rows and is not queried again today
	_, err = svc.Snapshots(context.Background(), []string{"ZZZZ"})
	require.NoError(t, err)

	require.Len(t, src.calls, 2)
	assert.Equal(t, []string{"AAPL", "MSFT"}, src.calls[0])
	assert.Equal(t, []string{"NVDA", "ZZZZ"}, src.calls[1])
	assert.Equal(t, 3, svc.Len())
	assert.Equal(t, "2026-02-17", svc.Info().CacheDate)
}

func TestSnapshots_ExpireAtMidnight(t *testing.T) {
	src := &fakeSource{data: testingpkg.NewSnapshotFixtures()}
	svc, clk, _ := newTestService(t, src)

	_, err := svc.Snapshots(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	clk.now = time.Date(2026, 2, 17, 23, 59, 59, 0, time.Local)
	_, err = svc.Snapshots(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	assert.Len(t, src.calls, 1)

	clk.now = time.Date(2026, 2, 18, 0, 0, 1, 0, time.Local)
	_, err = svc.Snapshots(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	assert.Len(t, src.calls, 2)
	assert.Equal(t, "2026-02-18", svc.Info().CacheDate)
}

func TestSnapshots_ErrorReturnsPartial(t *testing.T) {
	src := &fakeSource{data: testingpkg.NewSnapshotFixtures()}
	svc, _, _ := newTestService(t, src)

	_, err := svc.Snapshots(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	src.err = testingpkg.ErrMockUpstream
	got, err := svc.Snapshots(context.Background(), []string{"AAPL", "MSFT"})
	assert.ErrorIs(t, err, testingpkg.ErrMockUpstream)
	assert.Contains(t, got, "AAPL")
	assert.NotContains(t, got, "MSFT")
}

func TestSnapshots_NoSource(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	got, err := svc.Snapshots(context.Background(), []string{"AAPL"})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Empty(t, got)
	assert.Equal(t, domain.SnapshotCacheInfo{}, svc.Info())
}

func TestRestore(t *testing.T) {
	src := &fakeSource{data: testingpkg.NewSnapshotFixtures()}
	svc, clk, store := newTestService(t, src)

	_, err := svc.Snapshots(context.Background(), []string{"AAPL", "MSFT", "ZZZZ"})
	require.NoError(t, err)

	restored := NewService(src, store, zerolog.Nop(), WithClock(clk.Now))
	assert.Equal(t, 2, restored.Restore())

	got, err := restored.Snapshots(context.Background(), []string{"AAPL", "ZZZZ"})
	require.NoError(t, err)
	assert.Equal(t, 150.0, *got["AAPL"].LatestEODClose)
	assert.Len(t, src.calls, 1)

	// A new day ignores yesterday's file
	clk.now = clk.now.AddDate(0, 0, 1)
	fresh := NewService(src, store, zerolog.Nop(), WithClock(clk.Now))
	assert.Equal(t, 0, fresh.Restore())
}
