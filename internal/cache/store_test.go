package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	store, err := NewStore(t.TempDir(), logger, WithClock(clock.Now))
	require.NoError(t, err)
	return store
}

func TestStore_RoundTripSameDay(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 17, 9, 30, 0, 0, time.Local)}
	store := newTestStore(t, clock)

	payload := map[string]interface{}{
		"portfolio_daily_change": 1.23,
		"benchmark_symbol":       "SPY",
		"holdings":               []string{"AAPL", "MSFT"},
	}
	expected, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, store.Save("benchmarks", payload))

	clock.now = clock.now.Add(14 * time.Hour) // 23:30 same day
	data, ok := store.Load("benchmarks")
	require.True(t, ok)
	assert.Equal(t, expected, []byte(data))
}

func TestStore_RawMessageStoredVerbatim(t *testing.T) {
	store := newTestStore(t, &fakeClock{now: time.Date(2026, 2, 17, 9, 30, 0, 0, time.Local)})

	raw := json.RawMessage("{\n  \"sector\": \"Health <Care> & Services\",\n  \"value\": 1.50\n}")
	require.NoError(t, store.Save("allocation", raw))

	data, ok := store.Load("allocation")
	require.True(t, ok)
	assert.Equal(t, string(raw), string(data))

	info, err := store.Info("allocation")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "allocation", info.ModuleName)
	assert.True(t, info.IsValid)

	assert.Error(t, store.Save("allocation", json.RawMessage(`{"broken"`)))
}

func TestStore_MissAfterRollover(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 17, 23, 59, 0, 0, time.Local)}
	store := newTestStore(t, clock)

	require.NoError(t, store.Save("trends", []int{1, 2, 3}))

	clock.now = time.Date(2026, 2, 18, 0, 0, 1, 0, time.Local)
	_, ok := store.Load("trends")
	assert.False(t, ok)

	// Stale data is still reachable for fallbacks
	stale, ok := store.LoadStale("trends")
	require.True(t, ok)
	assert.JSONEq(t, `[1,2,3]`, string(stale))
}

func TestStore_LegacyFileWithoutExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 17, 12, 0, 0, 0, time.Local)}
	store := newTestStore(t, clock)

	legacy := `{"cache_date":"2026-02-17","loaded_at":"2026-02-17T08:00:00","module_name":"allocation","data":{"a":1}}`
	require.NoError(t, os.WriteFile(store.Path("allocation"), []byte(legacy), 0644))

	data, ok := store.Load("allocation")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))

	clock.now = clock.now.AddDate(0, 0, 1)
	_, ok = store.Load("allocation")
	assert.False(t, ok)
}

func TestStore_LoadMissingAndCorrupt(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := newTestStore(t, clock)

	_, ok := store.Load("nothing")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(store.Path("broken"), []byte("{not json"), 0644))
	_, ok = store.Load("broken")
	assert.False(t, ok)

	_, ok = store.Load("../escape")
	assert.False(t, ok)
}

func TestStore_SaveRejectsBadKey(t *testing.T) {
	store := newTestStore(t, &fakeClock{now: time.Now()})
	assert.Error(t, store.Save("../../etc/passwd", "x"))
	assert.Error(t, store.Save("", "x"))
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t, &fakeClock{now: time.Now()})

	require.NoError(t, store.Save("benchmarks", 1))
	require.NoError(t, store.Save("benchmarks-abc123", 2))
	require.NoError(t, store.Save("trends", 3))

	removed, err := store.Clear("benchmarks")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoFileExists(t, store.Path("benchmarks"))
	assert.FileExists(t, store.Path("trends"))

	removed, err = store.Clear("")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = store.Clear("missing")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestStore_InfoAndList(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)}
	store := newTestStore(t, clock)

	info, err := store.Info("stock_prices")
	require.NoError(t, err)
	assert.Nil(t, info)

	require.NoError(t, store.Save("stock_prices", map[string]int{"AAPL": 1}))
	require.NoError(t, store.Save("allocation", map[string]int{"MSFT": 2}))

	info, err = store.Info("stock_prices")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "stock_prices", info.ModuleName)
	assert.Equal(t, "2026-03-02", info.CacheDate)
	assert.True(t, info.IsValid)
	assert.Equal(t, filepath.Join(store.Dir(), "stock_prices_data.json"), info.FilePath)
	assert.Positive(t, info.FileSizeBytes)
	assert.True(t, info.ExpiresAt.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local)))

	infos, err := store.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "allocation", infos[0].ModuleName)
	assert.Equal(t, "stock_prices", infos[1].ModuleName)
}

func TestNextMidnight(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	got := NextMidnight(time.Date(2026, 12, 31, 18, 45, 0, 0, loc))
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, loc), got)
}
