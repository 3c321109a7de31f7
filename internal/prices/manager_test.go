package prices

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcnfinancial/dashboard-api/internal/clientdata"
	testingpkg "github.com/jcnfinancial/dashboard-api/internal/testing"
	"github.com/jcnfinancial/dashboard-api/internal/workers"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(provider *testingpkg.MockQuoteProvider, opts ...Option) (*Manager, *clock) {
	clk := &clock{now: time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	m := NewManager(provider, workers.NewWorkerPool(4), 30*time.Minute, zerolog.New(nil).Level(zerolog.Disabled), opts...)
	return m, clk
}

func TestRefresh(t *testing.T) {
	provider := testingpkg.NewMockQuoteProvider("mock", map[string]float64{"AAPL": 150, "MSFT": 400})
	m, _ := newTestManager(provider)

	assert.True(t, m.NeedsRefresh([]string{"AAPL"}))

	prices := m.Refresh(context.Background(), []string{"aapl", "MSFT.US", "ZZZZ"}, false)
	assert.Equal(t, map[string]float64{"AAPL": 150, "MSFT": 400}, prices)
	assert.Equal(t, 2, m.Len())
	assert.False(t, m.NeedsRefresh([]string{"AAPL", "MSFT"}))
	// ZZZZ failed and stays missing
	assert.True(t, m.NeedsRefresh([]string{"ZZZZ"}))

	q, ok := m.Get("aapl")
	require.True(t, ok)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, q.FetchedAt.Add(30*time.Minute), q.ExpiresAt)
}

func TestRefresh_SkipsFreshUnlessForced(t *testing.T) {
	provider := testingpkg.NewMockQuoteProvider("mock", map[string]float64{"AAPL": 150})
	m, clk := newTestManager(provider)

	m.Refresh(context.Background(), []string{"AAPL"}, false)
	assert.Equal(t, int64(1), provider.Calls())

	m.Refresh(context.Background(), []string{"AAPL"}, false)
	assert.Equal(t, int64(1), provider.Calls())

	m.Refresh(context.Background(), []string{"AAPL"}, true)
	assert.Equal(t, int64(2), provider.Calls())

	clk.Advance(31 * time.Minute)
	assert.True(t, m.NeedsRefresh([]string{"AAPL"}))
	provider.SetPrice("AAPL", 155)
	prices := m.Refresh(context.Background(), []string{"AAPL"}, false)
	assert.Equal(t, 155.0, prices["AAPL"])
}

func TestRefresh_FailureKeepsPreviousQuote(t *testing.T) {
	provider := testingpkg.NewMockQuoteProvider("mock", map[string]float64{"AAPL": 150})
	m, _ := newTestManager(provider)

	m.Refresh(context.Background(), []string{"AAPL"}, false)
	provider.SetError(testingpkg.ErrMockUpstream)

	prices := m.Refresh(context.Background(), []string{"AAPL"}, true)
	assert.Equal(t, 150.0, prices["AAPL"])
}

func TestPersistAndRestore(t *testing.T) {
	db := testingpkg.NewClientDataDB(t)
	repo := clientdata.NewRepository(db.Conn())

	provider := testingpkg.NewMockQuoteProvider("mock", map[string]float64{"AAPL": 150, "MSFT": 400})
	m, _ := newTestManager(provider, WithPersistence(repo))
	m.Refresh(context.Background(), []string{"AAPL", "MSFT"}, false)

	restored, _ := newTestManager(testingpkg.NewMockQuoteProvider("mock", nil), WithPersistence(repo))
	n, err := restored.Restore()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	q, ok := restored.Get("MSFT")
	require.True(t, ok)
	assert.Equal(t, 400.0, q.Price)
	assert.Equal(t, "mock", q.Source)
}

func TestAllAndClear(t *testing.T) {
	provider := testingpkg.NewMockQuoteProvider("mock", map[string]float64{"AAPL": 150})
	m, _ := newTestManager(provider)
	m.Refresh(context.Background(), []string{"AAPL"}, false)

	all := m.All()
	all["MSFT"] = all["AAPL"]
	assert.Equal(t, 1, m.Len())

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestConcurrentAccess(t *testing.T) {
	provider := testingpkg.NewMockQuoteProvider("mock", map[string]float64{"AAPL": 150, "MSFT": 400})
	m, _ := newTestManager(provider)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Refresh(context.Background(), []string{"AAPL", "MSFT"}, true)
			m.Get("AAPL")
			m.NeedsRefresh([]string{"MSFT"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, m.Len())
}
