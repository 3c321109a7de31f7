package testing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

// MockQuoteProvider returns canned prices.
type MockQuoteProvider struct {
	mu     sync.RWMutex
	name   string
	prices map[string]float64
	err    error
	calls  atomic.Int64
}

// NewMockQuoteProvider creates a provider answering from prices.
func NewMockQuoteProvider(name string, prices map[string]float64) *MockQuoteProvider {
	if prices == nil {
		prices = make(map[string]float64)
	}
	return &MockQuoteProvider{name: name, prices: prices}
}

// SetPrice sets one symbol's price.
func (m *MockQuoteProvider) SetPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = price
}

// SetError makes every call fail with err.
func (m *MockQuoteProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many quotes were requested.
func (m *MockQuoteProvider) Calls() int64 {
	return m.calls.Load()
}

func (m *MockQuoteProvider) Name() string {
	return m.name
}

func (m *MockQuoteProvider) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	price, ok := m.prices[symbol]
	if !ok {
		return nil, domain.ErrNoData
	}
	return &domain.Quote{Symbol: symbol, Price: price, Source: m.name, FetchedAt: time.Now()}, nil
}

// MockPriceCache is an in-memory domain.PriceCache.
type MockPriceCache struct {
	mu           sync.RWMutex
	quotes       map[string]domain.Quote
	stale        bool
	refreshCalls int
	forced       bool
}

// NewMockPriceCache creates a cache pre-filled with prices.
func NewMockPriceCache(prices map[string]float64) *MockPriceCache {
	quotes := make(map[string]domain.Quote, len(prices))
	for sym, p := range prices {
		quotes[sym] = domain.Quote{Symbol: sym, Price: p, Source: "mock", FetchedAt: time.Now()}
	}
	return &MockPriceCache{quotes: quotes}
}

// SetStale controls what NeedsRefresh reports.
func (m *MockPriceCache) SetStale(stale bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale = stale
}

// RefreshCalls returns the number of Refresh calls and whether the last was forced.
func (m *MockPriceCache) RefreshCalls() (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshCalls, m.forced
}

func (m *MockPriceCache) Get(symbol string) (domain.Quote, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[symbol]
	return q, ok
}

func (m *MockPriceCache) NeedsRefresh(symbols []string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stale
}

func (m *MockPriceCache) Refresh(ctx context.Context, symbols []string, force bool) map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	m.forced = force

	out := make(map[string]float64)
	for _, sym := range symbols {
		if q, ok := m.quotes[sym]; ok {
			out[sym] = q.Price
		}
	}
	return out
}

func (m *MockPriceCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.quotes)
}

// MockSnapshotCache is an in-memory domain.SnapshotCache.
type MockSnapshotCache struct {
	mu        sync.RWMutex
	snapshots map[string]domain.PriceSnapshot
	err       error
	partial   bool
}

// NewMockSnapshotCache creates a cache holding snapshots.
func NewMockSnapshotCache(snapshots map[string]domain.PriceSnapshot) *MockSnapshotCache {
	if snapshots == nil {
		snapshots = make(map[string]domain.PriceSnapshot)
	}
	return &MockSnapshotCache{snapshots: snapshots}
}

// SetError makes Snapshots fail.
func (m *MockSnapshotCache) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	m.partial = false
}

// SetPartialError makes Snapshots return the snapshots it holds together with err,
// like a load that failed after some symbols were already cached.
func (m *MockSnapshotCache) SetPartialError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	m.partial = true
}

func (m *MockSnapshotCache) Snapshots(ctx context.Context, symbols []string) (map[string]domain.PriceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil && !m.partial {
		return nil, m.err
	}
	out := make(map[string]domain.PriceSnapshot, len(symbols))
	for _, sym := range symbols {
		if s, ok := m.snapshots[sym]; ok {
			out[sym] = s
		}
	}
	return out, m.err
}

func (m *MockSnapshotCache) Info() domain.SnapshotCacheInfo {
	return domain.SnapshotCacheInfo{CacheDate: "2026-02-17", LoadedAt: "2026-02-17T09:00:00Z"}
}

func (m *MockSnapshotCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}

// ErrMockUpstream is a generic upstream failure for tests.
var ErrMockUpstream = errors.New("mock upstream failure")
