// Package prices keeps the latest quote per symbol in memory with a freshness TTL.
package prices

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/clientdata"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/workers"
)

// DefaultTTL is how long a fetched quote counts as current.
const DefaultTTL = 30 * time.Minute

// Manager is the process-wide current price cache. One mutex guards the map;
// fetches happen outside the lock.
type Manager struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote

	provider domain.QuoteProvider
	pool     *workers.WorkerPool
	repo     *clientdata.Repository
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithPersistence writes every fetched quote to the client data store.
func WithPersistence(repo *clientdata.Repository) Option {
	return func(m *Manager) {
		m.repo = repo
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates an empty cache. A non-positive ttl uses DefaultTTL.
func NewManager(provider domain.QuoteProvider, pool *workers.WorkerPool, ttl time.Duration, log zerolog.Logger, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if pool == nil {
		pool = workers.NewWorkerPool(workers.DefaultWorkers)
	}
	m := &Manager{
		quotes:   make(map[string]domain.Quote),
		provider: provider,
		pool:     pool,
		ttl:      ttl,
		now:      time.Now,
		log:      log.With().Str("service", "prices").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached quote for symbol regardless of age.
func (m *Manager) Get(symbol string) (domain.Quote, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[domain.NormalizeSymbol(symbol)]
	return q, ok
}

// All returns a copy of the cache.
func (m *Manager) All() map[string]domain.Quote {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.Quote, len(m.quotes))
	for k, v := range m.quotes {
		out[k] = v
	}
	return out
}

// Len returns the number of cached symbols.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.quotes)
}

// Clear empties the in-memory cache.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes = make(map[string]domain.Quote)
}

// NeedsRefresh reports whether any symbol is missing or older than the TTL.
func (m *Manager) NeedsRefresh(symbols []string) bool {
	return len(m.staleSymbols(domain.NormalizeSymbols(symbols))) > 0
}

func (m *Manager) staleSymbols(symbols []string) []string {
	now := m.now()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stale []string
	for _, sym := range symbols {
		q, ok := m.quotes[sym]
		if !ok || now.Sub(q.FetchedAt) >= m.ttl {
			stale = append(stale, sym)
		}
	}
	return stale
}

// Refresh fetches stale symbols (all of them when force is set) through the worker pool
// and returns the known price of every requested symbol. Failed fetches are logged and
// leave any previous quote in place.
func (m *Manager) Refresh(ctx context.Context, symbols []string, force bool) map[string]float64 {
	symbols = domain.NormalizeSymbols(symbols)

	toFetch := symbols
	if !force {
		toFetch = m.staleSymbols(symbols)
	}

	if len(toFetch) > 0 && m.provider != nil {
		m.fetch(ctx, toFetch)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		if q, ok := m.quotes[sym]; ok {
			out[sym] = q.Price
		}
	}
	return out
}

func (m *Manager) fetch(ctx context.Context, symbols []string) {
	start := m.now()
	results := workers.Run(ctx, m.pool, symbols, func(ctx context.Context, sym string) (*domain.Quote, error) {
		return m.provider.Quote(ctx, sym)
	})

	fetched := make([]domain.Quote, 0, len(results))
	for i, r := range results {
		if r.Err != nil || r.Value == nil || r.Value.Price <= 0 {
			m.log.Warn().Err(r.Err).Str("symbol", symbols[i]).Msg("Failed to fetch current price")
			continue
		}
		q := *r.Value
		q.Symbol = symbols[i]
		q.FetchedAt = m.now()
		q.ExpiresAt = q.FetchedAt.Add(m.ttl)
		fetched = append(fetched, q)
	}

	m.mu.Lock()
	for _, q := range fetched {
		m.quotes[q.Symbol] = q
	}
	m.mu.Unlock()

	m.persist(fetched)

	m.log.Info().
		Int("requested", len(symbols)).
		Int("fetched", len(fetched)).
		Dur("duration", m.now().Sub(start)).
		Msg("Refreshed current prices")
}

func (m *Manager) persist(quotes []domain.Quote) {
	if m.repo == nil {
		return
	}
	for _, q := range quotes {
		if err := m.repo.Store(clientdata.TableCurrentPrices, q.Symbol, q, m.ttl); err != nil {
			m.log.Warn().Err(err).Str("symbol", q.Symbol).Msg("Failed to persist price")
		}
	}
}

// Restore loads persisted quotes, expired ones included; their fetched_at keeps them stale.
func (m *Manager) Restore() (int, error) {
	if m.repo == nil {
		return 0, nil
	}

	entries, err := m.repo.Entries(clientdata.TableCurrentPrices)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	restored := 0
	for _, e := range entries {
		var q domain.Quote
		if err := e.Decode(&q); err != nil {
			m.log.Warn().Err(err).Str("symbol", e.Key).Msg("Skipping undecodable persisted price")
			continue
		}
		if existing, ok := m.quotes[e.Key]; ok && existing.FetchedAt.After(q.FetchedAt) {
			continue
		}
		q.Symbol = e.Key
		m.quotes[e.Key] = q
		restored++
	}

	m.log.Info().Int("restored", restored).Msg("Restored persisted prices")
	return restored, nil
}

// Compile-time check
var _ domain.PriceCache = (*Manager)(nil)
