// Package marketdata holds today's end-of-day snapshots, loading each symbol at most once per day.
package marketdata

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

// CacheKey is the file cache key the snapshot map is persisted under.
const CacheKey = "motherduck"

// persisted is the file cache payload.
type persisted struct {
	LoadedAt  time.Time                       `json:"loaded_at"`
	Snapshots map[string]domain.PriceSnapshot `json:"snapshots"`
	Missing   []string                        `json:"missing,omitempty"`
}

// Service is the daily snapshot cache.
type Service struct {
	loadMu sync.Mutex // serializes database loads
	mu     sync.RWMutex

	snapshots map[string]domain.PriceSnapshot
	missing   map[string]bool // queried today, no rows
	loadedAt  time.Time
	expiresAt time.Time

	source domain.SnapshotSource
	store  *cache.Store
	now    func() time.Time
	log    zerolog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an empty cache. source may be nil when analytics is not configured;
// store may be nil to disable persistence.
func NewService(source domain.SnapshotSource, store *cache.Store, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		snapshots: make(map[string]domain.PriceSnapshot),
		missing:   make(map[string]bool),
		source:    source,
		store:     store,
		now:       time.Now,
		log:       log.With().Str("service", "marketdata").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshots returns today's snapshots for symbols, loading the ones not seen yet today.
// On a load failure the snapshots already cached are returned together with the error.
func (s *Service) Snapshots(ctx context.Context, symbols []string) (map[string]domain.PriceSnapshot, error) {
	symbols = domain.NormalizeSymbols(symbols)

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.rollover()

	var err error
	if todo := s.unknown(symbols); len(todo) > 0 {
		err = s.load(ctx, todo)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.PriceSnapshot, len(symbols))
	for _, sym := range symbols {
		if snap, ok := s.snapshots[sym]; ok {
			out[sym] = snap
		}
	}
	return out, err
}

// rollover drops yesterday's data once the expiry passes.
func (s *Service) rollover() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		s.log.Info().Time("expired_at", s.expiresAt).Msg("Snapshot cache expired, starting a new day")
		s.snapshots = make(map[string]domain.PriceSnapshot)
		s.missing = make(map[string]bool)
		s.loadedAt = time.Time{}
		s.expiresAt = time.Time{}
	}
}

func (s *Service) unknown(symbols []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var todo []string
	for _, sym := range symbols {
		if _, ok := s.snapshots[sym]; !ok && !s.missing[sym] {
			todo = append(todo, sym)
		}
	}
	return todo
}

func (s *Service) load(ctx context.Context, symbols []string) error {
	if s.source == nil {
		return domain.ErrNotConfigured
	}

	now := s.now()
	loaded, err := s.source.Snapshots(ctx, symbols, now)
	if err != nil {
		s.log.Error().Err(err).Strs("symbols", symbols).Msg("Failed to load snapshots")
		return err
	}

	s.mu.Lock()
	for _, sym := range symbols {
		if snap, ok := loaded[sym]; ok {
			s.snapshots[sym] = snap
		} else {
			s.missing[sym] = true
		}
	}
	s.loadedAt = now
	s.expiresAt = cache.NextMidnight(now)
	payload := s.payloadLocked()
	s.mu.Unlock()

	s.log.Info().Int("requested", len(symbols)).Int("loaded", len(loaded)).Msg("Loaded EOD snapshots")
	s.persist(payload)
	return nil
}

func (s *Service) payloadLocked() persisted {
	p := persisted{
		LoadedAt:  s.loadedAt,
		Snapshots: make(map[string]domain.PriceSnapshot, len(s.snapshots)),
	}
	for k, v := range s.snapshots {
		p.Snapshots[k] = v
	}
	for sym := range s.missing {
		p.Missing = append(p.Missing, sym)
	}
	return p
}

func (s *Service) persist(p persisted) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(CacheKey, p); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist snapshot cache")
	}
}

// Restore reloads today's persisted snapshots, if any. Returns the number restored.
func (s *Service) Restore() int {
	if s.store == nil {
		return 0
	}
	raw, ok := s.store.Load(CacheKey)
	if !ok {
		return 0
	}

	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		s.log.Warn().Err(err).Msg("Ignoring unreadable snapshot cache")
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Snapshots != nil {
		s.snapshots = p.Snapshots
	}
	s.missing = make(map[string]bool, len(p.Missing))
	for _, sym := range p.Missing {
		s.missing[sym] = true
	}
	s.loadedAt = p.LoadedAt
	s.expiresAt = cache.NextMidnight(s.now())

	s.log.Info().Int("snapshots", len(s.snapshots)).Msg("Restored snapshot cache")
	return len(s.snapshots)
}

// Info reports when the cache was filled. Empty fields mean nothing was loaded today.
func (s *Service) Info() domain.SnapshotCacheInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadedAt.IsZero() {
		return domain.SnapshotCacheInfo{}
	}
	return domain.SnapshotCacheInfo{
		CacheDate: s.loadedAt.Format("2006-01-02"),
		LoadedAt:  s.loadedAt.Format(time.RFC3339),
	}
}

// Len returns the number of cached snapshots.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// Clear forgets everything so the next request reloads.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = make(map[string]domain.PriceSnapshot)
	s.missing = make(map[string]bool)
	s.loadedAt = time.Time{}
	s.expiresAt = time.Time{}
}

var _ domain.SnapshotCache = (*Service)(nil)
