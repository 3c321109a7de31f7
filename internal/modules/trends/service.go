// Package trends serves weekly OHLC history with a simple trend analysis per symbol.
package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

const (
	// CacheModule prefixes this module's file cache keys.
	CacheModule = "trends"
	// Years of history returned.
	Years = 8
)

// BarSource returns ascending daily OHLC bars since start.
type BarSource interface {
	DailyBars(ctx context.Context, symbols []string, start time.Time) (map[string][]domain.Bar, error)
}

// Result is the trends payload.
type Result struct {
	Data      map[string][]domain.Bar `json:"data"`
	Analysis  map[string]Analysis     `json:"analysis"`
	StartDate string                  `json:"start_date"`
	EndDate   string                  `json:"end_date"`
	Symbols   []string                `json:"symbols"`
	Timestamp string                  `json:"timestamp"`
}

// Service builds weekly trend data.
type Service struct {
	source BarSource
	store  *cache.Store
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a trends service.
func NewService(source BarSource, store *cache.Store, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		store:  store,
		now:    time.Now,
		log:    log.With().Str("service", "trends").Logger(),
	}
}

// Trends returns weekly bars and analysis for symbols. No symbols yields an empty payload.
func (s *Service) Trends(ctx context.Context, symbols []string, force bool) (*Result, error) {
	syms := domain.NormalizeSymbols(symbols)
	end := s.now()
	start := end.AddDate(0, 0, -Years*365)

	if len(syms) == 0 {
		return s.result(syms, start, end), nil
	}
	if s.source == nil {
		return nil, domain.ErrNotConfigured
	}

	compute := func() (*Result, error) { return s.compute(ctx, syms, start, end) }
	if s.store == nil {
		return compute()
	}
	return cache.FetchWithCache(s.store, cache.RequestKey(CacheModule, syms...), force, compute)
}

func (s *Service) compute(ctx context.Context, syms []string, start, end time.Time) (*Result, error) {
	daily, err := s.source.DailyBars(ctx, syms, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily bars: %w", err)
	}

	result := s.result(syms, start, end)
	for sym, bars := range daily {
		weeks := WeeklyBars(bars)
		if len(weeks) == 0 {
			continue
		}
		result.Data[sym] = weeks
		result.Analysis[sym] = Analyze(weeks)
	}

	s.log.Debug().Int("symbols", len(syms)).Int("with_data", len(result.Data)).Msg("Built weekly trends")
	return result, nil
}

func (s *Service) result(syms []string, start, end time.Time) *Result {
	return &Result{
		Data:      make(map[string][]domain.Bar),
		Analysis:  make(map[string]Analysis),
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Symbols:   syms,
		Timestamp: s.now().Format(time.RFC3339),
	}
}
