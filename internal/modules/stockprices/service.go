// Package stockprices serves daily close history for the price comparison chart.
package stockprices

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/analytics"
	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

const (
	// CacheModule prefixes this module's file cache keys.
	CacheModule = "stock_prices"
	// Years of history returned.
	Years = 5
)

// CloseHistory returns ascending daily closes since start.
type CloseHistory interface {
	DailyCloses(ctx context.Context, table string, symbols []string, start time.Time) (map[string][]domain.PricePoint, error)
}

// Result is the stock prices payload.
type Result struct {
	Data      map[string][]domain.PricePoint `json:"data"`
	StartDate string                         `json:"start_date"`
	EndDate   string                         `json:"end_date"`
	Symbols   []string                       `json:"symbols"`
	Timestamp string                         `json:"timestamp"`
}

// Service loads close history.
type Service struct {
	source CloseHistory
	store  *cache.Store
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a stock prices service.
func NewService(source CloseHistory, store *cache.Store, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		store:  store,
		now:    time.Now,
		log:    log.With().Str("service", "stock_prices").Logger(),
	}
}

// Prices returns daily closes for symbols over the last five years.
func (s *Service) Prices(ctx context.Context, symbols []string, force bool) (*Result, error) {
	syms := domain.NormalizeSymbols(symbols)
	if len(syms) == 0 {
		return nil, domain.ErrNoData
	}
	if s.source == nil {
		return nil, domain.ErrNotConfigured
	}

	compute := func() (*Result, error) { return s.compute(ctx, syms) }
	if s.store == nil {
		return compute()
	}
	return cache.FetchWithCache(s.store, cache.RequestKey(CacheModule, syms...), force, compute)
}

func (s *Service) compute(ctx context.Context, syms []string) (*Result, error) {
	end := s.now()
	start := end.AddDate(0, 0, -Years*365)

	data, err := s.source.DailyCloses(ctx, analytics.TableEOD, syms, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily closes: %w", err)
	}

	s.log.Debug().Int("symbols", len(syms)).Int("with_data", len(data)).Msg("Loaded close history")

	return &Result{
		Data:      data,
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Symbols:   syms,
		Timestamp: end.Format(time.RFC3339),
	}, nil
}
