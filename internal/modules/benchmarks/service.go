// Package benchmarks compares the portfolio's last daily move against SPY.
package benchmarks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/analytics"
	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/pkg/formulas"
)

const (
	// CacheModule prefixes this module's file cache keys.
	CacheModule = "benchmarks"
	// BenchmarkSymbol is the ETF the portfolio is measured against.
	BenchmarkSymbol = "SPY"
)

// CloseSource returns the newest closes of a symbol, newest first.
type CloseSource interface {
	LatestCloses(ctx context.Context, table, symbol string, n int) ([]domain.PricePoint, error)
}

// Result is the benchmark comparison payload.
type Result struct {
	PortfolioDailyChange float64 `json:"portfolio_daily_change"`
	BenchmarkDailyChange float64 `json:"benchmark_daily_change"`
	DailyAlpha           float64 `json:"daily_alpha"`
	LastUpdated          string  `json:"last_updated"`
	BenchmarkSymbol      string  `json:"benchmark_symbol"`
	BenchmarkDate        string  `json:"benchmark_date"`
	Error                string  `json:"error,omitempty"`

	partial bool
}

// Partial reports a comparison built from incomplete data.
func (r *Result) Partial() bool { return r.partial || r.Error != "" }

// Service computes benchmark comparisons.
type Service struct {
	snapshots domain.SnapshotCache
	closes    CloseSource
	store     *cache.Store
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates a benchmark service. closes and store may be nil.
func NewService(snapshots domain.SnapshotCache, closes CloseSource, store *cache.Store, log zerolog.Logger) *Service {
	return &Service{
		snapshots: snapshots,
		closes:    closes,
		store:     store,
		now:       time.Now,
		log:       log.With().Str("service", "benchmarks").Logger(),
	}
}

// Compare returns the portfolio's daily change, the benchmark's, and the difference.
func (s *Service) Compare(ctx context.Context, holdings []domain.Holding, force bool) (*Result, error) {
	if len(holdings) == 0 {
		return nil, domain.ErrNoHoldings
	}
	compute := func() (*Result, error) { return s.compute(ctx, holdings) }
	if s.store == nil {
		return compute()
	}
	key := cache.RequestKey(CacheModule, domain.HoldingKeyParts(holdings)...)
	return cache.FetchWithCache(s.store, key, force, compute)
}

// compute never fails: an unavailable side of the comparison counts as a 0% move and is
// described in the payload's error field.
func (s *Service) compute(ctx context.Context, holdings []domain.Holding) (*Result, error) {
	var problems []string

	snaps, err := s.snapshots.Snapshots(ctx, domain.HoldingSymbols(holdings))
	if err != nil {
		s.log.Warn().Err(err).Int("loaded", len(snaps)).Msg("Portfolio snapshots unavailable")
		if len(snaps) == 0 {
			problems = append(problems, fmt.Sprintf("portfolio data unavailable: %v", err))
		}
	}

	result := &Result{
		PortfolioDailyChange: formulas.Round2(portfolioDailyChange(holdings, snaps)),
		LastUpdated:          s.now().Format(time.RFC3339),
		BenchmarkSymbol:      BenchmarkSymbol,
		BenchmarkDate:        domain.NotAvailable,
		partial:              err != nil,
	}

	benchmark, date, err := s.benchmarkDailyChange(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Benchmark unavailable")
		problems = append(problems, err.Error())
	} else {
		result.BenchmarkDailyChange = formulas.Round2(benchmark)
		result.BenchmarkDate = date
	}
	result.DailyAlpha = formulas.Round2(result.PortfolioDailyChange - result.BenchmarkDailyChange)
	result.Error = strings.Join(problems, "; ")

	return result, nil
}

// portfolioDailyChange weights each holding's rounded daily change by its EOD value.
func portfolioDailyChange(holdings []domain.Holding, snaps map[string]domain.PriceSnapshot) float64 {
	var values, changes []float64
	for _, h := range holdings {
		snap, ok := snaps[domain.NormalizeSymbol(h.Symbol)]
		if !ok || snap.LatestEODClose == nil {
			continue
		}
		values = append(values, *snap.LatestEODClose*h.Shares)
		changes = append(changes, formulas.Round2(formulas.PercentChange(*snap.LatestEODClose, snap.PrevClose)))
	}
	return formulas.WeightedChange(values, changes)
}

func (s *Service) benchmarkDailyChange(ctx context.Context) (float64, string, error) {
	if s.closes == nil {
		return 0, "", domain.ErrNotConfigured
	}
	points, err := s.closes.LatestCloses(ctx, analytics.TableETFs, BenchmarkSymbol, 2)
	if err != nil {
		return 0, "", err
	}
	if len(points) < 2 {
		return 0, "", fmt.Errorf("insufficient %s data: %w", BenchmarkSymbol, domain.ErrNoData)
	}
	latest, prev := points[0], points[1]
	return formulas.PercentChange(latest.Close, &prev.Close), latest.Date, nil
}
