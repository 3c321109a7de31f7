// Package allocation breaks a portfolio down by company, style category, sector and industry.
package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/pkg/formulas"
)

// CacheModule prefixes this module's file cache keys.
const CacheModule = "allocation"

// Result holds the four pie datasets.
type Result struct {
	Company     []Slice `json:"company"`
	Category    []Slice `json:"category"`
	Sector      []Slice `json:"sector"`
	Industry    []Slice `json:"industry"`
	LastUpdated string  `json:"last_updated"`

	partial bool
}

// Partial reports a breakdown built while some snapshots failed to load.
func (r *Result) Partial() bool { return r.partial }

// Service computes allocations from end-of-day closes.
type Service struct {
	snapshots domain.SnapshotCache
	store     *cache.Store
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates an allocation service. store may be nil to disable caching.
func NewService(snapshots domain.SnapshotCache, store *cache.Store, log zerolog.Logger) *Service {
	return &Service{
		snapshots: snapshots,
		store:     store,
		now:       time.Now,
		log:       log.With().Str("service", "allocation").Logger(),
	}
}

// Allocate returns the cached breakdown for these holdings, computing it when needed.
func (s *Service) Allocate(ctx context.Context, holdings []domain.Holding, force bool) (*Result, error) {
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

func (s *Service) compute(ctx context.Context, holdings []domain.Holding) (*Result, error) {
	snaps, err := s.snapshots.Snapshots(ctx, domain.HoldingSymbols(holdings))
	if err != nil && len(snaps) == 0 {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	if err != nil {
		s.log.Warn().Err(err).Int("loaded", len(snaps)).Msg("Computing allocation with incomplete snapshots")
	}

	var (
		companies, categories, sectors, industries []labelled
		total                                      float64
	)
	for _, h := range holdings {
		sym := domain.NormalizeSymbol(h.Symbol)
		snap, ok := snaps[sym]
		if !ok || snap.LatestEODClose == nil {
			continue
		}
		value := *snap.LatestEODClose * h.Shares
		if value <= 0 {
			continue
		}
		total += value

		companies = append(companies, labelled{label: sym, value: value})
		categories = append(categories, labelled{label: Category(Valuation{}), value: value})
		sectors = append(sectors, labelled{label: snap.Sector, value: value})
		industries = append(industries, labelled{label: snap.Industry, value: value})
	}

	company := aggregateByGroup(companies, total, nil)
	for i := range company {
		company[i].Ticker = company[i].Name
	}

	s.log.Debug().Int("holdings", len(holdings)).Float64("total_value", formulas.Round2(total)).Msg("Computed allocation")

	return &Result{
		Company:     company,
		Category:    aggregateByGroup(categories, total, nil),
		Sector:      aggregateByGroup(sectors, total, skipLabel),
		Industry:    aggregateByGroup(industries, total, skipLabel),
		LastUpdated: s.now().Format(time.RFC3339),
		partial:     err != nil,
	}, nil
}
