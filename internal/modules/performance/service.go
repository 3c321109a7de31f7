// Package performance computes per-position and portfolio performance from live
// prices and the daily end-of-day snapshots.
package performance

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/pkg/formulas"
)

// Service computes the performance table.
type Service struct {
	snapshots domain.SnapshotCache
	prices    domain.PriceCache
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates a performance service.
func NewService(snapshots domain.SnapshotCache, prices domain.PriceCache, log zerolog.Logger) *Service {
	return &Service{
		snapshots: snapshots,
		prices:    prices,
		now:       time.Now,
		log:       log.With().Str("service", "performance").Logger(),
	}
}

// Calculate prices every holding. Missing snapshots or prices degrade to zeros; only an
// empty holdings list is an error.
func (s *Service) Calculate(ctx context.Context, holdings []domain.Holding, force bool) (*Result, error) {
	if len(holdings) == 0 {
		return nil, domain.ErrNoHoldings
	}
	symbols := domain.HoldingSymbols(holdings)

	snaps, err := s.snapshots.Snapshots(ctx, symbols)
	if err != nil {
		s.log.Warn().Err(err).Msg("Continuing without complete EOD snapshots")
	}

	mode := RefreshAuto
	if force {
		mode = RefreshForced
	}
	if force || s.prices.NeedsRefresh(symbols) {
		s.prices.Refresh(ctx, symbols, force)
	}

	positions := make([]Position, 0, len(holdings))
	values := make([]float64, len(holdings))
	total := 0.0
	for i, h := range holdings {
		sym := domain.NormalizeSymbol(h.Symbol)
		pos := Position{
			Symbol:    sym,
			Security:  sym,
			CostBasis: h.CostBasis,
			Shares:    h.Shares,
			Sector:    domain.NotAvailable,
			Industry:  domain.NotAvailable,
		}

		snap, hasSnap := snaps[sym]
		if hasSnap {
			pos.Sector = orNA(snap.Sector)
			pos.Industry = orNA(snap.Industry)
			pos.Week52High = formulas.Round2(deref(snap.Week52High))
			pos.Week52Low = formulas.Round2(deref(snap.Week52Low))
		}

		quote, hasQuote := s.prices.Get(sym)
		if quote.Name != "" {
			pos.Security = quote.Name
		}
		if !hasQuote || quote.Price <= 0 {
			positions = append(positions, pos)
			continue
		}

		cur := quote.Price
		value := cur * h.Shares
		values[i] = value
		total += value

		pos.CurrentPrice = formulas.Round2(cur)
		pos.PositionValue = formulas.Round2(value)
		pos.PortGainPct = formulas.Round2(formulas.PercentChange(cur, &h.CostBasis))
		if hasSnap {
			pos.DailyChangePct = formulas.Round2(formulas.PercentChange(cur, snap.PrevClose))
			pos.YTDPct = formulas.Round2(formulas.PercentChange(cur, snap.YTDStartPrice))
			pos.YoYPct = formulas.Round2(formulas.PercentChange(cur, snap.YearAgoPrice))
			pos.PctBelow52WkHigh = formulas.Round2(formulas.PercentBelowHigh(cur, snap.Week52High))
			pos.ChanRangePct = formulas.Round1(formulas.ChannelPosition(cur, snap.Week52High, snap.Week52Low))
		}
		positions = append(positions, pos)
	}

	// Weights use unrounded values so they sum to 100
	for i := range positions {
		positions[i].PortfolioPct = formulas.Round2(formulas.Share(values[i], total))
	}

	info := s.snapshots.Info()
	return &Result{
		Data:                positions,
		TotalPositions:      len(positions),
		TotalPortfolioValue: formulas.Round2(total),
		LastUpdated:         s.now().Format(time.RFC3339),
		CacheInfo: CacheInfo{
			MotherDuckCacheDate: info.CacheDate,
			MotherDuckLoadedAt:  info.LoadedAt,
			CurrentPricesCount:  s.prices.Len(),
			RefreshMode:         mode,
		},
	}, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func orNA(s string) string {
	if s == "" {
		return domain.NotAvailable
	}
	return s
}
