package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/utils"
)

type eodRow struct {
	date     time.Time
	close    nullFloat
	high     nullFloat
	low      nullFloat
	sector   string
	industry string
}

// Snapshots builds the end-of-day reference prices for each symbol as of now.
// Symbols with no rows are absent from the result.
func (s *Source) Snapshots(ctx context.Context, symbols []string, now time.Time) (map[string]domain.PriceSnapshot, error) {
	result := make(map[string]domain.PriceSnapshot)
	in, args := symbolArgs(symbols)
	if len(args) == 0 {
		return result, nil
	}

	table, err := s.table(TableEOD)
	if err != nil {
		return nil, err
	}

	yearAgo := now.AddDate(-1, 0, 0)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	windowStart := yearAgo
	if yearStart.Before(windowStart) {
		windowStart = yearStart
	}

	query := fmt.Sprintf(`
		SELECT symbol, date, close, high, low, gics_sector, industry
		FROM %s
		WHERE symbol IN (%s) AND date >= %s
		ORDER BY symbol, date`, table, in, s.dateParam())
	args = append(args, windowStart.Format(dateLayout))

	done := utils.MeasureQuery("snapshots", s.log)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	bySymbol := make(map[string][]eodRow)
	for rows.Next() {
		var (
			sym              string
			date             sqlDate
			sector, industry *string
			r                eodRow
		)
		if err := rows.Scan(&sym, &date, &r.close, &r.high, &r.low, &sector, &industry); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if !date.Valid {
			continue
		}
		r.date = date.Time
		if sector != nil {
			r.sector = strings.TrimSpace(*sector)
		}
		if industry != nil {
			r.industry = strings.TrimSpace(*industry)
		}
		key := domain.NormalizeSymbol(sym)
		bySymbol[key] = append(bySymbol[key], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows: %w", err)
	}
	done(len(bySymbol))

	yearAgoDay := yearAgo.Format(dateLayout)
	yearStartDay := yearStart.Format(dateLayout)
	for sym, series := range bySymbol {
		result[sym] = buildSnapshot(sym, series, yearStartDay, yearAgoDay, now)
	}

	s.log.Debug().Int("requested", len(symbols)).Int("found", len(result)).Msg("Loaded snapshots")
	return result, nil
}

// buildSnapshot reduces a date-ordered series. Days are compared as YYYY-MM-DD so
// driver time zones do not shift boundaries.
func buildSnapshot(sym string, series []eodRow, yearStartDay, yearAgoDay string, now time.Time) domain.PriceSnapshot {
	snap := domain.PriceSnapshot{
		AsOf:     now,
		Symbol:   sym,
		Sector:   domain.NotAvailable,
		Industry: domain.NotAvailable,
	}

	// Only rows with a close count as trading days
	closes := make([]eodRow, 0, len(series))
	for _, r := range series {
		if r.close.Valid {
			closes = append(closes, r)
		}
	}
	if len(closes) == 0 {
		return snap
	}

	last := closes[len(closes)-1]
	snap.LatestEODClose = last.close.Ptr()
	if len(closes) > 1 {
		snap.PrevClose = closes[len(closes)-2].close.Ptr()
	}
	if last.sector != "" {
		snap.Sector = last.sector
	}
	if last.industry != "" {
		snap.Industry = last.industry
	}

	var high, low *float64
	for _, r := range closes {
		day := r.date.Format(dateLayout)
		if snap.YTDStartPrice == nil && day >= yearStartDay {
			snap.YTDStartPrice = r.close.Ptr()
		}
		if day < yearAgoDay {
			continue
		}
		if snap.YearAgoPrice == nil {
			snap.YearAgoPrice = r.close.Ptr()
		}

		h, l := r.high, r.low
		if !h.Valid {
			h = r.close
		}
		if !l.Valid {
			l = r.close
		}
		if high == nil || h.Float64 > *high {
			high = h.Ptr()
		}
		if low == nil || l.Float64 < *low {
			low = l.Ptr()
		}
	}
	snap.Week52High = high
	snap.Week52Low = low

	return snap
}
