package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/utils"
)

// DailyCloses returns ascending daily closes since start, keyed by normalized symbol.
func (s *Source) DailyCloses(ctx context.Context, tableName string, symbols []string, start time.Time) (map[string][]domain.PricePoint, error) {
	result := make(map[string][]domain.PricePoint)
	in, args := symbolArgs(symbols)
	if len(args) == 0 {
		return result, nil
	}

	table, err := s.table(tableName)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT symbol, date, close
		FROM %s
		WHERE symbol IN (%s) AND date >= %s
		ORDER BY symbol, date`, table, in, s.dateParam())
	args = append(args, start.Format(dateLayout))

	done := utils.MeasureQuery("daily_closes", s.log)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily closes: %w", err)
	}
	defer rows.Close()

	n := 0
	defer func() { done(n) }()

	for rows.Next() {
		var (
			sym      string
			date     sqlDate
			closeVal nullFloat
		)
		if err := rows.Scan(&sym, &date, &closeVal); err != nil {
			return nil, fmt.Errorf("failed to scan daily close: %w", err)
		}
		if !date.Valid || !closeVal.Valid {
			continue
		}
		key := domain.NormalizeSymbol(sym)
		result[key] = append(result[key], domain.PricePoint{Date: date.String(), Close: closeVal.Float64})
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily closes: %w", err)
	}
	return result, nil
}

// DailyBars returns ascending daily OHLC bars since start from the EOD table.
// Missing open/high/low fall back to the close.
func (s *Source) DailyBars(ctx context.Context, symbols []string, start time.Time) (map[string][]domain.Bar, error) {
	result := make(map[string][]domain.Bar)
	in, args := symbolArgs(symbols)
	if len(args) == 0 {
		return result, nil
	}

	table, err := s.table(TableEOD)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT symbol, date, open, high, low, close
		FROM %s
		WHERE symbol IN (%s) AND date >= %s
		ORDER BY symbol, date`, table, in, s.dateParam())
	args = append(args, start.Format(dateLayout))

	done := utils.MeasureQuery("daily_bars", s.log)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily bars: %w", err)
	}
	defer rows.Close()

	n := 0
	defer func() { done(n) }()

	for rows.Next() {
		var (
			sym                       string
			date                      sqlDate
			open, high, low, closeVal nullFloat
		)
		if err := rows.Scan(&sym, &date, &open, &high, &low, &closeVal); err != nil {
			return nil, fmt.Errorf("failed to scan daily bar: %w", err)
		}
		if !date.Valid || !closeVal.Valid {
			continue
		}
		bar := domain.Bar{
			Date:  date.String(),
			Open:  orFloat(open, closeVal.Float64),
			High:  orFloat(high, closeVal.Float64),
			Low:   orFloat(low, closeVal.Float64),
			Close: closeVal.Float64,
		}
		key := domain.NormalizeSymbol(sym)
		result[key] = append(result[key], bar)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily bars: %w", err)
	}
	return result, nil
}

// LatestCloses returns up to n most recent closes for one symbol, newest first.
func (s *Source) LatestCloses(ctx context.Context, tableName, symbol string, n int) ([]domain.PricePoint, error) {
	in, args := symbolArgs([]string{symbol})
	if len(args) == 0 || n <= 0 {
		return nil, nil
	}

	table, err := s.table(tableName)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT date, close
		FROM %s
		WHERE symbol IN (%s) AND close IS NOT NULL
		ORDER BY date DESC
		LIMIT %d`, table, in, n)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var (
			date     sqlDate
			closeVal nullFloat
		)
		if err := rows.Scan(&date, &closeVal); err != nil {
			return nil, fmt.Errorf("failed to scan latest close: %w", err)
		}
		if date.Valid && closeVal.Valid {
			points = append(points, domain.PricePoint{Date: date.String(), Close: closeVal.Float64})
		}
	}
	return points, rows.Err()
}

func orFloat(v nullFloat, fallback float64) float64 {
	if v.Valid {
		return v.Float64
	}
	return fallback
}
