package fundamentals

import (
	"strings"
	"time"

	"github.com/jcnfinancial/dashboard-api/internal/analytics"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

// ScoreColumns are the keys returned for every symbol, in display order.
var ScoreColumns = []string{"value", "growth", "financial_strength", "quality", "momentum"}

var (
	valueColumns = []string{"value_universe_score", "value_historical_score", "value_sector_score"}

	dateColumns = map[string]bool{
		"date":                     true,
		"as_of_date":               true,
		"report_date":              true,
		"updated_at":               true,
		"asof":                     true,
		"month_date":               true,
		"week_end_date":            true,
		"calculation_date":         true,
		"fundamental_quarter_date": true,
		"fundamental_filing_date":  true,
		"fs_filing_date":           true,
	}
)

const (
	growthColumn           = "growth_score"
	financialStrengthCol   = "fs_score"
	qualityColumn          = "quality_score"
	momentumColumn         = "obq_momentum_score"
	momentumFallbackColumn = "systemscore"
)

// IsDateColumn reports whether a score table column holds the row's as-of date.
func IsDateColumn(name string) bool {
	return dateColumns[strings.ToLower(name)]
}

// dateColumn picks the first recognised date column, else the second column.
func dateColumn(columns []string) string {
	for _, c := range columns {
		if IsDateColumn(c) {
			return c
		}
	}
	if len(columns) > 1 {
		return columns[1]
	}
	return ""
}

// latestPerSymbol keeps the most recent record of each normalized symbol.
// Rows without a usable date never replace one that has it.
func latestPerSymbol(table *analytics.Table) map[string]analytics.Record {
	out := make(map[string]analytics.Record)
	if table == nil {
		return out
	}

	dateCol := dateColumn(table.Columns)
	dates := make(map[string]string)
	for _, rec := range table.Records {
		raw, _ := rec["symbol"].(string)
		sym := domain.NormalizeSymbol(raw)
		if sym == "" {
			continue
		}
		date := analytics.DateKey(rec[dateCol])

		prev, seen := dates[sym]
		if !seen || (date != "" && (prev == "" || date > prev)) {
			out[sym] = rec
			dates[sym] = date
		}
	}
	return out
}

func score(rec analytics.Record, column string) *float64 {
	v, ok := rec[column]
	if !ok || v == nil {
		return nil
	}
	f, ok := analytics.ToFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func firstScore(rec analytics.Record, columns ...string) *float64 {
	for _, c := range columns {
		if s := score(rec, c); s != nil {
			return s
		}
	}
	return nil
}

// TableSummary describes one symbol's rows in a scores table.
type TableSummary struct {
	Symbol string
	Rows   int
	Latest string // YYYY-MM-DD, "" when no row has a usable date
}

// Summarize counts rows and finds the latest date of each requested symbol.
func Summarize(table *analytics.Table, symbols []string) []TableSummary {
	symbols = domain.NormalizeSymbols(symbols)
	counts := make(map[string]int)
	latest := make(map[string]string)

	if table != nil {
		dateCol := dateColumn(table.Columns)
		for _, rec := range table.Records {
			raw, _ := rec["symbol"].(string)
			sym := domain.NormalizeSymbol(raw)
			if sym == "" {
				continue
			}
			counts[sym]++
			if d := analytics.DateKey(rec[dateCol]); d > latest[sym] {
				latest[sym] = d
			}
		}
	}

	out := make([]TableSummary, len(symbols))
	for i, sym := range symbols {
		out[i] = TableSummary{Symbol: sym, Rows: counts[sym], Latest: displayDate(latest[sym])}
	}
	return out
}

// DataColumns drops the symbol and date columns of a scores table.
func DataColumns(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if strings.EqualFold(c, "symbol") || IsDateColumn(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func displayDate(key string) string {
	if t, err := time.Parse(time.RFC3339, key); err == nil {
		return t.Format("2006-01-02")
	}
	return key
}
