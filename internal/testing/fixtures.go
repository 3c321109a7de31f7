package testing

import (
	"database/sql"
	"testing"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

// EODRow is one survivorship-table row.
type EODRow struct {
	Symbol   string
	Date     string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Sector   string
	Industry string
}

// InsertEOD writes rows to PROD_EOD_survivorship.
func InsertEOD(t *testing.T, db *sql.DB, rows ...EODRow) {
	t.Helper()
	for _, r := range rows {
		Insert(t, db, "PROD_EOD_survivorship", map[string]interface{}{
			"symbol":      r.Symbol,
			"date":        r.Date,
			"open":        r.Open,
			"high":        r.High,
			"low":         r.Low,
			"close":       r.Close,
			"gics_sector": r.Sector,
			"industry":    r.Industry,
		})
	}
}

// InsertETFCloses writes date/close pairs for one ETF.
func InsertETFCloses(t *testing.T, db *sql.DB, symbol string, closes map[string]float64) {
	t.Helper()
	for date, c := range closes {
		Insert(t, db, "PROD_EOD_ETFs", map[string]interface{}{
			"symbol": symbol,
			"date":   date,
			"close":  c,
		})
	}
}

// NewHoldingFixtures returns a small diversified portfolio.
func NewHoldingFixtures() []domain.Holding {
	return []domain.Holding{
		{Symbol: "AAPL", CostBasis: 100, Shares: 10},
		{Symbol: "MSFT", CostBasis: 300, Shares: 5},
		{Symbol: "NVDA", CostBasis: 400, Shares: 2},
	}
}

// NewSnapshotFixtures returns snapshots matching NewHoldingFixtures.
func NewSnapshotFixtures() map[string]domain.PriceSnapshot {
	return map[string]domain.PriceSnapshot{
		"AAPL": {
			Symbol: "AAPL", Sector: "Information Technology", Industry: "Technology Hardware",
			LatestEODClose: floatPtr(150), PrevClose: floatPtr(145),
			YTDStartPrice: floatPtr(120), YearAgoPrice: floatPtr(100),
			Week52High: floatPtr(160), Week52Low: floatPtr(110),
		},
		"MSFT": {
			Symbol: "MSFT", Sector: "Information Technology", Industry: "Software",
			LatestEODClose: floatPtr(400), PrevClose: floatPtr(404),
			YTDStartPrice: floatPtr(380), YearAgoPrice: floatPtr(320),
			Week52High: floatPtr(420), Week52Low: floatPtr(310),
		},
		"NVDA": {
			Symbol: "NVDA", Sector: "Information Technology", Industry: "Semiconductors",
			LatestEODClose: floatPtr(800), PrevClose: floatPtr(780),
			YTDStartPrice: floatPtr(500), YearAgoPrice: floatPtr(300),
			Week52High: floatPtr(900), Week52Low: floatPtr(280),
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
