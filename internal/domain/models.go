// Package domain provides core domain models and types.
package domain

import "time"

// Holding is one line of user input: what was bought, at what cost, and how much.
type Holding struct {
	Symbol    string  `json:"symbol" yaml:"symbol"`
	CostBasis float64 `json:"cost_basis" yaml:"cost_basis"`
	Shares    float64 `json:"shares" yaml:"shares"`
}

// PriceSnapshot is the end-of-day view of a symbol taken from the analytical database.
// Price fields are nil when the database has no row for that reference point.
type PriceSnapshot struct {
	AsOf           time.Time `json:"as_of"`
	Symbol         string    `json:"symbol"` // Normalized, without .US
	Sector         string    `json:"sector"`
	Industry       string    `json:"industry"`
	LatestEODClose *float64  `json:"latest_eod_close"`
	PrevClose      *float64  `json:"prev_close"`
	YTDStartPrice  *float64  `json:"ytd_start_price"`
	YearAgoPrice   *float64  `json:"year_ago_price"`
	Week52High     *float64  `json:"week_52_high"`
	Week52Low      *float64  `json:"week_52_low"`
}

// Quote is the latest price returned by a quote provider.
type Quote struct {
	FetchedAt time.Time `json:"fetched_at" msgpack:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at" msgpack:"expires_at"`
	Symbol    string    `json:"symbol" msgpack:"symbol"`
	Name      string    `json:"name,omitempty" msgpack:"name"`
	Source    string    `json:"source" msgpack:"source"`
	Price     float64   `json:"price" msgpack:"price"`
}

// PricePoint is a single daily close.
type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Bar is a single OHLC record (daily or weekly).
type Bar struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// NotAvailable is the placeholder used for missing sector and industry labels.
const NotAvailable = "N/A"
