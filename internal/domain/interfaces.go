package domain

import (
	"context"
	"time"
)

// SnapshotSource loads end-of-day snapshots for a set of symbols.
type SnapshotSource interface {
	Snapshots(ctx context.Context, symbols []string, now time.Time) (map[string]PriceSnapshot, error)
}

// QuoteProvider returns the latest price for a single symbol.
// Symbols are passed normalized (no .US suffix).
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// PriceCache exposes the in-memory current price cache to request handlers.
type PriceCache interface {
	Get(symbol string) (Quote, bool)
	NeedsRefresh(symbols []string) bool
	Refresh(ctx context.Context, symbols []string, force bool) map[string]float64
	Len() int
}

// SnapshotCache exposes the daily end-of-day snapshot cache to request handlers.
type SnapshotCache interface {
	Snapshots(ctx context.Context, symbols []string) (map[string]PriceSnapshot, error)
	Info() SnapshotCacheInfo
	Len() int
}

// SnapshotCacheInfo describes when the snapshot cache was last filled.
type SnapshotCacheInfo struct {
	CacheDate string `json:"cache_date,omitempty"`
	LoadedAt  string `json:"loaded_at,omitempty"`
}
