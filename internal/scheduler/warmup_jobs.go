package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

const warmupTimeout = 2 * time.Minute

// SymbolsFunc returns the symbols a warmup job should load.
type SymbolsFunc func() []string

// PriceWarmupJob refreshes stale current prices for the default portfolio.
type PriceWarmupJob struct {
	prices  domain.PriceCache
	symbols SymbolsFunc
	log     zerolog.Logger
}

// NewPriceWarmupJob creates the price warmup job.
func NewPriceWarmupJob(prices domain.PriceCache, symbols SymbolsFunc, log zerolog.Logger) *PriceWarmupJob {
	return &PriceWarmupJob{
		prices:  prices,
		symbols: symbols,
		log:     log.With().Str("job", "price_warmup").Logger(),
	}
}

// Run executes the job
func (j *PriceWarmupJob) Run() error {
	syms := j.symbols()
	if len(syms) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()

	got := j.prices.Refresh(ctx, syms, false)
	j.log.Info().Int("requested", len(syms)).Int("priced", len(got)).Msg("Prices warmed")
	if len(got) == 0 {
		return fmt.Errorf("no prices available for %d symbols", len(syms))
	}
	return nil
}

// Name returns the job name
func (j *PriceWarmupJob) Name() string {
	return "price_warmup"
}

// SnapshotWarmupJob loads the day's EOD snapshots for the default portfolio.
type SnapshotWarmupJob struct {
	snapshots domain.SnapshotCache
	symbols   SymbolsFunc
	log       zerolog.Logger
}

// NewSnapshotWarmupJob creates the snapshot warmup job.
func NewSnapshotWarmupJob(snapshots domain.SnapshotCache, symbols SymbolsFunc, log zerolog.Logger) *SnapshotWarmupJob {
	return &SnapshotWarmupJob{
		snapshots: snapshots,
		symbols:   symbols,
		log:       log.With().Str("job", "snapshot_warmup").Logger(),
	}
}

// Run executes the job
func (j *SnapshotWarmupJob) Run() error {
	syms := j.symbols()
	if len(syms) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()

	snaps, err := j.snapshots.Snapshots(ctx, syms)
	if err != nil {
		return fmt.Errorf("failed to warm snapshots: %w", err)
	}
	j.log.Info().Int("requested", len(syms)).Int("loaded", len(snaps)).Msg("Snapshots warmed")
	return nil
}

// Name returns the job name
func (j *SnapshotWarmupJob) Name() string {
	return "snapshot_warmup"
}
