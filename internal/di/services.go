// Package di provides dependency injection for services.
package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/clients/eodhd"
	"github.com/jcnfinancial/dashboard-api/internal/clients/yahoo"
	"github.com/jcnfinancial/dashboard-api/internal/config"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/marketdata"
	"github.com/jcnfinancial/dashboard-api/internal/modules/allocation"
	"github.com/jcnfinancial/dashboard-api/internal/modules/benchmarks"
	"github.com/jcnfinancial/dashboard-api/internal/modules/fundamentals"
	"github.com/jcnfinancial/dashboard-api/internal/modules/performance"
	"github.com/jcnfinancial/dashboard-api/internal/modules/stockprices"
	"github.com/jcnfinancial/dashboard-api/internal/modules/trends"
	"github.com/jcnfinancial/dashboard-api/internal/prices"
	"github.com/jcnfinancial/dashboard-api/internal/quotes"
	"github.com/jcnfinancial/dashboard-api/internal/reliability"
	"github.com/jcnfinancial/dashboard-api/internal/workers"
)

const restoreTimeout = 2 * time.Minute

// InitializeServices creates all services in dependency order
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Default portfolio (optional)
	portfolio, err := config.LoadPortfolio(cfg.PortfolioFile)
	if err != nil {
		return fmt.Errorf("failed to load default portfolio: %w", err)
	}
	container.Portfolio = portfolio

	// Backups are restored before anything reads the file cache
	if cfg.R2.Enabled() {
		if err := initializeBackups(container, cfg, log); err != nil {
			return err
		}
	}

	container.WorkerPool = workers.NewWorkerPool(cfg.WorkerCount)

	// Quote chain: Yahoo first, EODHD when a key is configured
	providers := []domain.QuoteProvider{
		yahoo.NewClient(cfg.Quotes.YahooBaseURL, cfg.Quotes.Timeout, log, yahoo.WithNameCache(container.ClientDataRepo)),
	}
	if client := eodhd.NewClient(cfg.Quotes.EODHDBaseURL, cfg.Quotes.EODHDAPIKey, cfg.Quotes.Timeout, log); client != nil {
		providers = append(providers, client)
	}
	container.Quotes = quotes.NewChain(log, providers...)

	container.Prices = prices.NewManager(container.Quotes, container.WorkerPool, cfg.PriceTTL, log,
		prices.WithPersistence(container.ClientDataRepo))
	if n, err := container.Prices.Restore(); err != nil {
		log.Warn().Err(err).Msg("Failed to restore persisted prices")
	} else if n > 0 {
		log.Info().Int("quotes", n).Msg("Restored persisted prices")
	}

	// Interfaces stay nil, not typed-nil, when analytics is off
	var (
		snapshotSource domain.SnapshotSource
		closeSource    benchmarks.CloseSource
		scoreSource    fundamentals.ScoreSource
		barSource      trends.BarSource
		closeHistory   stockprices.CloseHistory
	)
	if container.Analytics != nil {
		snapshotSource = container.Analytics
		closeSource = container.Analytics
		scoreSource = container.Analytics
		barSource = container.Analytics
		closeHistory = container.Analytics
	}

	container.Snapshots = marketdata.NewService(snapshotSource, container.Store, log)
	if n := container.Snapshots.Restore(); n > 0 {
		log.Info().Int("snapshots", n).Msg("Restored today's EOD snapshots")
	}

	container.PerformanceService = performance.NewService(container.Snapshots, container.Prices, log)
	container.AllocationService = allocation.NewService(container.Snapshots, container.Store, log)
	container.BenchmarksService = benchmarks.NewService(container.Snapshots, closeSource, container.Store, log)
	container.FundamentalsService = fundamentals.NewService(scoreSource, container.Store, log)
	container.TrendsService = trends.NewService(barSource, container.Store, log)
	container.StockPricesService = stockprices.NewService(closeHistory, container.Store, log)

	log.Info().
		Str("quotes", container.Quotes.Name()).
		Int("workers", container.WorkerPool.Size()).
		Int("default_holdings", len(portfolio.Holdings)).
		Msg("Services initialized")

	return nil
}

func initializeBackups(container *Container, cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	client, err := reliability.NewR2Client(ctx, cfg.R2, log)
	if err != nil {
		return fmt.Errorf("failed to create r2 client: %w", err)
	}
	container.BackupService = reliability.NewCacheBackupService(client, cfg.CacheDir, log)

	// A failed restore only means a cold cache
	if _, err := container.BackupService.RestoreLatest(ctx); err != nil && !errors.Is(err, reliability.ErrNoBackups) {
		log.Warn().Err(err).Msg("Failed to restore cache from backup")
	}
	return nil
}
