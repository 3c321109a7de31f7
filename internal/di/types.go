// Package di provides dependency injection type definitions.
//
// Container holds every long-lived component. It is built once by Wire and
// handed to the server, the scheduler and the CLI.
package di

import (
	"github.com/jcnfinancial/dashboard-api/internal/analytics"
	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/clientdata"
	"github.com/jcnfinancial/dashboard-api/internal/config"
	"github.com/jcnfinancial/dashboard-api/internal/database"
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
	"github.com/jcnfinancial/dashboard-api/internal/scheduler"
	"github.com/jcnfinancial/dashboard-api/internal/workers"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config

	// Storage
	ClientDataDB   *database.DB
	ClientDataRepo *clientdata.Repository
	Store          *cache.Store
	Analytics      *analytics.Source // nil when no analytics DSN is configured

	// Shared infrastructure
	WorkerPool *workers.WorkerPool
	Quotes     *quotes.Chain
	Prices     *prices.Manager
	Snapshots  *marketdata.Service
	Portfolio  *config.PortfolioFile

	// Dashboard modules
	PerformanceService  *performance.Service
	AllocationService   *allocation.Service
	BenchmarksService   *benchmarks.Service
	FundamentalsService *fundamentals.Service
	TrendsService       *trends.Service
	StockPricesService  *stockprices.Service

	// Optional
	BackupService *reliability.CacheBackupService // nil when R2 is not configured
}

// DefaultSymbols returns the symbols of the default portfolio, if any.
func (c *Container) DefaultSymbols() []string {
	if c.Portfolio == nil {
		return nil
	}
	return c.Portfolio.Symbols()
}

// Close releases database handles.
func (c *Container) Close() error {
	var firstErr error
	if c.Analytics != nil {
		if err := c.Analytics.Close(); err != nil {
			firstErr = err
		}
	}
	if c.ClientDataDB != nil {
		if err := c.ClientDataDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	PriceWarmup       scheduler.Job
	SnapshotWarmup    scheduler.Job
	ClientDataCleanup scheduler.Job
	CacheMaintenance  scheduler.Job
	CacheBackup       scheduler.Job // nil when R2 is not configured
}
