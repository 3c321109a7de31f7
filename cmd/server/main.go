// Package main is the entry point for the dashboard API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcnfinancial/dashboard-api/internal/config"
	"github.com/jcnfinancial/dashboard-api/internal/di"
	"github.com/jcnfinancial/dashboard-api/internal/scheduler"
	"github.com/jcnfinancial/dashboard-api/internal/server"
	"github.com/jcnfinancial/dashboard-api/pkg/logger"
)

func main() {
	// Load configuration (.env.local, .env, then the environment)
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	log.Info().Msg("Starting JCN dashboard API")

	// Wire all dependencies; this also restores caches from disk and R2
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Jobs are always registered so they can be triggered over the API
	sched := scheduler.New(log)
	jobs, err := di.RegisterJobs(container, sched, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}
	if cfg.SchedulerEnabled {
		sched.Start()
	} else {
		log.Warn().Msg("Scheduler disabled, background jobs only run on demand")
	}

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Scheduler: sched,
	})
	srv.SetJobs(jobs)

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Bool("analytics", container.Analytics != nil).
		Bool("backups", container.BackupService != nil).
		Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if cfg.SchedulerEnabled {
		sched.Stop()
	}

	// Push the day's cache to R2 so a fresh instance starts warm
	if jobs.CacheBackup != nil {
		if err := jobs.CacheBackup.Run(); err != nil {
			log.Error().Err(err).Msg("Final cache backup failed")
		}
	}

	log.Info().Msg("Server stopped")
}
