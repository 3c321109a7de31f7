// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Initialize storage
// 2. Initialize services
// Jobs are registered separately by RegisterJobs once a scheduler exists.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
