// Package di provides dependency injection for local storage.
package di

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/analytics"
	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/clientdata"
	"github.com/jcnfinancial/dashboard-api/internal/config"
	"github.com/jcnfinancial/dashboard-api/internal/database"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

// InitializeDatabases opens client_data.db, the snapshot file store and, when configured, the analytics source.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{Config: cfg}

	// client_data.db - TTL'd quotes and security names
	clientDataDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.CacheDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client_data database: %w", err)
	}
	if err := clientDataDB.Migrate(); err != nil {
		clientDataDB.Close()
		return nil, fmt.Errorf("failed to migrate client_data database: %w", err)
	}
	container.ClientDataDB = clientDataDB
	container.ClientDataRepo = clientdata.NewRepository(clientDataDB.Conn())

	store, err := cache.NewStore(cfg.CacheDir, log)
	if err != nil {
		clientDataDB.Close()
		return nil, fmt.Errorf("failed to initialize file cache: %w", err)
	}
	container.Store = store

	source, err := analytics.Open(cfg.Analytics, log)
	switch {
	case err == nil:
		container.Analytics = source
	case errors.Is(err, domain.ErrNotConfigured):
		log.Warn().Msg("Analytics database not configured, EOD endpoints will return empty payloads")
	default:
		clientDataDB.Close()
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}

	log.Info().
		Str("cache_dir", cfg.CacheDir).
		Bool("analytics", container.Analytics != nil).
		Msg("Storage initialized")

	return container, nil
}
