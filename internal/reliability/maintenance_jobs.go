package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/jcnfinancial/dashboard-api/internal/database"
)

const backupTimeout = 5 * time.Minute

// CacheBackupJob uploads the cache directory and prunes old archives (hourly).
type CacheBackupJob struct {
	service       *CacheBackupService
	retentionDays int
	log           zerolog.Logger
}

// NewCacheBackupJob creates the backup job.
func NewCacheBackupJob(service *CacheBackupService, retentionDays int, log zerolog.Logger) *CacheBackupJob {
	return &CacheBackupJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "cache_backup").Logger(),
	}
}

// Run executes the backup job
func (j *CacheBackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	archive, err := j.service.BackupCache(ctx)
	if err != nil {
		return fmt.Errorf("cache backup failed: %w", err)
	}
	if archive == "" {
		return nil
	}

	// Rotation failures never fail the backup itself
	if _, err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// Name returns the job name
func (j *CacheBackupJob) Name() string {
	return "cache_backup"
}

// Disk thresholds for the maintenance job, in GB.
const (
	criticalFreeGB = 0.5
	lowFreeGB      = 2.0
)

// CacheMaintenanceJob checkpoints and checks client_data.db and watches free disk space (daily).
type CacheMaintenanceJob struct {
	db       *database.DB
	cacheDir string
	usage    func(path string) (*disk.UsageStat, error)
	log      zerolog.Logger
}

// NewCacheMaintenanceJob creates the maintenance job.
func NewCacheMaintenanceJob(db *database.DB, cacheDir string, log zerolog.Logger) *CacheMaintenanceJob {
	return &CacheMaintenanceJob{
		db:       db,
		cacheDir: cacheDir,
		usage:    disk.Usage,
		log:      log.With().Str("job", "cache_maintenance").Logger(),
	}
}

// Run executes the maintenance job
func (j *CacheMaintenanceJob) Run() error {
	start := time.Now()

	if j.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := j.db.QuickCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Integrity check failed")
			return fmt.Errorf("integrity check of %s failed: %w", j.db.Name(), err)
		}
		if err := j.db.WALCheckpoint(); err != nil {
			j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("WAL checkpoint failed")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().Dur("duration_ms", time.Since(start)).Msg("Cache maintenance completed")
	return nil
}

// Name returns the job name
func (j *CacheMaintenanceJob) Name() string {
	return "cache_maintenance"
}

func (j *CacheMaintenanceJob) checkDiskSpace() error {
	stat, err := j.usage(j.cacheDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	freeGB := float64(stat.Free) / 1e9
	j.log.Debug().Float64("available_gb", freeGB).Msg("Disk space check")

	switch {
	case freeGB < criticalFreeGB:
		j.log.Error().Float64("available_gb", freeGB).Msg("Insufficient disk space for cache writes")
		return fmt.Errorf("only %.2f GB free in %s", freeGB, j.cacheDir)
	case freeGB < lowFreeGB:
		j.log.Warn().Float64("available_gb", freeGB).Msg("Disk space running low")
	}
	return nil
}
