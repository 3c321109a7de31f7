// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/clientdata"
	"github.com/jcnfinancial/dashboard-api/internal/reliability"
	"github.com/jcnfinancial/dashboard-api/internal/scheduler"
)

// RegisterJobs creates every background job and registers it with sched.
// Returns JobInstances for manual triggering.
func RegisterJobs(container *Container, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{
		PriceWarmup:       scheduler.NewPriceWarmupJob(container.Prices, container.DefaultSymbols, log),
		SnapshotWarmup:    scheduler.NewSnapshotWarmupJob(container.Snapshots, container.DefaultSymbols, log),
		ClientDataCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
		CacheMaintenance:  reliability.NewCacheMaintenanceJob(container.ClientDataDB, container.Config.CacheDir, log),
	}
	if container.BackupService != nil {
		instances.CacheBackup = reliability.NewCacheBackupJob(container.BackupService, container.Config.R2.RetentionDays, log)
	}

	schedules := []struct {
		schedule string
		job      scheduler.Job
	}{
		{scheduler.SchedulePriceWarmup, instances.PriceWarmup},
		{scheduler.ScheduleSnapshotWarmup, instances.SnapshotWarmup},
		{scheduler.ScheduleClientDataCleanup, instances.ClientDataCleanup},
		{scheduler.ScheduleCacheMaintenance, instances.CacheMaintenance},
	}
	if instances.CacheBackup != nil {
		schedules = append(schedules, struct {
			schedule string
			job      scheduler.Job
		}{scheduler.ScheduleCacheBackup, instances.CacheBackup})
	}

	if sched != nil {
		for _, s := range schedules {
			if err := sched.AddJob(s.schedule, s.job); err != nil {
				return nil, fmt.Errorf("failed to register %s: %w", s.job.Name(), err)
			}
		}
	}

	log.Info().Int("jobs", len(schedules)).Msg("Jobs registered")
	return instances, nil
}
