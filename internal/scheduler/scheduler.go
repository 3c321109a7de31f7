// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Cron expressions (with seconds) for the built-in jobs.
const (
	SchedulePriceWarmup       = "0 */30 * * * MON-FRI"
	ScheduleSnapshotWarmup    = "0 0 6 * * *"
	ScheduleClientDataCleanup = "0 0 3 * * *"
	ScheduleCacheMaintenance  = "0 30 2 * * *"
	ScheduleCacheBackup       = "0 0 * * * *"
)

// RunRecord describes the most recent run of a job.
type RunRecord struct {
	Job        string    `json:"job"`
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu       sync.RWMutex
	lastRuns map[string]RunRecord
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		log:      log.With().Str("component", "scheduler").Logger(),
		lastRuns: make(map[string]RunRecord),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@hourly"            - Every hour
//   - "0 0 9 * * MON-FRI"  - 9 AM weekdays
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		_ = s.run(job)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	record := RunRecord{
		Job:       job.Name(),
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	log := s.log.With().Str("job", record.Job).Str("run_id", record.RunID).Logger()
	log.Debug().Msg("Running job")

	err := job.Run()
	record.DurationMs = time.Since(record.StartedAt).Milliseconds()
	if err != nil {
		record.Error = err.Error()
		log.Error().Err(err).Int64("duration_ms", record.DurationMs).Msg("Job failed")
	} else {
		log.Debug().Int64("duration_ms", record.DurationMs).Msg("Job completed")
	}

	s.mu.Lock()
	s.lastRuns[record.Job] = record
	s.mu.Unlock()

	return err
}

// LastRuns returns the latest run of every job that has run, sorted by job name.
func (s *Scheduler) LastRuns() []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunRecord, 0, len(s.lastRuns))
	for _, r := range s.lastRuns {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

// LastRun returns the latest run of the named job.
func (s *Scheduler) LastRun(name string) (RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.lastRuns[name]
	return r, ok
}

// JobCount returns the number of registered schedules.
func (s *Scheduler) JobCount() int {
	return len(s.cron.Entries())
}
