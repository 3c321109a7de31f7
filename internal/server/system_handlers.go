package server

import (
	"errors"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/scheduler"
)

// SystemStatusResponse is returned by GET /api/system/status.
type SystemStatusResponse struct {
	Status            string                   `json:"status"`
	Timestamp         string                   `json:"timestamp"`
	Uptime            string                   `json:"uptime"`
	UptimeSeconds     int64                    `json:"uptime_seconds"`
	GoVersion         string                   `json:"go_version"`
	Goroutines        int                      `json:"goroutines"`
	CPUPercent        float64                  `json:"cpu_percent"`
	MemoryPercent     float64                  `json:"memory_percent"`
	CacheDir          string                   `json:"cache_dir"`
	CacheFiles        int                      `json:"cache_files"`
	PriceCacheSize    int                      `json:"price_cache_size"`
	SnapshotCacheSize int                      `json:"snapshot_cache_size"`
	SnapshotCache     domain.SnapshotCacheInfo `json:"snapshot_cache"`
	Analytics         bool                     `json:"analytics_configured"`
	QuoteProviders    string                   `json:"quote_providers,omitempty"`
	Backups           bool                     `json:"backups_enabled"`
	Jobs              []scheduler.RunRecord    `json:"jobs"`
}

func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	c := s.container
	uptime := time.Since(s.startedAt)
	cpuPercent, memPercent := s.getSystemStats()

	resp := SystemStatusResponse{
		Status:        "healthy",
		Timestamp:     time.Now().Format(time.RFC3339),
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		CacheDir:      s.cfg.CacheDir,
		Analytics:     c.Analytics != nil,
		Backups:       c.BackupService != nil,
		Jobs:          []scheduler.RunRecord{},
	}

	if c.Store != nil {
		if infos, err := c.Store.List(); err == nil {
			resp.CacheFiles = len(infos)
		} else {
			s.log.Warn().Err(err).Msg("Failed to list cache files")
		}
	}
	if c.Prices != nil {
		resp.PriceCacheSize = c.Prices.Len()
	}
	if c.Snapshots != nil {
		resp.SnapshotCacheSize = c.Snapshots.Len()
		resp.SnapshotCache = c.Snapshots.Info()
	}
	if c.Quotes != nil {
		resp.QuoteProviders = c.Quotes.Name()
	}
	if s.scheduler != nil {
		resp.Jobs = s.scheduler.LastRuns()
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over 100ms so the endpoint stays fast.
func (s *Server) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// JobsResponse is returned by GET /api/jobs.
type JobsResponse struct {
	Registered []string              `json:"registered"`
	LastRuns   []scheduler.RunRecord `json:"last_runs"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	resp := JobsResponse{Registered: []string{}, LastRuns: []scheduler.RunRecord{}}
	for name := range s.jobs {
		resp.Registered = append(resp.Registered, name)
	}
	sort.Strings(resp.Registered)
	if s.scheduler != nil {
		resp.LastRuns = s.scheduler.LastRuns()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleRunJob triggers a registered job immediately
// POST /api/jobs/{name}
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := s.jobs[name]
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown job: "+name)
		return
	}
	if s.scheduler == nil {
		s.writeError(w, http.StatusServiceUnavailable, "scheduler not available")
		return
	}

	s.log.Info().Str("job", name).Msg("Manual job run triggered")

	err := s.scheduler.RunNow(job)
	record, _ := s.scheduler.LastRun(name)

	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
		if errors.Is(err, domain.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
	}
	s.writeJSON(w, status, record)
}
