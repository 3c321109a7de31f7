// Package server provides the HTTP server and routing for the dashboard API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/config"
	"github.com/jcnfinancial/dashboard-api/internal/di"
	allocationhandlers "github.com/jcnfinancial/dashboard-api/internal/modules/allocation/handlers"
	benchmarkshandlers "github.com/jcnfinancial/dashboard-api/internal/modules/benchmarks/handlers"
	fundamentalshandlers "github.com/jcnfinancial/dashboard-api/internal/modules/fundamentals/handlers"
	performancehandlers "github.com/jcnfinancial/dashboard-api/internal/modules/performance/handlers"
	stockpriceshandlers "github.com/jcnfinancial/dashboard-api/internal/modules/stockprices/handlers"
	trendshandlers "github.com/jcnfinancial/dashboard-api/internal/modules/trends/handlers"
	"github.com/jcnfinancial/dashboard-api/internal/scheduler"
)

const requestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container         // DI container with all services
	Scheduler *scheduler.Scheduler // optional; enables the job endpoints
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	container *di.Container
	scheduler *scheduler.Scheduler
	jobs      map[string]scheduler.Job
	startedAt time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		scheduler: cfg.Scheduler,
		jobs:      make(map[string]scheduler.Job),
		startedAt: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetJobs registers job instances for manual triggering via API
func (s *Server) SetJobs(jobs *di.JobInstances) {
	if jobs == nil {
		return
	}
	for _, job := range []scheduler.Job{
		jobs.PriceWarmup,
		jobs.SnapshotWarmup,
		jobs.ClientDataCleanup,
		jobs.CacheMaintenance,
		jobs.CacheBackup,
	} {
		if job != nil {
			s.jobs[job.Name()] = job
		}
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	c := s.container

	s.router.Route("/api", func(r chi.Router) {
		// The websocket outlives the request timeout and cannot be compressed
		r.Get("/stream/prices", s.handlePriceStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			if !s.cfg.DevMode {
				r.Use(middleware.Compress(5))
			}

			r.Get("/health", s.handleHealth)
			r.Get("/system/status", s.handleSystemStatus)

			r.Route("/cache", func(r chi.Router) {
				r.Get("/", s.handleListCache)
				r.Delete("/", s.handleClearCache)
				r.Get("/{key}", s.handleCacheInfo)
				r.Delete("/{key}", s.handleClearCacheKey)
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Get("/", s.handleListJobs)
				r.Post("/{name}", s.handleRunJob)
			})

			r.Get("/portfolio/default", s.handleDefaultPortfolio)

			performancehandlers.NewHandler(c.PerformanceService, s.log).RegisterRoutes(r)
			allocationhandlers.NewHandler(c.AllocationService, s.log).RegisterRoutes(r)
			benchmarkshandlers.NewHandler(c.BenchmarksService, s.log).RegisterRoutes(r)
			fundamentalshandlers.NewHandler(c.FundamentalsService, s.log).RegisterRoutes(r)
			trendshandlers.NewHandler(c.TrendsService, s.log).RegisterRoutes(r)
			stockpriceshandlers.NewHandler(c.StockPricesService, s.log).RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
