package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/config"
	"github.com/jcnfinancial/dashboard-api/internal/di"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/marketdata"
	"github.com/jcnfinancial/dashboard-api/internal/modules/allocation"
	"github.com/jcnfinancial/dashboard-api/internal/modules/benchmarks"
	"github.com/jcnfinancial/dashboard-api/internal/modules/fundamentals"
	"github.com/jcnfinancial/dashboard-api/internal/modules/performance"
	"github.com/jcnfinancial/dashboard-api/internal/modules/stockprices"
	"github.com/jcnfinancial/dashboard-api/internal/modules/trends"
	"github.com/jcnfinancial/dashboard-api/internal/prices"
	"github.com/jcnfinancial/dashboard-api/internal/scheduler"
	"github.com/jcnfinancial/dashboard-api/internal/workers"
)

type stubProvider struct {
	prices map[string]float64
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	price, ok := p.prices[symbol]
	if !ok {
		return nil, domain.ErrNoData
	}
	return &domain.Quote{Symbol: symbol, Price: price, Source: "stub"}, nil
}

type testEnv struct {
	server    *Server
	container *di.Container
	scheduler *scheduler.Scheduler
}

// newTestEnv wires a server against in-process fakes; the analytics source is left unconfigured.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	cfg := &config.Config{
		CacheDir:       t.TempDir(),
		Port:           8000,
		StreamInterval: 50 * time.Millisecond,
	}

	store, err := cache.NewStore(cfg.CacheDir, log)
	require.NoError(t, err)

	provider := &stubProvider{prices: map[string]float64{"AAPL": 190.5, "SPY": 500}}
	priceManager := prices.NewManager(provider, workers.NewWorkerPool(2), time.Minute, log)
	snapshots := marketdata.NewService(nil, store, log)

	container := &di.Container{
		Config:    cfg,
		Store:     store,
		Prices:    priceManager,
		Snapshots: snapshots,
		Portfolio: &config.PortfolioFile{
			Name:     "Core",
			Holdings: []domain.Holding{{Symbol: "AAPL", CostBasis: 150, Shares: 10}},
		},
		PerformanceService:  performance.NewService(snapshots, priceManager, log),
		AllocationService:   allocation.NewService(snapshots, store, log),
		BenchmarksService:   benchmarks.NewService(snapshots, nil, store, log),
		FundamentalsService: fundamentals.NewService(nil, store, log),
		TrendsService:       trends.NewService(nil, store, log),
		StockPricesService:  stockprices.NewService(nil, store, log),
	}

	sched := scheduler.New(log)
	s := New(Config{Log: log, Config: cfg, Container: container, Scheduler: sched})
	s.SetJobs(&di.JobInstances{
		PriceWarmup: scheduler.NewPriceWarmupJob(priceManager, container.DefaultSymbols, log),
	})

	return &testEnv{server: s, container: container, scheduler: sched}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 0, resp.CacheSize)
	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)

	env.container.Prices.Refresh(context.Background(), []string{"AAPL", "SPY"}, false)

	resp = decode[HealthResponse](t, env.do(t, http.MethodGet, "/api/health", ""))
	assert.Equal(t, 2, resp.CacheSize)
}

func TestHandleSystemStatus(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.container.Store.Save("performance-abc", map[string]int{"x": 1}))

	w := env.do(t, http.MethodGet, "/api/system/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[SystemStatusResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.GoVersion)
	assert.Positive(t, resp.Goroutines)
	assert.Equal(t, env.container.Config.CacheDir, resp.CacheDir)
	assert.Equal(t, 1, resp.CacheFiles)
	assert.False(t, resp.Analytics)
	assert.False(t, resp.Backups)
	assert.NotNil(t, resp.Jobs)
}

func TestHandleDefaultPortfolio(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/portfolio/default", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Name     string           `json:"name"`
		Holdings []domain.Holding `json:"holdings"`
		Symbols  []string         `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Core", resp.Name)
	assert.Equal(t, []string{"AAPL"}, resp.Symbols)
	require.Len(t, resp.Holdings, 1)
	assert.Equal(t, 150.0, resp.Holdings[0].CostBasis)

	env.container.Portfolio = nil
	w = env.do(t, http.MethodGet, "/api/portfolio/default", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"holdings":[],"symbols":[]}`, w.Body.String())
}

func TestModuleRoutesMounted(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"stock prices without symbols", "/api/stock-prices", `{"symbols":[]}`, http.StatusBadRequest},
		{"stock prices without analytics", "/api/stock-prices", `{"symbols":["AAPL"]}`, http.StatusServiceUnavailable},
		{"trends without analytics", "/api/portfolio/trends", `{"symbols":["AAPL"]}`, http.StatusServiceUnavailable},
		{"fundamentals report errors in payload", "/api/portfolio/fundamentals", `{"symbols":["AAPL"]}`, http.StatusOK},
		{"performance rejects bad body", "/api/portfolio/performance", `{`, http.StatusBadRequest},
		{"unknown route", "/api/nope", `{}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/portfolio/performance", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCompression(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestJobs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/jobs/price_warmup", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	record := decode[scheduler.RunRecord](t, w)
	assert.Equal(t, "price_warmup", record.Job)
	assert.NotEmpty(t, record.RunID)
	assert.Empty(t, record.Error)

	_, ok := env.container.Prices.Get("AAPL")
	assert.True(t, ok, "warmup filled the price cache")

	w = env.do(t, http.MethodPost, "/api/jobs/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	jobs := decode[JobsResponse](t, w)
	assert.Equal(t, []string{"price_warmup"}, jobs.Registered)
	require.Len(t, jobs.LastRuns, 1)
	assert.Equal(t, record.RunID, jobs.LastRuns[0].RunID)
}

func TestJobs_FailedRun(t *testing.T) {
	env := newTestEnv(t)
	env.container.Portfolio = &config.PortfolioFile{
		Holdings: []domain.Holding{{Symbol: "UNKNOWN", CostBasis: 1, Shares: 1}},
	}

	w := env.do(t, http.MethodPost, "/api/jobs/price_warmup", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	record := decode[scheduler.RunRecord](t, w)
	assert.NotEmpty(t, record.Error)
}
