// Package fundamentals returns the latest OBQ and momentum scores for a list of symbols.
package fundamentals

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/analytics"
	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

// CacheModule prefixes this module's file cache keys.
const CacheModule = "fundamentals"

// ScoreSource reads raw rows from a score table.
type ScoreSource interface {
	ScoreRows(ctx context.Context, table string, symbols []string) (*analytics.Table, error)
}

// Row is one symbol's latest scores. Missing scores are null.
type Row struct {
	Symbol            string   `json:"symbol"`
	Value             *float64 `json:"value"`
	Growth            *float64 `json:"growth"`
	FinancialStrength *float64 `json:"financial_strength"`
	Quality           *float64 `json:"quality"`
	Momentum          *float64 `json:"momentum"`
}

// Result is the fundamentals payload.
type Result struct {
	Data         []Row    `json:"data"`
	ScoreColumns []string `json:"score_columns"`
	Error        *string  `json:"error"`

	partial bool
}

// Partial reports scores assembled while one of the score tables was unreachable.
func (r *Result) Partial() bool { return r.partial }

// Service looks up scores.
type Service struct {
	source ScoreSource
	store  *cache.Store
	log    zerolog.Logger
}

// NewService creates a fundamentals service. A nil source answers every request with an error payload.
func NewService(source ScoreSource, store *cache.Store, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		store:  store,
		log:    log.With().Str("service", "fundamentals").Logger(),
	}
}

func emptyResult(err error) *Result {
	r := &Result{Data: []Row{}, ScoreColumns: []string{}}
	if err != nil {
		msg := err.Error()
		r.Error = &msg
	}
	return r
}

// Scores returns one row per requested symbol, in request order.
// Database failures are reported in the payload's error field rather than as an error.
func (s *Service) Scores(ctx context.Context, symbols []string, force bool) (*Result, error) {
	requested := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if n := domain.NormalizeSymbol(sym); n != "" {
			requested = append(requested, n)
		}
	}
	if len(requested) == 0 {
		return emptyResult(nil), nil
	}
	if s.source == nil {
		s.log.Warn().Msg("Analytics database not configured")
		return emptyResult(domain.ErrNotConfigured), nil
	}

	compute := func() (*Result, error) { return s.compute(ctx, requested) }

	var (
		result *Result
		err    error
	)
	if s.store == nil {
		result, err = compute()
	} else {
		result, err = cache.FetchWithCache(s.store, cache.RequestKey(CacheModule, requested...), force, compute)
	}
	if err != nil {
		return emptyResult(err), nil
	}
	return result, nil
}

func (s *Service) compute(ctx context.Context, requested []string) (*Result, error) {
	unique := domain.NormalizeSymbols(requested)
	merged := make(map[string]*Row, len(unique))
	for _, sym := range unique {
		merged[sym] = &Row{Symbol: sym}
	}

	var failures []error

	obq, err := s.source.ScoreRows(ctx, analytics.TableScores, unique)
	if err != nil {
		s.log.Warn().Err(err).Str("table", analytics.TableScores).Msg("Score query failed")
		failures = append(failures, err)
	}
	for sym, rec := range latestPerSymbol(obq) {
		row, ok := merged[sym]
		if !ok {
			continue
		}
		row.Value = firstScore(rec, valueColumns...)
		row.Growth = score(rec, growthColumn)
		row.FinancialStrength = score(rec, financialStrengthCol)
		row.Quality = score(rec, qualityColumn)
	}

	momentum, err := s.source.ScoreRows(ctx, analytics.TableMomentumScores, unique)
	if err != nil {
		s.log.Warn().Err(err).Str("table", analytics.TableMomentumScores).Msg("Score query failed")
		failures = append(failures, err)
	}
	for sym, rec := range latestPerSymbol(momentum) {
		if row, ok := merged[sym]; ok {
			row.Momentum = firstScore(rec, momentumColumn, momentumFallbackColumn)
		}
	}

	// Both tables down: surface the error so a stale snapshot can be served.
	if len(failures) == 2 {
		return nil, errors.Join(failures...)
	}

	data := make([]Row, 0, len(requested))
	for _, sym := range requested {
		data = append(data, *merged[sym])
	}

	s.log.Debug().Int("symbols", len(unique)).Msg("Loaded fundamentals")

	return &Result{
		Data:         data,
		ScoreColumns: append([]string(nil), ScoreColumns...),
		partial:      len(failures) > 0,
	}, nil
}
