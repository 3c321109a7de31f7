// Package analytics queries the end-of-day analytical database (MotherDuck in production).
//
// Only portable SQL is used so the same queries run against a local SQLite copy.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/config"
	"github.com/jcnfinancial/dashboard-api/internal/domain"

	_ "github.com/marcboeker/go-duckdb" // MotherDuck / DuckDB driver
	_ "modernc.org/sqlite"              // local analytics copies
)

// Table names, relative to the configured prefix.
const (
	TableEOD            = "PROD_EOD_survivorship"
	TableETFs           = "PROD_EOD_ETFs"
	TableScores         = "PROD_OBQ_Scores"
	TableMomentumScores = "PROD_OBQ_Momentum_Scores"
)

const dateLayout = "2006-01-02"

var validTable = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Source runs analytics queries over a database/sql handle.
type Source struct {
	db     *sql.DB
	driver string
	prefix string
	log    zerolog.Logger
}

// Open connects using the analytics config. It returns domain.ErrNotConfigured when
// no DSN or MotherDuck token is available.
func Open(cfg config.AnalyticsConfig, log zerolog.Logger) (*Source, error) {
	if !cfg.Configured() {
		return nil, domain.ErrNotConfigured
	}

	db, err := sql.Open(cfg.Driver, cfg.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}

	// MotherDuck connections are expensive to establish
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(10 * time.Minute)

	return NewSource(db, cfg.Driver, cfg.TablePrefix, log), nil
}

// NewSource wraps an already opened handle.
func NewSource(db *sql.DB, driver, prefix string, log zerolog.Logger) *Source {
	return &Source{
		db:     db,
		driver: driver,
		prefix: prefix,
		log:    log.With().Str("component", "analytics").Logger(),
	}
}

// Close releases the underlying connection pool.
func (s *Source) Close() error {
	return s.db.Close()
}

// Ping verifies connectivity.
func (s *Source) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// table returns the fully qualified table name.
func (s *Source) table(name string) (string, error) {
	if !validTable.MatchString(name) {
		return "", fmt.Errorf("invalid table name: %q", name)
	}
	return s.prefix + name, nil
}

// dateParam is the placeholder for a YYYY-MM-DD bound.
func (s *Source) dateParam() string {
	if s.driver == "duckdb" {
		return "CAST(? AS DATE)"
	}
	return "?"
}

// symbolArgs expands symbols to both stored forms (AAPL and AAPL.US) for an IN clause.
func symbolArgs(symbols []string) (string, []interface{}) {
	args := make([]interface{}, 0, len(symbols)*2)
	for _, sym := range domain.NormalizeSymbols(symbols) {
		args = append(args, sym, domain.DataSymbol(sym))
	}
	return placeholders(len(args)), args
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
