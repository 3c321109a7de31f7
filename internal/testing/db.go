// Package testing provides database fixtures and mocks shared by package tests.
package testing

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jcnfinancial/dashboard-api/internal/database"
)

// AnalyticsDriver is the driver name tests pass to analytics.NewSource.
const AnalyticsDriver = "sqlite3"

// analyticsSchema mirrors the columns the service reads from PROD_EODHD.main.
const analyticsSchema = `
CREATE TABLE PROD_EOD_survivorship (
    symbol TEXT NOT NULL,
    date DATE NOT NULL,
    open REAL,
    high REAL,
    low REAL,
    close REAL,
    adjusted_close REAL,
    volume INTEGER,
    gics_sector TEXT,
    industry TEXT
);

CREATE TABLE PROD_EOD_ETFs (
    symbol TEXT NOT NULL,
    date DATE NOT NULL,
    open REAL,
    high REAL,
    low REAL,
    close REAL,
    volume INTEGER
);

CREATE TABLE PROD_OBQ_Scores (
    symbol TEXT NOT NULL,
    date DATE,
    value_universe_score REAL,
    value_historical_score REAL,
    value_sector_score REAL,
    growth_score REAL,
    fs_score REAL,
    quality_score REAL
);

CREATE TABLE PROD_OBQ_Momentum_Scores (
    symbol TEXT NOT NULL,
    month_date DATE,
    obq_momentum_score REAL,
    systemscore REAL
);
`

// NewAnalyticsDB returns an in-memory database with the analytics tables and no prefix.
// The connection is closed when the test finishes.
func NewAnalyticsDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open(AnalyticsDriver, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open analytics test database: %v", err)
	}
	// One connection, one in-memory database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(analyticsSchema); err != nil {
		db.Close()
		t.Fatalf("Failed to create analytics schema: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Insert adds one row built from a column->value map.
func Insert(t *testing.T, db *sql.DB, table string, row map[string]interface{}) {
	t.Helper()

	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]interface{}, len(cols))
	for i, col := range cols {
		args[i] = row[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("Failed to insert into %s: %v", table, err)
	}
}

// NewClientDataDB opens a migrated client_data database in a temp dir.
func NewClientDataDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		t.Fatalf("Failed to create client data database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate client data database: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
