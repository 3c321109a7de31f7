// Package database opens the local SQLite store backing quote persistence.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jcnfinancial/dashboard-api/pkg/embedded"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Profile selects durability pragmas.
type Profile string

const (
	// ProfileCache favors speed; everything in it can be refetched.
	ProfileCache Profile = "cache"
	// ProfileStandard is the balanced default.
	ProfileStandard Profile = "standard"
)

// Config holds database configuration
type Config struct {
	Path    string
	Profile Profile
	Name    string // also selects the schema file: <Name>.sql
}

// DB wraps a SQLite connection.
type DB struct {
	conn    *sql.DB
	path    string
	profile Profile
	name    string
}

// New opens (creating if needed) the database at cfg.Path.
func New(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// file: URIs are in-memory databases used by tests
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	conn, err := sql.Open("sqlite", connectionString(cfg.Path, cfg.Profile))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}
	configurePool(conn, cfg.Profile)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		path:    cfg.Path,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

func connectionString(path string, profile Profile) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	connStr := path + sep + "_pragma=journal_mode(WAL)"

	switch profile {
	case ProfileCache:
		connStr += "&_pragma=synchronous(OFF)"
		connStr += "&_pragma=temp_store(MEMORY)"
	default:
		connStr += "&_pragma=synchronous(NORMAL)"
	}

	connStr += "&_pragma=busy_timeout(5000)"
	return connStr
}

func configurePool(conn *sql.DB, profile Profile) {
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(30 * time.Minute)
	if profile == ProfileStandard {
		conn.SetConnMaxLifetime(24 * time.Hour)
	}
}

// Migrate applies the embedded schema named after the database. Unknown names are a no-op.
func (db *DB) Migrate() error {
	schemaFile := "schemas/" + db.name + ".sql"
	content, err := fs.ReadFile(embedded.Schemas, schemaFile)
	if err != nil {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for schema %s: %w", schemaFile, err)
	}
	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute schema %s: %w", schemaFile, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema %s: %w", schemaFile, err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying connection for repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name for logging
func (db *DB) Name() string {
	return db.name
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// QuickCheck runs PRAGMA quick_check.
func (db *DB) QuickCheck(ctx context.Context) error {
	var result string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("quick_check failed for %s: %w", db.name, err)
	}
	if result != "ok" {
		return fmt.Errorf("quick_check reported %q for %s", result, db.name)
	}
	return nil
}

// WALCheckpoint truncates the write-ahead log.
func (db *DB) WALCheckpoint() error {
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("WAL checkpoint failed for %s: %w", db.name, err)
	}
	return nil
}
