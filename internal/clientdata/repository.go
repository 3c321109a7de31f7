// Package clientdata persists external API responses as msgpack blobs with an expiry.
// Reads are cache-first; expired rows are kept until cleanup so they can serve as a fallback.
package clientdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TableCurrentPrices = "current_prices"
	TableSecurityNames = "security_names"
)

// AllTables lists all tables in client_data.db for cleanup operations.
var AllTables = []string{
	TableCurrentPrices,
	TableSecurityNames,
}

var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

// Entry is one stored row.
type Entry struct {
	Key       string
	Data      []byte
	ExpiresAt time.Time
}

// Decode unpacks the stored blob into v.
func (e Entry) Decode(v interface{}) error {
	return msgpack.Unmarshal(e.Data, v)
}

// Fresh reports whether the row had not expired at now.
func (e Entry) Fresh(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

// Repository provides cache operations for client data.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// validateTable guards the table names interpolated into queries.
func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid table name: %s", table)
	}
	return nil
}

// Store upserts data with expires_at = now + ttl.
func (r *Repository) Store(table, key string, data interface{}, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	blob, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode data for %s: %w", table, err)
	}

	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (symbol, data, expires_at) VALUES (?, ?, ?)", table)
	if _, err := r.db.Exec(query, key, blob, r.now().Add(ttl).Unix()); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}
	return nil
}

// GetIfFresh decodes into out only when the row has not expired.
// Returns false, nil for a missing or expired key.
func (r *Repository) GetIfFresh(table, key string, out interface{}) (bool, error) {
	entry, err := r.get(table, key)
	if err != nil || entry == nil {
		return false, err
	}
	if !entry.Fresh(r.now()) {
		return false, nil
	}
	if err := entry.Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", table, key, err)
	}
	return true, nil
}

// Get decodes into out regardless of expiry. Stale data beats no data when an upstream call fails.
func (r *Repository) Get(table, key string, out interface{}) (bool, error) {
	entry, err := r.get(table, key)
	if err != nil || entry == nil {
		return false, err
	}
	if err := entry.Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", table, key, err)
	}
	return true, nil
}

func (r *Repository) get(table, key string) (*Entry, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT symbol, data, expires_at FROM %s WHERE symbol = ?", table)

	var (
		e         Entry
		expiresAt int64
	)
	err := r.db.QueryRow(query, key).Scan(&e.Key, &e.Data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data from %s: %w", table, err)
	}
	e.ExpiresAt = time.Unix(expiresAt, 0)
	return &e, nil
}

// Entries returns every row in table, expired ones included.
func (r *Repository) Entries(table string) ([]Entry, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(fmt.Sprintf("SELECT symbol, data, expires_at FROM %s ORDER BY symbol", table))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			expiresAt int64
		)
		if err := rows.Scan(&e.Key, &e.Data, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		e.ExpiresAt = time.Unix(expiresAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a specific entry.
func (r *Repository) Delete(table, key string) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if _, err := r.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE symbol = ?", table), key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// DeleteExpired removes rows with expires_at < now and returns the count.
func (r *Repository) DeleteExpired(table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	result, err := r.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table), r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}
	return result.RowsAffected()
}

// DeleteAllExpired runs DeleteExpired over AllTables.
func (r *Repository) DeleteAllExpired() (map[string]int64, error) {
	results := make(map[string]int64, len(AllTables))
	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(table)
		if err != nil {
			return results, err
		}
		results[table] = deleted
	}
	return results, nil
}
