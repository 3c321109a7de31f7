// Package cache implements the day-scoped JSON snapshot cache shared by the dashboard modules.
//
// Each key maps to <dir>/<key>_data.json holding the payload plus the calendar
// date it was written and an expiry at the next local midnight.
package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	fileSuffix = "_data.json"
	dateLayout = "2006-01-02"
)

// validKey keeps keys safe to use as file names.
var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Entry is the on-disk record.
type Entry struct {
	CacheDate  string          `json:"cache_date"`
	LoadedAt   string          `json:"loaded_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	ModuleName string          `json:"module_name"`
	Data       json.RawMessage `json:"data"`
}

// Info is cache metadata without the payload.
type Info struct {
	ModuleName    string    `json:"module_name"`
	CacheDate     string    `json:"cache_date"`
	LoadedAt      string    `json:"loaded_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	IsValid       bool      `json:"is_valid"`
	FilePath      string    `json:"file_path"`
	FileSizeBytes int64     `json:"file_size_bytes"`
}

// Store reads and writes snapshot files in one directory.
type Store struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
	log zerolog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source (tests use this to cross midnight).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates the cache directory if needed.
func NewStore(dir string, log zerolog.Logger, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Store{
		dir: dir,
		now: time.Now,
		log: log.With().Str("component", "file_cache").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory holding the cache files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for a key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+fileSuffix)
}

// NextMidnight returns the first instant of the calendar day after t, in t's location.
func NextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// isFresh applies the expiry rule, falling back to the date string for files written without expires_at.
func (s *Store) isFresh(e *Entry) bool {
	now := s.now()
	if !e.ExpiresAt.IsZero() {
		return now.Before(e.ExpiresAt)
	}
	return e.CacheDate == now.Format(dateLayout)
}

func (s *Store) read(key string) (*Entry, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return nil, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode cache file for %s: %w", key, err)
	}
	return &e, nil
}

// Load returns the cached payload when it was written today and has not expired.
func (s *Store) Load(key string) (json.RawMessage, bool) {
	if !validKey.MatchString(key) {
		return nil, false
	}

	e, err := s.read(key)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Error().Err(err).Str("module", key).Msg("Failed to load cache")
		} else {
			s.log.Debug().Str("module", key).Msg("Cache miss (no file)")
		}
		return nil, false
	}

	if !s.isFresh(e) {
		s.log.Debug().
			Str("module", key).
			Str("cache_date", e.CacheDate).
			Msg("Cache miss (expired)")
		return nil, false
	}

	s.log.Debug().Str("module", key).Str("cache_date", e.CacheDate).Msg("Cache hit")
	return e.Data, true
}

// LoadStale returns the payload regardless of age. Used as a fallback when a fetch fails.
func (s *Store) LoadStale(key string) (json.RawMessage, bool) {
	if !validKey.MatchString(key) {
		return nil, false
	}
	e, err := s.read(key)
	if err != nil {
		return nil, false
	}
	return e.Data, true
}

// Save marshals data and writes it with today's date and a midnight expiry.
// A json.RawMessage is stored byte for byte, so Load returns exactly what was saved.
func (s *Store) Save(key string, data interface{}) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid cache key: %q", key)
	}

	raw, ok := data.(json.RawMessage)
	if ok {
		if !json.Valid(raw) {
			return fmt.Errorf("invalid JSON payload for %s", key)
		}
	} else {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal cache data for %s: %w", key, err)
		}
		raw = b
	}

	now := s.now()
	header, err := json.Marshal(Entry{
		CacheDate:  now.Format(dateLayout),
		LoadedAt:   now.Format(time.RFC3339Nano),
		ExpiresAt:  NextMidnight(now),
		ModuleName: key,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry for %s: %w", key, err)
	}

	// Splice the payload in after the header fields; json.Marshal would compact and escape it
	header = bytes.TrimSuffix(header, []byte(`,"data":null}`))
	content := make([]byte, 0, len(header)+len(raw)+10)
	content = append(content, header...)
	content = append(content, `,"data":`...)
	content = append(content, raw...)
	content = append(content, '}')

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache file for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close cache file for %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, s.Path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move cache file for %s: %w", key, err)
	}

	s.log.Debug().Str("module", key).Msg("Cache saved")
	return nil
}

// Clear removes the file for key and any request-scoped variants (key-*).
// An empty key clears every cache file. Returns the number of files removed.
func (s *Store) Clear(key string) (int, error) {
	if key != "" && !validKey.MatchString(key) {
		return 0, fmt.Errorf("invalid cache key: %q", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var patterns []string
	if key == "" {
		patterns = []string{"*" + fileSuffix}
	} else {
		patterns = []string{key + fileSuffix, key + "-*" + fileSuffix}
	}

	removed := 0
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
		if err != nil {
			return removed, fmt.Errorf("failed to list cache files: %w", err)
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return removed, fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
			}
			removed++
		}
	}

	s.log.Info().Str("module", key).Int("files", removed).Msg("Cache cleared")
	return removed, nil
}

// Info returns metadata for a key, or nil when no file exists.
func (s *Store) Info(key string) (*Info, error) {
	if !validKey.MatchString(key) {
		return nil, fmt.Errorf("invalid cache key: %q", key)
	}

	path := s.Path(key)
	stat, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat cache file for %s: %w", key, err)
	}

	e, err := s.read(key)
	if err != nil {
		return nil, err
	}

	return &Info{
		ModuleName:    key,
		CacheDate:     e.CacheDate,
		LoadedAt:      e.LoadedAt,
		ExpiresAt:     e.ExpiresAt,
		IsValid:       s.isFresh(e),
		FilePath:      path,
		FileSizeBytes: stat.Size(),
	}, nil
}

// List returns metadata for every cache file, sorted by key.
func (s *Store) List() ([]Info, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list cache files: %w", err)
	}
	sort.Strings(matches)

	infos := make([]Info, 0, len(matches))
	for _, path := range matches {
		key := strings.TrimSuffix(filepath.Base(path), fileSuffix)
		info, err := s.Info(key)
		if err != nil {
			s.log.Warn().Err(err).Str("module", key).Msg("Skipping unreadable cache file")
			continue
		}
		if info != nil {
			infos = append(infos, *info)
		}
	}
	return infos, nil
}
