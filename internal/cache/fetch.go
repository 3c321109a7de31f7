package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Partial is implemented by payloads that can be built from incomplete upstream data.
// A partial payload is returned to the caller but never saved, so the next request retries.
type Partial interface {
	Partial() bool
}

// FetchWithCache is the read-through wrapper every module uses.
//
//  1. Unless force is set, a fresh snapshot is decoded and returned.
//  2. Otherwise fetch runs and its result is saved, unless it reports itself Partial.
//  3. If fetch fails, any stale snapshot is returned instead; with none, the fetch error is.
func FetchWithCache[T any](s *Store, key string, force bool, fetch func() (T, error)) (T, error) {
	var zero T

	if !force {
		if raw, ok := s.Load(key); ok {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			s.log.Warn().Str("module", key).Msg("Cached payload no longer decodes, refetching")
		}
	} else {
		s.log.Info().Str("module", key).Msg("Force refresh")
	}

	fresh, err := fetch()
	if err != nil {
		s.log.Error().Err(err).Str("module", key).Msg("Failed to fetch fresh data")

		if raw, ok := s.LoadStale(key); ok {
			var stale T
			if jsonErr := json.Unmarshal(raw, &stale); jsonErr == nil {
				s.log.Warn().Str("module", key).Msg("Returning stale cache due to fetch error")
				return stale, nil
			}
		}
		return zero, err
	}

	if p, ok := any(fresh).(Partial); ok && p.Partial() {
		s.log.Warn().Str("module", key).Msg("Not caching partial result")
		return fresh, nil
	}

	if err := s.Save(key, fresh); err != nil {
		// A failed write only costs a refetch next time
		s.log.Error().Err(err).Str("module", key).Msg("Failed to save cache")
	}

	return fresh, nil
}

// RequestKey derives a stable, file-safe key from a module name and the parts of a request
// that change its answer, so different portfolios never share a snapshot.
func RequestKey(module string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%s\x00", strings.ToUpper(strings.TrimSpace(p)))
	}
	return module + "-" + hex.EncodeToString(h.Sum(nil))[:12]
}
