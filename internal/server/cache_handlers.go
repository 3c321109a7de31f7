package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcnfinancial/dashboard-api/internal/cache"
	"github.com/jcnfinancial/dashboard-api/internal/marketdata"
)

// CacheListResponse is returned by GET /api/cache.
type CacheListResponse struct {
	CacheDir string       `json:"cache_dir"`
	Count    int          `json:"count"`
	Entries  []cache.Info `json:"entries"`
}

// CacheClearResponse is returned by the DELETE cache endpoints.
type CacheClearResponse struct {
	Status       string `json:"status"`
	Key          string `json:"key,omitempty"`
	FilesRemoved int    `json:"files_removed"`
	Timestamp    string `json:"timestamp"`
}

func (s *Server) handleListCache(w http.ResponseWriter, r *http.Request) {
	store := s.container.Store
	if store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "file cache not configured")
		return
	}

	infos, err := store.List()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list cache")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, CacheListResponse{
		CacheDir: store.Dir(),
		Count:    len(infos),
		Entries:  infos,
	})
}

func (s *Server) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	store := s.container.Store
	if store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "file cache not configured")
		return
	}

	key := chi.URLParam(r, "key")
	info, err := store.Info(key)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if info == nil {
		s.writeError(w, http.StatusNotFound, "no cache entry for "+key)
		return
	}

	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.clearCache(w, "")
}

func (s *Server) handleClearCacheKey(w http.ResponseWriter, r *http.Request) {
	s.clearCache(w, chi.URLParam(r, "key"))
}

// clearCache removes cache files for key (all of them when key is empty).
// Clearing the snapshot key also drops the in-memory snapshots so the next request reloads.
func (s *Server) clearCache(w http.ResponseWriter, key string) {
	store := s.container.Store
	if store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "file cache not configured")
		return
	}

	removed, err := store.Clear(key)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to clear cache")
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if (key == "" || key == marketdata.CacheKey) && s.container.Snapshots != nil {
		s.container.Snapshots.Clear()
	}

	s.writeJSON(w, http.StatusOK, CacheClearResponse{
		Status:       "cleared",
		Key:          key,
		FilesRemoved: removed,
		Timestamp:    time.Now().Format(time.RFC3339),
	})
}
