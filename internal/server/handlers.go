package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	CacheSize int    `json:"cache_size"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		CacheSize: s.memoryCacheSize(),
	})
}

// memoryCacheSize counts in-memory entries across the price and snapshot caches.
func (s *Server) memoryCacheSize() int {
	n := 0
	if s.container.Prices != nil {
		n += s.container.Prices.Len()
	}
	if s.container.Snapshots != nil {
		n += s.container.Snapshots.Len()
	}
	return n
}

// DefaultPortfolioResponse is returned by GET /api/portfolio/default.
type DefaultPortfolioResponse struct {
	Name     string      `json:"name,omitempty"`
	Holdings interface{} `json:"holdings"`
	Symbols  []string    `json:"symbols"`
}

func (s *Server) handleDefaultPortfolio(w http.ResponseWriter, r *http.Request) {
	resp := DefaultPortfolioResponse{Holdings: []struct{}{}, Symbols: []string{}}
	if p := s.container.Portfolio; p != nil && len(p.Holdings) > 0 {
		resp.Name = p.Name
		resp.Holdings = p.Holdings
		resp.Symbols = p.Symbols()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
