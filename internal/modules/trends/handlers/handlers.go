// Package handlers provides HTTP handlers for weekly trend data.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/modules/trends"
)

const maxBodyBytes = 1 << 20

// Handler handles trends HTTP requests
type Handler struct {
	service *trends.Service
	log     zerolog.Logger
}

// NewHandler creates a new trends handler
func NewHandler(service *trends.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "trends").Logger(),
	}
}

type trendsRequest struct {
	Symbols []string `json:"symbols"`
}

// HandleTrends handles POST /portfolio/trends
func (h *Handler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	var req trendsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force_refresh"))

	result, err := h.service.Trends(r.Context(), req.Symbols, force)
	if errors.Is(err, domain.ErrNotConfigured) {
		h.writeError(w, http.StatusServiceUnavailable, "Analytics database not configured")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load trends")
		h.writeError(w, http.StatusInternalServerError, "Failed to load trends")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
