// Package handlers provides HTTP handlers for portfolio performance.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/modules/performance"
)

const maxBodyBytes = 1 << 20

// Handler handles performance HTTP requests
type Handler struct {
	service *performance.Service
	log     zerolog.Logger
}

// NewHandler creates a new performance handler
func NewHandler(service *performance.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "performance").Logger(),
	}
}

type performanceRequest struct {
	Holdings []domain.Holding `json:"holdings"`
}

// HandlePerformance returns the performance table for the posted holdings.
func (h *Handler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	var req performanceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := domain.ValidateHoldings(req.Holdings); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force_refresh"))

	result, err := h.service.Calculate(r.Context(), req.Holdings, force)
	if err != nil {
		if errors.Is(err, domain.ErrNoHoldings) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to calculate performance")
		h.writeError(w, http.StatusInternalServerError, "Failed to calculate portfolio performance")
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
