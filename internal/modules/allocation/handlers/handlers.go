// Package handlers provides HTTP handlers for portfolio allocation.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/modules/allocation"
)

const maxBodyBytes = 1 << 20

// Handler handles allocation HTTP requests
type Handler struct {
	service *allocation.Service
	log     zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(service *allocation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "allocation").Logger(),
	}
}

// allocationRequest also accepts the older "portfolio" key.
type allocationRequest struct {
	Holdings  []domain.Holding `json:"holdings"`
	Portfolio []domain.Holding `json:"portfolio"`
}

// HandleAllocation returns the pie datasets for the posted holdings.
func (h *Handler) HandleAllocation(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	holdings := req.Holdings
	if len(holdings) == 0 {
		holdings = req.Portfolio
	}
	if err := domain.ValidateHoldings(holdings); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force_refresh"))

	result, err := h.service.Allocate(r.Context(), holdings, force)
	if errors.Is(err, domain.ErrNotConfigured) {
		h.writeError(w, http.StatusServiceUnavailable, "Analytics database not configured")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to calculate allocation")
		h.writeError(w, http.StatusInternalServerError, "Failed to calculate allocation")
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
