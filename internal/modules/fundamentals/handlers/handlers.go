// Package handlers provides HTTP handlers for portfolio fundamentals.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/modules/fundamentals"
)

const maxBodyBytes = 1 << 20

// Handler handles fundamentals HTTP requests
type Handler struct {
	service *fundamentals.Service
	log     zerolog.Logger
}

// NewHandler creates a new fundamentals handler
func NewHandler(service *fundamentals.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "fundamentals").Logger(),
	}
}

type fundamentalsRequest struct {
	Symbols []string `json:"symbols"`
}

// HandleFundamentals handles POST /portfolio/fundamentals
func (h *Handler) HandleFundamentals(w http.ResponseWriter, r *http.Request) {
	var req fundamentalsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force_refresh"))

	result, err := h.service.Scores(r.Context(), req.Symbols, force)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load fundamentals")
		h.writeError(w, http.StatusInternalServerError, "Failed to load fundamentals")
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
