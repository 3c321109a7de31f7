// Package handlers provides HTTP handlers for benchmark comparison.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/modules/benchmarks"
)

const maxBodyBytes = 1 << 20

// Handler handles benchmark HTTP requests
type Handler struct {
	service *benchmarks.Service
	log     zerolog.Logger
}

// NewHandler creates a new benchmarks handler
func NewHandler(service *benchmarks.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "benchmarks").Logger(),
	}
}

type benchmarkRequest struct {
	Holdings  []domain.Holding `json:"holdings"`
	Portfolio []domain.Holding `json:"portfolio"`
}

// HandleBenchmarks handles POST /benchmarks
func (h *Handler) HandleBenchmarks(w http.ResponseWriter, r *http.Request) {
	var req benchmarkRequest
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

	result, err := h.service.Compare(r.Context(), holdings, force)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compare against benchmark")
		h.writeError(w, http.StatusInternalServerError, "Failed to compare against benchmark")
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
