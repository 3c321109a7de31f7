// Package handlers provides HTTP handlers for stock price history.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/modules/stockprices"
)

const maxBodyBytes = 1 << 20

// Handler handles stock price HTTP requests
type Handler struct {
	service *stockprices.Service
	log     zerolog.Logger
}

// NewHandler creates a new stock prices handler
func NewHandler(service *stockprices.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "stock_prices").Logger(),
	}
}

type stockPricesRequest struct {
	Symbols []string `json:"symbols"`
}

// HandleStockPrices handles POST /stock-prices
func (h *Handler) HandleStockPrices(w http.ResponseWriter, r *http.Request) {
	var req stockPricesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(domain.NormalizeSymbols(req.Symbols)) == 0 {
		h.writeError(w, http.StatusBadRequest, "No symbols provided")
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force_refresh"))

	result, err := h.service.Prices(r.Context(), req.Symbols, force)
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		h.writeError(w, http.StatusServiceUnavailable, "Analytics database not configured")
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to load stock prices")
		h.writeError(w, http.StatusInternalServerError, "Failed to load stock prices")
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
