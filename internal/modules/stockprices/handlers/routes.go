package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the stock price routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/stock-prices", h.HandleStockPrices)
}
