package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the performance routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolio/performance", h.HandlePerformance)
}
