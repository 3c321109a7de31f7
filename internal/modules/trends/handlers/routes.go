package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the trends routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolio/trends", h.HandleTrends)
}
