package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the benchmark routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/benchmarks", h.HandleBenchmarks)
}
