package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all net worth routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/networth", h.HandleGetNetWorth)
}
