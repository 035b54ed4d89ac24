package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all anomaly routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/anomalies", h.HandleGetAnomalies)
}
