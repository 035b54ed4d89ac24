package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/networth/history", h.HandleGetNetWorthHistory)
	r.Get("/networth/history/{date}", h.HandleGetNetWorthOn)
	r.Get("/charts/sparklines", h.HandleGetSparklines)
	r.Get("/history/prices/{symbol}", h.HandleGetPriceSeries)
}
