package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all holdings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/holdings", func(r chi.Router) {
		r.Get("/", h.HandleListHoldings)
		r.Post("/", h.HandleCreateHolding)
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetHolding(w, r, chi.URLParam(r, "id"))
		})
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleUpdateHolding(w, r, chi.URLParam(r, "id"))
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleDeleteHolding(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/{id}/restore", func(w http.ResponseWriter, r *http.Request) {
			h.HandleRestoreHolding(w, r, chi.URLParam(r, "id"))
		})
	})
}
