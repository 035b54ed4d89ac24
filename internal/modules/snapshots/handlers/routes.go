package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all snapshot routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", h.HandleListSnapshots)
		r.Post("/", h.HandleRecordSnapshot)
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleDeleteSnapshot(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/{id}/restore", func(w http.ResponseWriter, r *http.Request) {
			h.HandleRestoreSnapshot(w, r, chi.URLParam(r, "id"))
		})
	})
}
