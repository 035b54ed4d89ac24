package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all budget routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/budget", func(r chi.Router) {
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.HandleListPeriods)
			r.Get("/current", h.HandleCurrentPeriod)
			r.Post("/ensure", h.HandleEnsurePeriod)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.HandleListTransactions)
			r.Post("/", h.HandleCreateTransaction)
			r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleDeleteTransaction(w, r, chi.URLParam(r, "id"))
			})
		})

		r.Get("/pace", h.HandleGetPace)
	})
}
