package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.HandleListTransactions)
			r.Post("/", h.HandleCreateTransaction)
			r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleDeleteTransaction(w, r, chi.URLParam(r, "id"))
			})
			r.Post("/{id}/restore", func(w http.ResponseWriter, r *http.Request) {
				h.HandleRestoreTransaction(w, r, chi.URLParam(r, "id"))
			})
		})

		r.Get("/holdings/{holdingID}/costbasis", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetCostBasis(w, r, chi.URLParam(r, "holdingID"))
		})

		r.Get("/summary", h.HandleGetSummary)
	})
}
