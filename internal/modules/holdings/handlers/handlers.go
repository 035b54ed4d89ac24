// Package handlers provides HTTP handlers for holding management.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/modules/holdings"
	"github.com/rs/zerolog"
)

// Handler handles holdings HTTP requests
type Handler struct {
	service *holdings.Service
	log     zerolog.Logger
}

// NewHandler creates a new holdings handler
func NewHandler(service *holdings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "holdings").Logger(),
	}
}

// CreateRequest represents a request to create a holding
type CreateRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Dormant  bool   `json:"dormant"`
}

// HandleCreateHolding handles POST /api/holdings
func (h *Handler) HandleCreateHolding(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(holdings.CreateInput{
		Name:     req.Name,
		Type:     req.Type,
		Currency: req.Currency,
		Symbol:   req.Symbol,
		Exchange: req.Exchange,
		Dormant:  req.Dormant,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(map[string]interface{}{
		"holding": created,
	}))
}

// HandleListHoldings handles GET /api/holdings
func (h *Handler) HandleListHoldings(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List()
	if err != nil {
		h.writeError(w, err)
		return
	}

	if list == nil {
		list = []domain.Holding{}
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"holdings": list,
		"count":    len(list),
	}))
}

// HandleGetHolding handles GET /api/holdings/{id}
func (h *Handler) HandleGetHolding(w http.ResponseWriter, r *http.Request, id string) {
	holding, err := h.service.Get(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if holding == nil {
		h.writeError(w, &domain.NotFoundError{Entity: "holding", ID: id})
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"holding": holding,
	}))
}

// UpdateRequest represents a request to update a holding. Type and currency
// are intentionally absent; they are fixed at creation.
type UpdateRequest struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Dormant  bool   `json:"dormant"`
}

// HandleUpdateHolding handles PUT /api/holdings/{id}
func (h *Handler) HandleUpdateHolding(w http.ResponseWriter, r *http.Request, id string) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.service.Update(id, holdings.UpdateInput{
		Name:     req.Name,
		Symbol:   req.Symbol,
		Exchange: req.Exchange,
		Dormant:  req.Dormant,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"holding": updated,
	}))
}

// HandleDeleteHolding handles DELETE /api/holdings/{id}
func (h *Handler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Delete(id); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"id":      id,
		"deleted": true,
	}))
}

// HandleRestoreHolding handles POST /api/holdings/{id}/restore
func (h *Handler) HandleRestoreHolding(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Restore(id); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"id":       id,
		"restored": true,
	}))
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case domain.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Error().Err(err).Msg("Holdings request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
