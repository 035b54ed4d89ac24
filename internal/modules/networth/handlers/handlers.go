// Package handlers provides HTTP handlers for the net worth dashboard.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/modules/networth"
	"github.com/rs/zerolog"
)

// Handler handles net worth HTTP requests
type Handler struct {
	service *networth.Service
	log     zerolog.Logger
}

// NewHandler creates a new net worth handler
func NewHandler(service *networth.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "networth").Logger(),
	}
}

// HandleGetNetWorth handles GET /api/networth.
// The optional ?currency= query re-expresses the headline totals; the
// breakdown itself is always AUD.
func (h *Handler) HandleGetNetWorth(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Calculate()
	if err != nil {
		h.writeError(w, err)
		return
	}

	var display domain.Currency
	if cur := r.URL.Query().Get("currency"); cur != "" {
		parsed, err := domain.ParseCurrency(cur)
		if err != nil {
			h.writeError(w, err)
			return
		}
		display = parsed
	}

	totals, err := h.service.Display(result, display)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"networth": result,
		"display":  totals,
	}))
}

// writeError maps domain errors to HTTP status codes. A missing exchange
// rate means the backing rate feed is unavailable, not a bad request.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var missingRate *domain.MissingRateError
	switch {
	case domain.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &missingRate):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.log.Error().Err(err).Msg("Net worth request failed")
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
