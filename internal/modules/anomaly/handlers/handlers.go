// Package handlers provides HTTP handlers for spending anomaly reports.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/steward/internal/modules/anomaly"
	"github.com/rs/zerolog"
)

// Handler handles anomaly HTTP requests
type Handler struct {
	service *anomaly.Service
	log     zerolog.Logger
}

// NewHandler creates a new anomaly handler
func NewHandler(service *anomaly.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "anomaly").Logger(),
	}
}

// HandleGetAnomalies handles GET /api/anomalies
func (h *Handler) HandleGetAnomalies(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.DetectCurrent(time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Msg("Anomaly detection failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"report": report,
	}))
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
