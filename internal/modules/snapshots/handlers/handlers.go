// Package handlers provides HTTP handlers for balance snapshots.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/modules/snapshots"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	service *snapshots.Service
	log     zerolog.Logger
}

// NewHandler creates a new snapshots handler
func NewHandler(service *snapshots.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "snapshots").Logger(),
	}
}

// SnapshotRequest represents a request to record a balance snapshot.
// Balance accepts a JSON number or string; strings preserve precision.
type SnapshotRequest struct {
	HoldingID string          `json:"holding_id"`
	Month     string          `json:"month"` // YYYY-MM-DD, any day of the month
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
}

// HandleRecordSnapshot handles POST /api/snapshots
func (h *Handler) HandleRecordSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	month, err := time.ParseInLocation("2006-01-02", req.Month, time.UTC)
	if err != nil {
		http.Error(w, "month must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	recorded, err := h.service.Record(domain.Snapshot{
		HoldingID: req.HoldingID,
		Month:     month,
		Balance:   req.Balance,
		Currency:  domain.Currency(req.Currency),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(map[string]interface{}{
		"snapshot": recorded,
	}))
}

// HandleListSnapshots handles GET /api/snapshots?holding_id=...
func (h *Handler) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	holdingID := r.URL.Query().Get("holding_id")
	if holdingID == "" {
		http.Error(w, "holding_id is required", http.StatusBadRequest)
		return
	}

	snaps, err := h.service.List(holdingID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if snaps == nil {
		snaps = []domain.Snapshot{}
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"snapshots": snaps,
		"count":     len(snaps),
	}))
}

// HandleDeleteSnapshot handles DELETE /api/snapshots/{id}
func (h *Handler) HandleDeleteSnapshot(w http.ResponseWriter, r *http.Request, idParam string) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		http.Error(w, "Invalid snapshot ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(id); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"id":      id,
		"deleted": true,
	}))
}

// HandleRestoreSnapshot handles POST /api/snapshots/{id}/restore
func (h *Handler) HandleRestoreSnapshot(w http.ResponseWriter, r *http.Request, idParam string) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		http.Error(w, "Invalid snapshot ID", http.StatusBadRequest)
		return
	}

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
		h.log.Error().Err(err).Msg("Snapshots request failed")
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
