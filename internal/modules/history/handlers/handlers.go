// Package handlers provides HTTP handlers for historical chart data.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/modules/history"
)

// Handler handles historical data HTTP requests
type Handler struct {
	service   *history.Service
	historyDB *history.HistoryDB
	log       zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(service *history.Service, historyDB *history.HistoryDB, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		historyDB: historyDB,
		log:       log.With().Str("handler", "history").Logger(),
	}
}

// HandleGetNetWorthHistory handles GET /api/networth/history
func (h *Handler) HandleGetNetWorthHistory(w http.ResponseWriter, r *http.Request) {
	rangeStr := r.URL.Query().Get("range")

	points, err := h.service.NetWorthChart(rangeStr)
	if err != nil {
		h.writeError(w, err, "Failed to load net worth history")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"points": points,
		"count":  len(points),
	}))
}

// HandleGetNetWorthOn handles GET /api/networth/history/{date} — one day's
// persisted snapshot with its per-holding breakdown.
func (h *Handler) HandleGetNetWorthOn(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(w, &domain.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}, "Invalid date")
		return
	}

	entry, err := h.historyDB.NetWorthOn(date)
	if err != nil {
		h.writeError(w, err, "Failed to load net worth entry")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"entry": entry,
	}))
}

// HandleGetSparklines handles GET /api/charts/sparklines?period=1Y|5Y
func (h *Handler) HandleGetSparklines(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1Y"
	}

	sparklines, err := h.service.Sparklines(period)
	if err != nil {
		h.writeError(w, err, "Failed to build sparklines")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"sparklines": sparklines,
		"period":     period,
	}))
}

// HandleGetPriceSeries handles GET /api/history/prices/{symbol}
func (h *Handler) HandleGetPriceSeries(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	points, err := h.historyDB.PriceSeries(symbol, limit)
	if err != nil {
		h.writeError(w, err, "Failed to load price history")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol": symbol,
		"prices": points,
		"count":  len(points),
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

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case domain.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case domain.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Error().Err(err).Msg(msg)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
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
