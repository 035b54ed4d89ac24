// Package handlers provides HTTP handlers for budget periods and transactions.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/modules/budget"
	"github.com/rs/zerolog"
)

// Handler handles budget HTTP requests
type Handler struct {
	service *budget.Service
	log     zerolog.Logger
}

// NewHandler creates a new budget handler
func NewHandler(service *budget.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "budget").Logger(),
	}
}

// HandleListPeriods handles GET /api/budget/periods
func (h *Handler) HandleListPeriods(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	periods, err := h.service.ListPeriods(limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if periods == nil {
		periods = []domain.BudgetPeriod{}
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"periods": periods,
		"count":   len(periods),
	}))
}

// HandleCurrentPeriod handles GET /api/budget/periods/current
func (h *Handler) HandleCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.service.CurrentPeriod()
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"period": period,
	}))
}

// EnsureRequest asks for the period containing a date
type EnsureRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, defaults to today
}

// HandleEnsurePeriod handles POST /api/budget/periods/ensure
func (h *Handler) HandleEnsurePeriod(w http.ResponseWriter, r *http.Request) {
	var req EnsureRequest
	// Empty body means "today"
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	period, err := h.service.EnsurePeriodForDate(date)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"period": period,
	}))
}

// TransactionRequest represents a request to record a budget transaction
type TransactionRequest struct {
	Date        string `json:"date"` // YYYY-MM-DD
	AmountCents int64  `json:"amount_cents"`
	SaverKey    string `json:"saver_key"`
	CategoryKey string `json:"category_key"`
	Description string `json:"description"`
}

// HandleCreateTransaction handles POST /api/budget/transactions
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	created, err := h.service.RecordTransaction(domain.BudgetTransaction{
		Date:        date,
		AmountCents: req.AmountCents,
		SaverKey:    req.SaverKey,
		CategoryKey: req.CategoryKey,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(map[string]interface{}{
		"transaction": created,
	}))
}

// HandleListTransactions handles GET /api/budget/transactions?period_id=...
// Without period_id it lists the current period's transactions.
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	var periodID int64
	if idStr := r.URL.Query().Get("period_id"); idStr != "" {
		parsed, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid period_id", http.StatusBadRequest)
			return
		}
		periodID = parsed
	} else {
		period, err := h.service.CurrentPeriod()
		if err != nil {
			h.writeError(w, err)
			return
		}
		periodID = period.ID
	}

	txs, err := h.service.ListTransactions(periodID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if txs == nil {
		txs = []domain.BudgetTransaction{}
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"period_id":    periodID,
		"transactions": txs,
		"count":        len(txs),
	}))
}

// HandleDeleteTransaction handles DELETE /api/budget/transactions/{id}
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request, idParam string) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteTransaction(id); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"id":      id,
		"deleted": true,
	}))
}

// HandleGetPace handles GET /api/budget/pace
func (h *Handler) HandleGetPace(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Pace(time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"pace": report,
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
		h.log.Error().Err(err).Msg("Budget request failed")
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
