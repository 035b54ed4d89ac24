// Package handlers provides HTTP handlers for ledger operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/modules/ledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles ledger HTTP requests
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// TransactionRequest represents a request to record a transaction.
// Quantity, unit price and fees accept JSON numbers or strings; strings
// preserve full decimal precision.
type TransactionRequest struct {
	HoldingID string          `json:"holding_id"`
	Action    string          `json:"action"`
	Date      string          `json:"date"` // YYYY-MM-DD
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Fees      decimal.Decimal `json:"fees"`
	Currency  string          `json:"currency"`
}

// HandleCreateTransaction handles POST /api/ledger/transactions
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

	created, err := h.service.Append(domain.Transaction{
		HoldingID: req.HoldingID,
		Action:    domain.TransactionAction(req.Action),
		Date:      date,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Fees:      req.Fees,
		Currency:  domain.Currency(req.Currency),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(map[string]interface{}{
		"transaction": created,
	}))
}

// HandleListTransactions handles GET /api/ledger/transactions.
// With holding_id it returns that holding's full history in replay order;
// without it, the most recent transactions across all holdings.
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	holdingID := r.URL.Query().Get("holding_id")

	var txs []domain.Transaction
	var err error
	if holdingID != "" {
		txs, err = h.service.List(holdingID)
	} else {
		limit := 0
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			if parsed, perr := strconv.Atoi(limitStr); perr == nil {
				limit = parsed
			}
		}
		txs, err = h.service.Recent(limit)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	if txs == nil {
		txs = []domain.Transaction{}
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	}))
}

// HandleDeleteTransaction handles DELETE /api/ledger/transactions/{id}
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request, idParam string) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
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

// HandleRestoreTransaction handles POST /api/ledger/transactions/{id}/restore
func (h *Handler) HandleRestoreTransaction(w http.ResponseWriter, r *http.Request, idParam string) {
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
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

// HandleGetCostBasis handles GET /api/ledger/holdings/{holdingID}/costbasis
func (h *Handler) HandleGetCostBasis(w http.ResponseWriter, r *http.Request, holdingID string) {
	pos, err := h.service.Position(holdingID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"holding_id": holdingID,
		"position":   pos,
	}))
}

// HandleGetSummary handles GET /api/ledger/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"counts": summary,
	}))
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var insufficientErr *domain.InsufficientQuantityError
	switch {
	case domain.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case domain.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &insufficientErr):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.log.Error().Err(err).Msg("Ledger request failed")
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
