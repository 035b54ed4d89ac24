// Package handlers provides HTTP handlers for currency operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/modules/currency"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler handles currency HTTP requests
type Handler struct {
	service *currency.Service
	log     zerolog.Logger
}

// NewHandler creates a new currency handler
func NewHandler(service *currency.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "currency").Logger(),
	}
}

// ConvertRequest represents a request to convert an amount between currencies
type ConvertRequest struct {
	FromCurrency string  `json:"from_currency"`
	ToCurrency   string  `json:"to_currency"`
	Amount       float64 `json:"amount"`
}

// HandleGetRates handles GET /api/currency/rates
func (h *Handler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.Rates()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to load exchange rates")
		http.Error(w, "Exchange rates unavailable", http.StatusServiceUnavailable)
		return
	}

	rateData := make(map[string]float64, len(rates))
	for pair, rate := range rates {
		rateData[pair] = rate.InexactFloat64()
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"base":  domain.CurrencyAUD,
			"rates": rateData,
			"count": len(rateData),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleConvert handles POST /api/currency/convert
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	from, err := domain.ParseCurrency(req.FromCurrency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := domain.ParseCurrency(req.ToCurrency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Amount <= 0 {
		http.Error(w, "amount must be greater than 0", http.StatusBadRequest)
		return
	}

	// Same-currency conversion never needs rates; everything else does.
	var rates domain.RateSet
	if from != to {
		rates, err = h.service.Rates()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to load exchange rates")
			http.Error(w, "Exchange rates unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	amount := decimal.NewFromFloat(req.Amount)
	converted, err := currency.Convert(amount, from, to, rates)
	if err != nil {
		var missing *domain.MissingRateError
		if errors.As(err, &missing) {
			h.log.Warn().Err(err).Str("from", string(from)).Str("to", string(to)).Msg("Rate missing for conversion")
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.log.Error().Err(err).Msg("Conversion failed")
		http.Error(w, "Conversion failed", http.StatusInternalServerError)
		return
	}

	rate := decimal.NewFromInt(1)
	if from != to {
		// Effective per-unit rate, reported at full precision.
		rate, _ = currency.ConvertRaw(decimal.NewFromInt(1), from, to, rates)
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"from_currency": from,
			"to_currency":   to,
			"from_amount":   req.Amount,
			"to_amount":     converted.InexactFloat64(),
			"rate":          rate.InexactFloat64(),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetAvailableCurrencies handles GET /api/currency/available-currencies
func (h *Handler) HandleGetAvailableCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies := []map[string]interface{}{
		{"code": domain.CurrencyAUD, "name": "Australian Dollar", "symbol": "$"},
		{"code": domain.CurrencyNZD, "name": "New Zealand Dollar", "symbol": "NZ$"},
		{"code": domain.CurrencyUSD, "name": "US Dollar", "symbol": "US$"},
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"currencies": currencies,
			"count":      len(currencies),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
