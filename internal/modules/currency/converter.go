// Package currency implements cross-rate conversion between the supported
// currencies. AUD is the pivot: every conversion routes through it using the
// two base pairs (USD/AUD, NZD/AUD), no direct cross tables are kept.
package currency

import (
	"github.com/aristath/steward/internal/domain"
	"github.com/shopspring/decimal"
)

// DisplayPlaces is the rounding applied to amounts leaving the engine.
// Internal chains keep full decimal precision; rounding to cents happens
// once, at the display boundary, to avoid compounding rounding error.
const DisplayPlaces = 2

// Convert converts an amount between currencies and rounds the result to
// 2 decimal places for display use.
//
// Same-currency conversions return the amount rounded, never
// rate-multiplied, so a no-op conversion cannot drift - and they succeed
// regardless of what rates are loaded. Anything else converts via the AUD
// pivot. A currency absent from rates fails with MissingRateError; callers
// must not substitute 1.0.
func Convert(amount decimal.Decimal, from, to domain.Currency, rates domain.RateSet) (decimal.Decimal, error) {
	result, err := ConvertRaw(amount, from, to, rates)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return result.Round(DisplayPlaces), nil
}

// ConvertRaw converts without display rounding, for internal accounting
// chains that need to preserve precision across repeated conversions.
func ConvertRaw(amount decimal.Decimal, from, to domain.Currency, rates domain.RateSet) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	fromRate, err := rates.AUDRate(from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	toRate, err := rates.AUDRate(to)
	if err != nil {
		return decimal.Decimal{}, err
	}

	// from -> AUD -> to
	aud := amount.Mul(fromRate)
	return aud.Div(toRate), nil
}

// ToAUD converts an amount into the aggregation currency without display
// rounding. It is the form the net worth aggregator sums over.
func ToAUD(amount decimal.Decimal, from domain.Currency, rates domain.RateSet) (decimal.Decimal, error) {
	return ConvertRaw(amount, from, domain.CurrencyAUD, rates)
}
