package currency

import (
	"github.com/aristath/steward/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Service wraps the pure converter with a rate source so callers can
// convert without threading a RateSet through every call. Rates come from
// the hourly-refreshed cache; the service itself performs no writes.
type Service struct {
	rates domain.RateSource
	log   zerolog.Logger
}

// NewService creates a new currency service
func NewService(rates domain.RateSource, log zerolog.Logger) *Service {
	return &Service{
		rates: rates,
		log:   log.With().Str("service", "currency").Logger(),
	}
}

// Rates returns the current base rate set ("USD/AUD", "NZD/AUD")
func (s *Service) Rates() (domain.RateSet, error) {
	return s.rates.CurrentRates()
}

// Convert converts an amount between currencies, rounded for display
func (s *Service) Convert(amount decimal.Decimal, from, to domain.Currency) (decimal.Decimal, error) {
	rates, err := s.loadRates(from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return Convert(amount, from, to, rates)
}

// ToAUD converts an amount into the aggregation currency at full precision
func (s *Service) ToAUD(amount decimal.Decimal, from domain.Currency) (decimal.Decimal, error) {
	rates, err := s.loadRates(from, domain.CurrencyAUD)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return ToAUD(amount, from, rates)
}

// loadRates fetches current rates, except for same-currency conversions
// which must succeed with no rates loaded at all.
func (s *Service) loadRates(from, to domain.Currency) (domain.RateSet, error) {
	if from == to {
		return domain.RateSet{}, nil
	}

	rates, err := s.rates.CurrentRates()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load exchange rates")
		return nil, err
	}
	return rates, nil
}
