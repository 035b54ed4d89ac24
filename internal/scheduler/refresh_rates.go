package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/events"
)

// RateRefresher loads the current exchange rates, hitting the network when
// the cached set has expired
type RateRefresher interface {
	CurrentRates() (domain.RateSet, error)
}

// RefreshRatesJob keeps the exchange rate cache warm so conversions never
// wait on the network
type RefreshRatesJob struct {
	rates RateRefresher
	bus   *events.Bus
	log   zerolog.Logger
}

// NewRefreshRatesJob creates a new rate refresh job
func NewRefreshRatesJob(rates RateRefresher, bus *events.Bus, log zerolog.Logger) *RefreshRatesJob {
	return &RefreshRatesJob{
		rates: rates,
		bus:   bus,
		log:   log.With().Str("job", "refresh_rates").Logger(),
	}
}

// Name returns the job name
func (j *RefreshRatesJob) Name() string {
	return "refresh_rates"
}

// Run refreshes the exchange rate set
func (j *RefreshRatesJob) Run() error {
	rates, err := j.rates.CurrentRates()
	if err != nil {
		return err
	}

	if j.bus != nil {
		data := &events.RatesUpdatedData{Pairs: len(rates)}
		j.bus.Publish(data.EventType(), "scheduler", data)
	}

	j.log.Info().Int("pairs", len(rates)).Msg("Exchange rates refreshed")
	return nil
}
