package networth

import (
	"errors"
	"fmt"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/events"
	"github.com/aristath/steward/internal/modules/currency"
	"github.com/aristath/steward/internal/modules/ledger"
	"github.com/aristath/steward/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// HoldingLister supplies the holdings to aggregate
type HoldingLister interface {
	ListActive() ([]domain.Holding, error)
}

// PositionSource replays a holding's ledger into its current position
type PositionSource interface {
	Position(holdingID string) (ledger.Position, error)
}

// SnapshotSource supplies the carry-forward balance lookup
type SnapshotSource interface {
	LatestOnOrBefore(holdingID string, date time.Time) (*domain.Snapshot, error)
}

// PeriodSource supplies the current budget period, used as the default
// snapshot staleness window.
type PeriodSource interface {
	EnsurePeriodForDate(date time.Time) (*domain.BudgetPeriod, error)
}

// SettingsProvider supplies configured settings
type SettingsProvider interface {
	Get(key string) (interface{}, error)
}

// Service assembles the aggregation input from the repositories and runs
// the calculation
type Service struct {
	holdings  HoldingLister
	positions PositionSource
	snapshots SnapshotSource
	prices    domain.PriceSource
	rates     domain.RateSource
	periods   PeriodSource
	settings  SettingsProvider
	bus       *events.Bus
	priceTTL  time.Duration
	log       zerolog.Logger
}

// NewService creates a new net worth service
func NewService(
	holdings HoldingLister,
	positions PositionSource,
	snapshots SnapshotSource,
	prices domain.PriceSource,
	rates domain.RateSource,
	periods PeriodSource,
	settings SettingsProvider,
	bus *events.Bus,
	priceTTL time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		holdings:  holdings,
		positions: positions,
		snapshots: snapshots,
		prices:    prices,
		rates:     rates,
		periods:   periods,
		settings:  settings,
		bus:       bus,
		priceTTL:  priceTTL,
		log:       log.With().Str("service", "networth").Logger(),
	}
}

// Calculate loads every active holding's pricing data and aggregates it.
// Read-only; the nightly history snapshot is a separate job.
func (s *Service) Calculate() (*Result, error) {
	defer utils.OperationTimer("networth_calculate", s.log)()

	now := time.Now().UTC()

	holdings, err := s.holdings.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	rates, err := s.rates.CurrentRates()
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange rates: %w", err)
	}

	inputs := make([]HoldingInput, 0, len(holdings))
	for _, h := range holdings {
		hi := HoldingInput{Holding: h}

		if h.Type.IsTradeable() {
			pos, err := s.positions.Position(h.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to replay ledger for %s: %w", h.ID, err)
			}
			hi.Position = &pos

			quote, err := s.prices.CachedQuote(h.Symbol)
			if err != nil && !errors.Is(err, domain.ErrNoData) {
				return nil, fmt.Errorf("failed to read cached quote for %s: %w", h.Symbol, err)
			}
			hi.Quote = quote
		} else {
			snap, err := s.snapshots.LatestOnOrBefore(h.ID, now)
			if err != nil {
				return nil, fmt.Errorf("failed to load snapshot for %s: %w", h.ID, err)
			}
			hi.Snapshot = snap
		}

		inputs = append(inputs, hi)
	}

	staleAnchor, staleAfter := s.snapshotStaleness(now)
	result, err := Calculate(Input{
		Holdings:            inputs,
		Rates:               rates,
		Now:                 now,
		PriceTTL:            s.priceTTL,
		SnapshotStaleAfter:  staleAfter,
		SnapshotStaleAnchor: staleAnchor,
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		netWorth, _ := result.NetWorth.Float64()
		assets, _ := result.TotalAssets.Float64()
		debt, _ := result.TotalDebt.Float64()
		data := &events.NetWorthCalculatedData{
			NetWorth:     netWorth,
			TotalAssets:  assets,
			TotalDebt:    debt,
			HasStaleData: result.HasStaleData,
		}
		s.bus.Publish(data.EventType(), "networth", data)
	}

	return result, nil
}

// DisplayTotals re-expresses the headline AUD figures in another currency.
// The breakdown stays AUD; only the totals move.
type DisplayTotals struct {
	Currency    domain.Currency `json:"currency"`
	NetWorth    decimal.Decimal `json:"net_worth"`
	TotalAssets decimal.Decimal `json:"total_assets"`
	TotalDebt   decimal.Decimal `json:"total_debt"`
}

// Display converts a result's totals into the requested currency. An empty
// currency falls back to the configured display currency.
func (s *Service) Display(result *Result, to domain.Currency) (*DisplayTotals, error) {
	if to == "" {
		to = s.displayCurrency()
	}

	rates := domain.RateSet{}
	if to != domain.CurrencyAUD {
		var err error
		rates, err = s.rates.CurrentRates()
		if err != nil {
			return nil, fmt.Errorf("failed to load exchange rates: %w", err)
		}
	}

	totals := &DisplayTotals{Currency: to}
	var err error
	if totals.NetWorth, err = currency.Convert(result.NetWorth, domain.CurrencyAUD, to, rates); err != nil {
		return nil, err
	}
	if totals.TotalAssets, err = currency.Convert(result.TotalAssets, domain.CurrencyAUD, to, rates); err != nil {
		return nil, err
	}
	if totals.TotalDebt, err = currency.Convert(result.TotalDebt, domain.CurrencyAUD, to, rates); err != nil {
		return nil, err
	}

	return totals, nil
}

// snapshotStaleness resolves how snapshot age is judged: staleness is
// measured from the current period's start, and the window is the
// configured day count or, when unset, one period length. A snapshot from
// last period therefore still reads fresh for the whole current period.
func (s *Service) snapshotStaleness(now time.Time) (time.Time, time.Duration) {
	anchor := now
	window := 31 * 24 * time.Hour // ~one pay cycle

	if s.periods != nil {
		if period, err := s.periods.EnsurePeriodForDate(now); err == nil {
			anchor = period.StartDate
			window = time.Duration(period.DayCount) * 24 * time.Hour
		}
	}

	if s.settings != nil {
		if val, err := s.settings.Get("snapshot_stale_after_days"); err == nil {
			if days, ok := val.(float64); ok && days > 0 {
				window = time.Duration(days) * 24 * time.Hour
			}
		}
	}

	return anchor, window
}

func (s *Service) displayCurrency() domain.Currency {
	if s.settings == nil {
		return domain.CurrencyAUD
	}
	val, err := s.settings.Get("display_currency")
	if err != nil {
		return domain.CurrencyAUD
	}
	if str, ok := val.(string); ok {
		if cur, err := domain.ParseCurrency(str); err == nil {
			return cur
		}
	}
	return domain.CurrencyAUD
}
