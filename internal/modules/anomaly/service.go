package anomaly

import (
	"fmt"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/events"
	"github.com/aristath/steward/internal/modules/budget"
	"github.com/rs/zerolog"
)

// PeriodSource supplies the budget data the detector runs over
type PeriodSource interface {
	EnsurePeriodForDate(date time.Time) (*domain.BudgetPeriod, error)
	ListTransactions(periodID int64) ([]domain.BudgetTransaction, error)
}

// BaselineSource loads the prior periods and their transactions
type BaselineSource interface {
	ListPeriodsBefore(start time.Time, limit int) ([]domain.BudgetPeriod, error)
	ListTransactionsByPeriods(periodIDs []int64) ([]domain.BudgetTransaction, error)
}

// SettingsProvider supplies the detection thresholds
type SettingsProvider interface {
	Get(key string) (interface{}, error)
}

// Service runs detection over the current budget period
type Service struct {
	periods   PeriodSource
	baselines BaselineSource
	settings  SettingsProvider
	bus       *events.Bus
	log       zerolog.Logger
}

// NewService creates a new anomaly service
func NewService(periods PeriodSource, baselines BaselineSource, settings SettingsProvider, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		periods:   periods,
		baselines: baselines,
		settings:  settings,
		bus:       bus,
		log:       log.With().Str("service", "anomaly").Logger(),
	}
}

// Report is the detection result for one period
type Report struct {
	Period    domain.BudgetPeriod `json:"period"`
	Context   PeriodContext       `json:"context"`
	Anomalies []Anomaly           `json:"anomalies"`
}

// DetectCurrent runs detection over the period containing now
func (s *Service) DetectCurrent(now time.Time) (*Report, error) {
	period, err := s.periods.EnsurePeriodForDate(now)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current period: %w", err)
	}

	current, err := s.periods.ListTransactions(period.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current transactions: %w", err)
	}

	th := s.thresholds()

	prior, err := s.baselines.ListPeriodsBefore(period.StartDate, th.BaselinePeriods)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior periods: %w", err)
	}

	priorIDs := make([]int64, 0, len(prior))
	for _, p := range prior {
		priorIDs = append(priorIDs, p.ID)
	}
	priorTxs, err := s.baselines.ListTransactionsByPeriods(priorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior transactions: %w", err)
	}

	elapsed := budget.ElapsedFraction(*period, now)
	ctx := PeriodContext{
		ElapsedFraction: elapsed,
		TotalDays:       period.DayCount,
		DaysRemaining:   period.DayCount - int(elapsed*float64(period.DayCount)+0.5),
	}

	anomalies := Detect(current, BuildBaselines(prior, priorTxs), ctx, th)
	if anomalies == nil {
		anomalies = []Anomaly{}
	}

	if len(anomalies) > 0 && s.bus != nil {
		data := &events.AnomaliesDetectedData{Count: len(anomalies), PeriodID: period.ID}
		s.bus.Publish(data.EventType(), "anomaly", data)
	}

	return &Report{Period: *period, Context: ctx, Anomalies: anomalies}, nil
}

// thresholds loads the detection knobs from settings, falling back to the
// registered defaults when a read fails.
func (s *Service) thresholds() Thresholds {
	th := Thresholds{
		RunRateMultiplier: 1.5,
		LargeTxMultiplier: 3.0,
		MinProgressPct:    10,
		MinSpendCents:     5000,
		BaselinePeriods:   6,
	}
	if s.settings == nil {
		return th
	}

	if v, err := s.settings.Get("anomaly_runrate_multiplier"); err == nil {
		if f, ok := v.(float64); ok && f > 0 {
			th.RunRateMultiplier = f
		}
	}
	if v, err := s.settings.Get("anomaly_large_tx_multiplier"); err == nil {
		if f, ok := v.(float64); ok && f > 0 {
			th.LargeTxMultiplier = f
		}
	}
	if v, err := s.settings.Get("anomaly_min_progress_pct"); err == nil {
		if f, ok := v.(float64); ok && f >= 0 {
			th.MinProgressPct = f
		}
	}
	if v, err := s.settings.Get("anomaly_min_spend_cents"); err == nil {
		if f, ok := v.(float64); ok && f >= 0 {
			th.MinSpendCents = int64(f)
		}
	}
	if v, err := s.settings.Get("anomaly_baseline_periods"); err == nil {
		if f, ok := v.(float64); ok && f > 0 {
			th.BaselinePeriods = int(f)
		}
	}

	return th
}
