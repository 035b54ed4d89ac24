package budget

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/events"
	"github.com/rs/zerolog"
)

// SettingsProvider supplies the configured settings the budget module needs
type SettingsProvider interface {
	Get(key string) (interface{}, error)
}

// Service handles period lifecycle and budget transaction recording
type Service struct {
	repo     *Repository
	settings SettingsProvider
	bus      *events.Bus
	log      zerolog.Logger
}

// NewService creates a new budget service
func NewService(repo *Repository, settings SettingsProvider, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		settings: settings,
		bus:      bus,
		log:      log.With().Str("service", "budget").Logger(),
	}
}

// EnsurePeriodForDate returns the stored period containing the date,
// creating it first if necessary. Idempotent; concurrent callers converge on
// the same row. New periods seed their expected income from settings.
func (s *Service) EnsurePeriodForDate(date time.Time) (*domain.BudgetPeriod, error) {
	period := PeriodForDate(date)
	period.ExpectedIncomeCents = s.expectedIncomeCents()

	stored, created, err := s.repo.EnsurePeriod(period)
	if err != nil {
		return nil, err
	}

	if created && s.bus != nil {
		data := &events.BudgetPeriodCreatedData{
			ID:        stored.ID,
			StartDate: stored.StartDate.Format(dateLayout),
			EndDate:   stored.EndDate.Format(dateLayout),
		}
		s.bus.Publish(data.EventType(), "budget", data)
	}

	return &stored, nil
}

// CurrentPeriod returns the period containing today, creating it if needed
func (s *Service) CurrentPeriod() (*domain.BudgetPeriod, error) {
	return s.EnsurePeriodForDate(time.Now().UTC())
}

// ListPeriods returns stored periods, newest first
func (s *Service) ListPeriods(limit int) ([]domain.BudgetPeriod, error) {
	return s.repo.ListPeriods(limit)
}

// RecordTransaction validates and stores a budget transaction. The owning
// period is derived from the transaction date and created on demand, so a
// backdated entry lands in the period that contained its date.
func (s *Service) RecordTransaction(tx domain.BudgetTransaction) (*domain.BudgetTransaction, error) {
	if tx.Date.IsZero() {
		return nil, &domain.ValidationError{Field: "date", Message: "is required"}
	}
	if tx.AmountCents == 0 {
		return nil, &domain.ValidationError{Field: "amount_cents", Message: "must not be zero"}
	}

	period, err := s.EnsurePeriodForDate(tx.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve budget period: %w", err)
	}
	tx.PeriodID = period.ID

	created, err := s.repo.CreateTransaction(tx)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// ListTransactions returns a period's live transactions, date ascending
func (s *Service) ListTransactions(periodID int64) ([]domain.BudgetTransaction, error) {
	return s.repo.ListTransactionsByPeriod(periodID)
}

// DeleteTransaction soft-deletes a budget transaction
func (s *Service) DeleteTransaction(id int64) error {
	return s.repo.SetTransactionDeleted(id, true)
}

// SaverPace is one saver's spend within the current period
type SaverPace struct {
	SaverKey   string `json:"saver_key"`
	SpentCents int64  `json:"spent_cents"`
}

// PaceReport compares actual spending against the straight-line expectation
// for the elapsed part of the period. This is a visualization feed; anomaly
// detection uses per-category historical baselines instead.
type PaceReport struct {
	Period              domain.BudgetPeriod `json:"period"`
	ElapsedFraction     float64             `json:"elapsed_fraction"`
	ExpectedIncomeCents int64               `json:"expected_income_cents"`
	ExpectedToDateCents int64               `json:"expected_to_date_cents"`
	SpentCents          int64               `json:"spent_cents"`
	IncomeCents         int64               `json:"income_cents"`
	Savers              []SaverPace         `json:"savers"`
}

// Pace builds the spending-pace report for the period containing now
func (s *Service) Pace(now time.Time) (*PaceReport, error) {
	period, err := s.EnsurePeriodForDate(now)
	if err != nil {
		return nil, err
	}

	txs, err := s.repo.ListTransactionsByPeriod(period.ID)
	if err != nil {
		return nil, err
	}

	report := &PaceReport{
		Period:              *period,
		ElapsedFraction:     ElapsedFraction(*period, now),
		ExpectedIncomeCents: period.ExpectedIncomeCents,
	}
	report.ExpectedToDateCents = int64(float64(period.ExpectedIncomeCents) * report.ElapsedFraction)

	bySaver := make(map[string]int64)
	for _, tx := range txs {
		if tx.IsSpend() {
			report.SpentCents += tx.SpendCents()
			bySaver[tx.SaverKey] += tx.SpendCents()
		} else {
			report.IncomeCents += tx.AmountCents
		}
	}

	report.Savers = make([]SaverPace, 0, len(bySaver))
	for saver, spent := range bySaver {
		report.Savers = append(report.Savers, SaverPace{SaverKey: saver, SpentCents: spent})
	}
	sort.Slice(report.Savers, func(i, j int) bool {
		return report.Savers[i].SaverKey < report.Savers[j].SaverKey
	})

	return report, nil
}

func (s *Service) expectedIncomeCents() int64 {
	if s.settings == nil {
		return 0
	}
	val, err := s.settings.Get("expected_income_cents")
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read expected income setting")
		return 0
	}
	if f, ok := val.(float64); ok {
		return int64(f)
	}
	return 0
}
