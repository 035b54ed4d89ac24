package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/steward/internal/domain"
)

// PeriodEnsurer creates the budget period covering a date if it is missing
type PeriodEnsurer interface {
	EnsurePeriodForDate(date time.Time) (*domain.BudgetPeriod, error)
}

// EnsureBudgetPeriodJob rolls the budget forward: on the first run after a
// payday the new period appears without anyone opening the dashboard.
type EnsureBudgetPeriodJob struct {
	budget PeriodEnsurer
	log    zerolog.Logger
}

// NewEnsureBudgetPeriodJob creates a new budget period rollover job
func NewEnsureBudgetPeriodJob(budget PeriodEnsurer, log zerolog.Logger) *EnsureBudgetPeriodJob {
	return &EnsureBudgetPeriodJob{
		budget: budget,
		log:    log.With().Str("job", "ensure_budget_period").Logger(),
	}
}

// Name returns the job name
func (j *EnsureBudgetPeriodJob) Name() string {
	return "ensure_budget_period"
}

// Run ensures today's budget period exists
func (j *EnsureBudgetPeriodJob) Run() error {
	period, err := j.budget.EnsurePeriodForDate(time.Now().UTC())
	if err != nil {
		return err
	}

	j.log.Debug().
		Int64("period_id", period.ID).
		Str("start", period.StartDate.Format("2006-01-02")).
		Msg("Budget period ensured")

	return nil
}
