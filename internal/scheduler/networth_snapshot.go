package scheduler

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/steward/internal/modules/history"
	"github.com/aristath/steward/internal/modules/networth"
	"github.com/aristath/steward/internal/utils"
)

// NetWorthCalculator produces the aggregated net worth picture
type NetWorthCalculator interface {
	Calculate() (*networth.Result, error)
}

// NetWorthRecorder persists one day's net worth row
type NetWorthRecorder interface {
	RecordNetWorth(date time.Time, totalAUD decimal.Decimal, breakdown []history.BreakdownEntry) error
}

// NetWorthSnapshotJob persists the nightly net worth row that feeds the
// history chart. Runs after midnight so the row lands on the new day.
type NetWorthSnapshotJob struct {
	networth NetWorthCalculator
	history  NetWorthRecorder
	log      zerolog.Logger
}

// NewNetWorthSnapshotJob creates a new net worth snapshot job
func NewNetWorthSnapshotJob(calc NetWorthCalculator, recorder NetWorthRecorder, log zerolog.Logger) *NetWorthSnapshotJob {
	return &NetWorthSnapshotJob{
		networth: calc,
		history:  recorder,
		log:      log.With().Str("job", "networth_snapshot").Logger(),
	}
}

// Name returns the job name
func (j *NetWorthSnapshotJob) Name() string {
	return "networth_snapshot"
}

// Run calculates and persists today's net worth
func (j *NetWorthSnapshotJob) Run() error {
	timer := utils.NewTimer("networth_snapshot", j.log)
	defer timer.Stop()

	result, err := j.networth.Calculate()
	if err != nil {
		return err
	}

	var breakdown []history.BreakdownEntry
	for _, group := range result.Breakdown {
		for _, hv := range group.Holdings {
			breakdown = append(breakdown, history.BreakdownEntry{
				HoldingID: hv.HoldingID,
				Name:      hv.Name,
				Type:      string(hv.Type),
				ValueAUD:  hv.ValueAUD.String(),
			})
		}
	}

	if err := j.history.RecordNetWorth(time.Now().UTC(), result.NetWorth, breakdown); err != nil {
		return err
	}

	j.log.Info().
		Str("net_worth", result.NetWorth.String()).
		Bool("stale", result.HasStaleData).
		Msg("Net worth snapshot recorded")

	return nil
}
