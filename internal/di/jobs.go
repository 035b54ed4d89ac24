// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"
	"sort"

	"github.com/aristath/steward/internal/clientdata"
	"github.com/aristath/steward/internal/config"
	"github.com/aristath/steward/internal/reliability"
	"github.com/aristath/steward/internal/scheduler"
	"github.com/rs/zerolog"
)

// JobInstances holds the scheduler and every registered job, so the system
// handlers can trigger jobs manually by name.
type JobInstances struct {
	Scheduler *scheduler.Scheduler

	byName map[string]scheduler.Job
}

// Get returns a registered job by name
func (j *JobInstances) Get(name string) (scheduler.Job, bool) {
	job, ok := j.byName[name]
	return job, ok
}

// Names returns the registered job names, sorted
func (j *JobInstances) Names() []string {
	names := make([]string, 0, len(j.byName))
	for name := range j.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunByName triggers a job immediately, outside its schedule
func (j *JobInstances) RunByName(name string) error {
	job, ok := j.byName[name]
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}
	return j.Scheduler.RunNow(job)
}

// RegisterJobs creates all scheduled jobs and registers them with the cron
// scheduler. The scheduler is not started here; main starts it once the
// HTTP server is up.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{
		Scheduler: scheduler.New(container.EventBus, log),
		byName:    make(map[string]scheduler.Job),
	}

	add := func(schedule string, job scheduler.Job) error {
		if err := instances.Scheduler.AddJob(schedule, job); err != nil {
			return fmt.Errorf("failed to register %s: %w", job.Name(), err)
		}
		instances.byName[job.Name()] = job
		return nil
	}

	// Price refresh - every 5 minutes, skips dormant holdings
	refreshPrices := scheduler.NewRefreshPricesJob(scheduler.RefreshPricesConfig{
		Holdings: container.HoldingsRepo,
		Quotes:   container.YahooClient,
		History:  container.HistoryDB,
		Bus:      container.EventBus,
		Log:      log,
	})
	if err := add("0 */5 * * * *", refreshPrices); err != nil {
		return nil, err
	}

	// Exchange rate refresh - hourly
	refreshRates := scheduler.NewRefreshRatesJob(container.ExchangeRateClient, container.EventBus, log)
	if err := add("0 0 * * * *", refreshRates); err != nil {
		return nil, err
	}

	// Budget period rollover - daily 00:05, before the snapshot
	ensurePeriod := scheduler.NewEnsureBudgetPeriodJob(container.BudgetService, log)
	if err := add("0 5 0 * * *", ensurePeriod); err != nil {
		return nil, err
	}

	// Net worth snapshot - nightly 00:15
	snapshot := scheduler.NewNetWorthSnapshotJob(container.NetWorthService, container.HistoryDB, log)
	if err := add("0 15 0 * * *", snapshot); err != nil {
		return nil, err
	}

	// Expired cache cleanup - daily 00:30
	cleanup := clientdata.NewCleanupJob(container.ClientDataRepo, log)
	if err := add("0 30 0 * * *", cleanup); err != nil {
		return nil, err
	}

	// WAL checkpoint - daily 02:30, keeps WAL files bounded
	walCheckpoint := scheduler.NewWALCheckpointJob(container.Databases(), log)
	if err := add("0 30 2 * * *", walCheckpoint); err != nil {
		return nil, err
	}

	// Local backup - daily 03:00
	retentionDays := 0
	if cfg.Backup != nil {
		retentionDays = cfg.Backup.RetentionDays
	}
	localBackup := reliability.NewLocalBackupJob(container.BackupService, retentionDays, log)
	if err := add("0 0 3 * * *", localBackup); err != nil {
		return nil, err
	}

	// Cloud backups - only when R2 is configured
	if container.R2BackupService != nil {
		r2Backup := reliability.NewR2BackupJob(container.R2BackupService, log)
		if err := add("0 5 3 * * *", r2Backup); err != nil {
			return nil, err
		}

		r2Rotation := reliability.NewR2BackupRotationJob(container.R2BackupService, retentionDays, log)
		if err := add("0 30 3 * * *", r2Rotation); err != nil {
			return nil, err
		}
	}

	log.Info().Int("jobs", len(instances.byName)).Msg("Scheduled jobs registered")

	return instances, nil
}
