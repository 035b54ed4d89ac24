// Package scheduler runs the background jobs: price and rate refresh, the
// nightly net worth snapshot, budget period rollover and database
// maintenance. Jobs are plain Run/Name pairs; the scheduler owns the cron
// wiring and publishes job lifecycle events for the dashboard.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aristath/steward/internal/events"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	bus  *events.Bus
	log  zerolog.Logger
}

// New creates a new scheduler
func New(bus *events.Bus, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		bus:  bus,
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@hourly"            - Every hour
//   - "0 15 0 * * *"       - 00:15 daily
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	start := time.Now()
	s.log.Debug().Str("job", job.Name()).Msg("Running job")
	s.publish(&events.JobStatusData{
		Timestamp: start,
		JobName:   job.Name(),
		Status:    "started",
	})

	err := job.Run()
	duration := time.Since(start).Seconds()

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Float64("duration_s", duration).
			Msg("Job failed")
		s.publish(&events.JobStatusData{
			Timestamp: time.Now(),
			JobName:   job.Name(),
			Status:    "failed",
			Error:     err.Error(),
			Duration:  duration,
		})
		return err
	}

	s.log.Debug().
		Str("job", job.Name()).
		Float64("duration_s", duration).
		Msg("Job completed")
	s.publish(&events.JobStatusData{
		Timestamp: time.Now(),
		JobName:   job.Name(),
		Status:    "completed",
		Duration:  duration,
	})
	return nil
}

func (s *Scheduler) publish(data *events.JobStatusData) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(data.EventType(), "scheduler", data)
}
