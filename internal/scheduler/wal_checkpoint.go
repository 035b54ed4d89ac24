package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/steward/internal/database"
)

// WALCheckpointJob forces a TRUNCATE checkpoint on every database so WAL
// files never grow unbounded on a box that is rarely restarted
type WALCheckpointJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a new WAL checkpoint job
func NewWALCheckpointJob(databases map[string]*database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checkpoints every registered database. A failing database is logged
// and skipped; the others still get their checkpoint.
func (j *WALCheckpointJob) Run() error {
	for name, db := range j.databases {
		if db == nil {
			continue
		}

		var busy, logPages, checkpointed int
		row := db.QueryRow("PRAGMA wal_checkpoint(TRUNCATE)")
		if err := row.Scan(&busy, &logPages, &checkpointed); err != nil {
			j.log.Warn().
				Err(err).
				Str("database", name).
				Msg("WAL checkpoint failed")
			continue
		}

		j.log.Debug().
			Str("database", name).
			Int("busy", busy).
			Int("log_pages", logPages).
			Int("checkpointed", checkpointed).
			Msg("WAL checkpoint complete")
	}

	return nil
}
