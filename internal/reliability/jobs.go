package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LocalBackupJob runs the daily local backup
type LocalBackupJob struct {
	service       *BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewLocalBackupJob creates a new local backup job
func NewLocalBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *LocalBackupJob {
	return &LocalBackupJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "local_backup").Logger(),
	}
}

// Name returns the job name
func (j *LocalBackupJob) Name() string { return "local_backup" }

// Run executes the daily local backup
func (j *LocalBackupJob) Run() error {
	return j.service.DailyBackup(j.retentionDays)
}

// R2BackupJob uploads a fresh archive to R2
type R2BackupJob struct {
	service *R2BackupService
	log     zerolog.Logger
}

// NewR2BackupJob creates a new cloud backup job
func NewR2BackupJob(service *R2BackupService, log zerolog.Logger) *R2BackupJob {
	return &R2BackupJob{
		service: service,
		log:     log.With().Str("job", "r2_backup").Logger(),
	}
}

// Name returns the job name
func (j *R2BackupJob) Name() string { return "r2_backup" }

// Run creates and uploads a backup archive
func (j *R2BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()
	return j.service.CreateAndUploadBackup(ctx)
}

// R2BackupRotationJob prunes old archives from R2
type R2BackupRotationJob struct {
	service       *R2BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewR2BackupRotationJob creates a new cloud backup rotation job
func NewR2BackupRotationJob(service *R2BackupService, retentionDays int, log zerolog.Logger) *R2BackupRotationJob {
	return &R2BackupRotationJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "r2_backup_rotation").Logger(),
	}
}

// Name returns the job name
func (j *R2BackupRotationJob) Name() string { return "r2_backup_rotation" }

// Run deletes archives past retention
func (j *R2BackupRotationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return j.service.RotateOldBackups(ctx, j.retentionDays)
}
