// Package reliability provides database backups: local VACUUM INTO copies
// with integrity verification and rotation, plus compressed archives pushed
// to S3-compatible object storage (Cloudflare R2).
package reliability

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/aristath/steward/internal/database"
)

// BackupService manages local database backups
type BackupService struct {
	databases map[string]*database.DB
	backupDir string
	log       zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(databases map[string]*database.DB, backupDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases: databases,
		backupDir: backupDir,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// GetDatabaseNames returns the registered database names, sorted. The cache
// database is ephemeral quote data and excluded unless asked for.
func (s *BackupService) GetDatabaseNames(includeCache bool) []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		if name == "cache" && !includeCache {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DailyBackup backs up every database except cache into a dated directory
// and rotates directories older than retentionDays. One failing database is
// logged and skipped; the others still get backed up.
func (s *BackupService) DailyBackup(retentionDays int) error {
	s.log.Info().Msg("Starting daily backup")
	startTime := time.Now()

	date := time.Now().Format("2006-01-02")
	dailyDir := filepath.Join(s.backupDir, "daily", date)
	if err := os.MkdirAll(dailyDir, 0755); err != nil {
		return fmt.Errorf("failed to create daily backup directory: %w", err)
	}

	for _, dbName := range s.GetDatabaseNames(false) {
		backupPath := filepath.Join(dailyDir, dbName+".db")

		if err := s.BackupDatabase(dbName, backupPath); err != nil {
			s.log.Error().
				Err(err).
				Str("database", dbName).
				Msg("Failed to backup database")
			continue
		}

		if err := s.verifyBackup(backupPath); err != nil {
			s.log.Error().
				Err(err).
				Str("database", dbName).
				Msg("Backup verification failed")
			os.Remove(backupPath)
		}
	}

	if err := s.rotateDailyBackups(retentionDays); err != nil {
		s.log.Error().Err(err).Msg("Failed to rotate daily backups")
		// Backups succeeded, rotation can wait for tomorrow
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("backup_dir", dailyDir).
		Msg("Daily backup completed")

	return nil
}

// BackupDatabase copies one database to backupPath using VACUUM INTO, which
// produces an atomic, WAL-free, compacted copy.
func (s *BackupService) BackupDatabase(dbName, backupPath string) error {
	db, ok := s.databases[dbName]
	if !ok {
		return fmt.Errorf("database %s not found", dbName)
	}

	// VACUUM INTO refuses to overwrite
	if _, err := os.Stat(backupPath); err == nil {
		if err := os.Remove(backupPath); err != nil {
			return fmt.Errorf("failed to remove stale backup: %w", err)
		}
	}

	if _, err := db.Conn().Exec(fmt.Sprintf("VACUUM INTO '%s'", backupPath)); err != nil {
		return fmt.Errorf("VACUUM INTO failed for %s: %w", dbName, err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return fmt.Errorf("failed to stat backup: %w", err)
	}

	s.log.Debug().
		Str("database", dbName).
		Float64("size_mb", float64(info.Size())/1024/1024).
		Msg("Backup created")

	return nil
}

// verifyBackup opens the backup copy and runs an integrity check
func (s *BackupService) verifyBackup(backupPath string) error {
	backupDB, err := sql.Open("sqlite", backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer backupDB.Close()

	var result string
	if err := backupDB.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// rotateDailyBackups deletes dated backup directories older than the
// retention period. retentionDays <= 0 keeps everything.
func (s *BackupService) rotateDailyBackups(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}

	dailyRoot := filepath.Join(s.backupDir, "daily")
	entries, err := os.ReadDir(dailyRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read daily backup directory: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays).Format("2006-01-02")
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Directory names are YYYY-MM-DD, so string order is date order
		if entry.Name() < cutoff {
			path := filepath.Join(dailyRoot, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				s.log.Warn().Err(err).Str("path", path).Msg("Failed to delete old backup")
				continue
			}
			s.log.Debug().Str("path", path).Msg("Deleted old backup")
		}
	}

	return nil
}
