package reliability

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aristath/steward/internal/database"
)

func testLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func setupDatabases(t *testing.T) (map[string]*database.DB, string) {
	t.Helper()
	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))

	databases := make(map[string]*database.DB)
	for _, name := range []string{"ledger", "budget", "cache"} {
		db, err := database.New(database.Config{
			Path:    filepath.Join(dataDir, name+".db"),
			Profile: database.ProfileStandard,
			Name:    name,
		})
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		databases[name] = db
	}

	// Seed the ledger with something worth backing up
	_, err := databases["ledger"].Conn().Exec("CREATE TABLE holdings (id TEXT PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	_, err = databases["ledger"].Conn().Exec("INSERT INTO holdings VALUES ('h1', 'Vanguard ETF'), ('h2', 'Mortgage')")
	require.NoError(t, err)

	return databases, tempDir
}

func TestGetDatabaseNamesExcludesCache(t *testing.T) {
	databases, _ := setupDatabases(t)
	s := NewBackupService(databases, t.TempDir(), testLog())

	assert.Equal(t, []string{"budget", "ledger"}, s.GetDatabaseNames(false))
	assert.Equal(t, []string{"budget", "cache", "ledger"}, s.GetDatabaseNames(true))
}

func TestBackupDatabaseProducesVerifiableCopy(t *testing.T) {
	databases, tempDir := setupDatabases(t)
	s := NewBackupService(databases, filepath.Join(tempDir, "backups"), testLog())

	backupPath := filepath.Join(tempDir, "ledger-copy.db")
	require.NoError(t, s.BackupDatabase("ledger", backupPath))

	copyDB, err := sql.Open("sqlite", backupPath)
	require.NoError(t, err)
	defer copyDB.Close()

	var integrity string
	require.NoError(t, copyDB.QueryRow("PRAGMA integrity_check").Scan(&integrity))
	assert.Equal(t, "ok", integrity)

	var count int
	require.NoError(t, copyDB.QueryRow("SELECT COUNT(*) FROM holdings").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestBackupDatabaseUnknownName(t *testing.T) {
	databases, tempDir := setupDatabases(t)
	s := NewBackupService(databases, filepath.Join(tempDir, "backups"), testLog())

	err := s.BackupDatabase("nope", filepath.Join(tempDir, "nope.db"))
	assert.Error(t, err)
}

func TestBackupDatabaseOverwritesStaleCopy(t *testing.T) {
	databases, tempDir := setupDatabases(t)
	s := NewBackupService(databases, filepath.Join(tempDir, "backups"), testLog())

	backupPath := filepath.Join(tempDir, "ledger-copy.db")
	require.NoError(t, s.BackupDatabase("ledger", backupPath))
	require.NoError(t, s.BackupDatabase("ledger", backupPath))
}

func TestDailyBackupWritesDatedDirectory(t *testing.T) {
	databases, tempDir := setupDatabases(t)
	backupDir := filepath.Join(tempDir, "backups")
	s := NewBackupService(databases, backupDir, testLog())

	require.NoError(t, s.DailyBackup(30))

	dailyRoot := filepath.Join(backupDir, "daily")
	entries, err := os.ReadDir(dailyRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	dayDir := filepath.Join(dailyRoot, entries[0].Name())
	files, err := os.ReadDir(dayDir)
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name())
	}
	// cache.db is ephemeral and skipped
	assert.ElementsMatch(t, []string{"ledger.db", "budget.db"}, names)
}

func TestRotateDailyBackupsKeepsRecent(t *testing.T) {
	databases, tempDir := setupDatabases(t)
	backupDir := filepath.Join(tempDir, "backups")
	s := NewBackupService(databases, backupDir, testLog())

	dailyRoot := filepath.Join(backupDir, "daily")
	require.NoError(t, os.MkdirAll(filepath.Join(dailyRoot, "2020-01-01"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dailyRoot, "2099-01-01"), 0755))

	require.NoError(t, s.rotateDailyBackups(30))

	entries, err := os.ReadDir(dailyRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2099-01-01", entries[0].Name())
}
