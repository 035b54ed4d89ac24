package di

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/steward/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:         t.TempDir(),
		LogLevel:        "disabled",
		DisplayCurrency: "AUD",
		PriceTTL:        15 * time.Minute,
		RateTTL:         time.Hour,
		Port:            8090,
		Backup:          &config.BackupConfig{RetentionDays: 30},
	}
}

func testLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestWireInitializesEverything(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(cfg, testLog())
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.LedgerDB)
	assert.NotNil(t, container.BudgetDB)
	assert.NotNil(t, container.ConfigDB)
	assert.NotNil(t, container.CacheDB)
	assert.NotNil(t, container.HistoryDB)

	assert.NotNil(t, container.HoldingsRepo)
	assert.NotNil(t, container.LedgerRepo)
	assert.NotNil(t, container.SnapshotsRepo)
	assert.NotNil(t, container.BudgetRepo)
	assert.NotNil(t, container.SettingsRepo)
	assert.NotNil(t, container.ClientDataRepo)

	assert.NotNil(t, container.EventBus)
	assert.NotNil(t, container.HoldingsService)
	assert.NotNil(t, container.LedgerService)
	assert.NotNil(t, container.SnapshotsService)
	assert.NotNil(t, container.BudgetService)
	assert.NotNil(t, container.CurrencyService)
	assert.NotNil(t, container.NetWorthService)
	assert.NotNil(t, container.AnomalyService)
	assert.NotNil(t, container.HistoryService)
	assert.NotNil(t, container.SettingsService)
	assert.NotNil(t, container.BackupService)

	require.NotNil(t, jobs)
	assert.NotNil(t, jobs.Scheduler)
}

func TestWireCreatesDatabaseFiles(t *testing.T) {
	cfg := testConfig(t)

	container, _, err := Wire(cfg, testLog())
	require.NoError(t, err)
	defer container.Close()

	for _, name := range []string{"ledger.db", "budget.db", "config.db", "cache.db", "history.db"} {
		_, err := os.Stat(filepath.Join(cfg.DataDir, name))
		assert.NoError(t, err, "expected %s to exist", name)
	}
}

func TestWireR2DisabledWithoutCredentials(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(cfg, testLog())
	require.NoError(t, err)
	defer container.Close()

	assert.Nil(t, container.R2Client)
	assert.Nil(t, container.R2BackupService)

	names := jobs.Names()
	assert.Contains(t, names, "refresh_prices")
	assert.Contains(t, names, "refresh_rates")
	assert.Contains(t, names, "networth_snapshot")
	assert.Contains(t, names, "ensure_budget_period")
	assert.Contains(t, names, "client_data_cleanup")
	assert.Contains(t, names, "wal_checkpoint")
	assert.Contains(t, names, "local_backup")
	assert.NotContains(t, names, "r2_backup")
	assert.NotContains(t, names, "r2_backup_rotation")
}

func TestRunByNameUnknownJob(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(cfg, testLog())
	require.NoError(t, err)
	defer container.Close()

	err = jobs.RunByName("reticulate_splines")
	assert.Error(t, err)
}
