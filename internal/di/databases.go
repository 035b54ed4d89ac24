// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/steward/internal/config"
	"github.com/aristath/steward/internal/database"
	"github.com/aristath/steward/internal/modules/history"
	"github.com/rs/zerolog"
)

// InitializeDatabases initializes all 5 databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. ledger.db - Immutable financial audit trail (holdings, transactions, snapshots)
	ledgerDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/ledger.db",
		Profile: database.ProfileLedger, // Maximum safety for immutable audit trail
		Name:    "ledger",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger database: %w", err)
	}
	container.LedgerDB = ledgerDB

	// 2. budget.db - Budget periods and day-to-day spending
	budgetDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/budget.db",
		Profile: database.ProfileStandard,
		Name:    "budget",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize budget database: %w", err)
	}
	container.BudgetDB = budgetDB

	// 3. config.db - Application configuration (settings)
	configDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/config.db",
		Profile: database.ProfileStandard,
		Name:    "config",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize config database: %w", err)
	}
	container.ConfigDB = configDB

	// 4. cache.db - External API response cache (Yahoo, ExchangeRate)
	cacheDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/cache.db",
		Profile: database.ProfileCache, // Maximum speed for ephemeral data
		Name:    "cache",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	// Apply schemas (single source of truth)
	for _, db := range []*database.DB{ledgerDB, budgetDB, configDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	// 5. history.db - Append-only time series (prices, net worth snapshots).
	// Opened outside database.New; the history module keeps its own driver.
	historyDB, err := history.Open(cfg.DataDir+"/history.db", log)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	container.HistoryDB = historyDB

	log.Info().
		Str("data_dir", cfg.DataDir).
		Msg("Databases initialized")

	return container, nil
}
