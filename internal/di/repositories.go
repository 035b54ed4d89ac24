// Package di provides dependency injection for repository implementations.
package di

import (
	"fmt"

	"github.com/aristath/steward/internal/clientdata"
	"github.com/aristath/steward/internal/modules/budget"
	"github.com/aristath/steward/internal/modules/holdings"
	"github.com/aristath/steward/internal/modules/ledger"
	"github.com/aristath/steward/internal/modules/settings"
	"github.com/aristath/steward/internal/modules/snapshots"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Holdings registry (ledger.db)
	container.HoldingsRepo = holdings.NewRepository(container.LedgerDB.Conn(), log)

	// Unit transactions (ledger.db)
	container.LedgerRepo = ledger.NewRepository(container.LedgerDB.Conn(), log)

	// Balance snapshots for non-tradeable holdings (ledger.db)
	container.SnapshotsRepo = snapshots.NewRepository(container.LedgerDB.Conn(), log)

	// Budget periods and transactions (budget.db)
	container.BudgetRepo = budget.NewRepository(container.BudgetDB.Conn(), log)

	// Application settings (config.db)
	container.SettingsRepo = settings.NewRepository(container.ConfigDB.Conn(), log)

	// Cached external API responses (cache.db)
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())

	log.Debug().Msg("Repositories initialized")

	return nil
}
