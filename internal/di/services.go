// Package di provides dependency injection for service implementations.
package di

import (
	"fmt"

	"github.com/aristath/steward/internal/clients/exchangerate"
	"github.com/aristath/steward/internal/clients/yahoo"
	"github.com/aristath/steward/internal/config"
	"github.com/aristath/steward/internal/events"
	"github.com/aristath/steward/internal/modules/anomaly"
	"github.com/aristath/steward/internal/modules/budget"
	"github.com/aristath/steward/internal/modules/currency"
	"github.com/aristath/steward/internal/modules/history"
	"github.com/aristath/steward/internal/modules/holdings"
	"github.com/aristath/steward/internal/modules/ledger"
	"github.com/aristath/steward/internal/modules/networth"
	"github.com/aristath/steward/internal/modules/settings"
	"github.com/aristath/steward/internal/modules/snapshots"
	"github.com/aristath/steward/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates all services and stores them in the container
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Event bus - pub/sub backbone for job status and data-change events
	container.EventBus = events.NewBus(log)

	// External API clients. Both cache responses in cache.db so the
	// aggregator reads last-known values without touching the network.
	container.YahooClient = yahoo.NewClient(container.ClientDataRepo, log)
	container.ExchangeRateClient = exchangerate.NewClient(container.ClientDataRepo, log)

	// Settings service - typed access over the settings repository
	settingsService := settings.NewService(container.SettingsRepo, log)
	container.SettingsService = settingsService

	// Holdings lifecycle
	container.HoldingsService = holdings.NewService(container.HoldingsRepo, container.EventBus, log)

	// Transaction ledger with position replay
	container.LedgerService = ledger.NewService(container.LedgerRepo, container.HoldingsRepo, container.EventBus, log)

	// Balance snapshots for non-tradeable holdings
	container.SnapshotsService = snapshots.NewService(container.SnapshotsRepo, container.HoldingsRepo, container.EventBus, log)

	// Budget periods, transactions and pace reports
	container.BudgetService = budget.NewService(container.BudgetRepo, settingsService, container.EventBus, log)

	// Currency conversion via the AUD pivot
	container.CurrencyService = currency.NewService(container.ExchangeRateClient, log)

	// Net worth aggregation across every active holding
	container.NetWorthService = networth.NewService(
		container.HoldingsRepo,
		container.LedgerService,
		container.SnapshotsService,
		container.YahooClient,
		container.ExchangeRateClient,
		container.BudgetService,
		settingsService,
		container.EventBus,
		cfg.PriceTTL,
		log,
	)

	// Spending anomaly detection over budget history
	container.AnomalyService = anomaly.NewService(
		container.BudgetService,
		container.BudgetRepo,
		settingsService,
		container.EventBus,
		log,
	)

	// Chart series from the history database
	container.HistoryService = history.NewService(container.HistoryDB, container.HoldingsRepo, log)

	// Local backups via VACUUM INTO
	container.BackupService = reliability.NewBackupService(
		container.Databases(),
		cfg.DataDir+"/backups",
		log,
	)

	// Cloud backups (Cloudflare R2) - only when fully configured
	if cfg.Backup != nil && cfg.Backup.Enabled {
		r2Client, err := reliability.NewR2Client(
			cfg.Backup.AccountID,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			cfg.Backup.Bucket,
			log,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize R2 client: %w", err)
		}
		container.R2Client = r2Client
		container.R2BackupService = reliability.NewR2BackupService(
			r2Client,
			container.BackupService,
			cfg.DataDir,
			log,
		)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("R2 cloud backups enabled")
	} else {
		log.Info().Msg("R2 cloud backups disabled (credentials not configured)")
	}

	log.Debug().Msg("Services initialized")

	return nil
}
