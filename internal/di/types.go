/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to handlers for access to services.
 */
package di

import (
	"github.com/aristath/steward/internal/clientdata"
	"github.com/aristath/steward/internal/clients/exchangerate"
	"github.com/aristath/steward/internal/clients/yahoo"
	"github.com/aristath/steward/internal/database"
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
)

/**
 * Container holds all dependencies for the application.
 *
 * This is the single source of truth for all service instances.
 * The container is created by Wire() and passed to handlers for access to services.
 *
 * Architecture:
 * - Databases: 5-database architecture (ledger, budget, config, cache, history)
 * - Clients: External API clients (Yahoo Finance quotes, exchange rates)
 * - Repositories: Data access layer (holdings, transactions, snapshots, budget, settings)
 * - Services: Business logic layer (net worth aggregation, budget pace, anomaly detection, charts)
 * - Reliability: Local and cloud (R2) database backups
 *
 * All dependencies are injected via constructor injection following clean architecture principles.
 */
type Container struct {
	// Databases (5-database architecture)
	// Each database uses SQLite with WAL mode and profile-specific PRAGMAs
	LedgerDB  *database.DB       // Immutable financial audit trail (holdings, transactions, snapshots)
	BudgetDB  *database.DB       // Budget periods and day-to-day spending
	ConfigDB  *database.DB       // Application configuration (settings)
	CacheDB   *database.DB       // External API response cache (Yahoo, ExchangeRate)
	HistoryDB *history.HistoryDB // Append-only time series (prices, net worth snapshots)

	// Clients - External API integrations
	YahooClient        *yahoo.Client        // Yahoo Finance quote client with persistent caching
	ExchangeRateClient *exchangerate.Client // Exchange rate client with persistent caching

	// Repositories - Data access layer
	HoldingsRepo   *holdings.Repository   // Holdings registry
	LedgerRepo     *ledger.Repository     // Unit transactions (buys, sells, adjustments)
	SnapshotsRepo  *snapshots.Repository  // Balance snapshots for non-tradeable holdings
	BudgetRepo     *budget.Repository     // Budget periods and transactions
	SettingsRepo   *settings.Repository   // Application settings
	ClientDataRepo *clientdata.Repository // Cached external API responses

	// Services - Business logic layer
	EventBus         *events.Bus        // Event bus for pub/sub
	HoldingsService  *holdings.Service  // Holdings lifecycle (create, update, soft delete)
	LedgerService    *ledger.Service    // Transaction ledger with position replay
	SnapshotsService *snapshots.Service // Snapshot recording and carry-forward lookups
	BudgetService    *budget.Service    // Budget periods, transactions, pace reports
	CurrencyService  *currency.Service  // Currency conversion via AUD pivot
	NetWorthService  *networth.Service  // Net worth aggregation across holdings
	AnomalyService   *anomaly.Service   // Spending anomaly detection
	HistoryService   *history.Service   // Chart series (sparklines, net worth ranges)
	SettingsService  *settings.Service  // Typed access over the settings repository

	// Reliability - Backups
	BackupService   *reliability.BackupService   // Local VACUUM INTO backups
	R2Client        *reliability.R2Client        // Cloudflare R2 object storage (nil when unconfigured)
	R2BackupService *reliability.R2BackupService // Cloud backup archives (nil when unconfigured)
}

// Close releases all database connections. Safe to call on a partially
// initialized container.
func (c *Container) Close() {
	if c.HistoryDB != nil {
		c.HistoryDB.Close()
	}
	if c.CacheDB != nil {
		c.CacheDB.Close()
	}
	if c.ConfigDB != nil {
		c.ConfigDB.Close()
	}
	if c.BudgetDB != nil {
		c.BudgetDB.Close()
	}
	if c.LedgerDB != nil {
		c.LedgerDB.Close()
	}
}

// Databases returns the modernc-driver databases keyed by name, for backup
// and WAL checkpoint jobs. The history database is excluded; it holds its
// own connection and is backed up separately.
func (c *Container) Databases() map[string]*database.DB {
	return map[string]*database.DB{
		"ledger": c.LedgerDB,
		"budget": c.BudgetDB,
		"config": c.ConfigDB,
		"cache":  c.CacheDB,
	}
}
