// Package holdings manages the tracked assets and liabilities.
//
// A holding's type is immutable after creation: it decides which sub-ledger
// prices the holding (transactions and live quotes for tradeable types,
// monthly balance snapshots for the rest), so changing it would orphan the
// rows already recorded against the holding.
package holdings

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// holdingColumns is the column list for the holdings table.
// Order must match scanHolding below.
const holdingColumns = `id, name, type, currency, symbol, exchange, dormant, deleted, created_at`

// Repository handles holding rows in ledger.db
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new holdings repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "holdings").Logger(),
	}
}

// Create inserts a new holding with a generated UUID and returns it
func (r *Repository) Create(h domain.Holding) (domain.Holding, error) {
	h.ID = uuid.New().String()
	h.CreatedAt = time.Now().UTC()
	h.Deleted = false

	query := `
		INSERT INTO holdings (id, name, type, currency, symbol, exchange, dormant, deleted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
	`

	dormant := 0
	if h.Dormant {
		dormant = 1
	}

	_, err := r.ledgerDB.Exec(query,
		h.ID,
		h.Name,
		string(h.Type),
		string(h.Currency),
		h.Symbol,
		h.Exchange,
		dormant,
		h.CreatedAt.Unix(),
	)
	if err != nil {
		return domain.Holding{}, fmt.Errorf("failed to create holding: %w", err)
	}

	r.log.Info().
		Str("id", h.ID).
		Str("name", h.Name).
		Str("type", string(h.Type)).
		Msg("Holding created")

	return h, nil
}

// Get retrieves a non-deleted holding by ID. Returns nil when the holding
// does not exist or is soft-deleted.
func (r *Repository) Get(id string) (*domain.Holding, error) {
	query := "SELECT " + holdingColumns + " FROM holdings WHERE id = ? AND deleted = 0"

	row := r.ledgerDB.QueryRow(query, id)
	h, err := scanHolding(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}

	return &h, nil
}

// GetAny retrieves a holding by ID regardless of its soft-delete flag.
// Returns nil when the id does not exist at all.
func (r *Repository) GetAny(id string) (*domain.Holding, error) {
	query := "SELECT " + holdingColumns + " FROM holdings WHERE id = ?"

	row := r.ledgerDB.QueryRow(query, id)
	h, err := scanHolding(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}

	return &h, nil
}

// ListActive returns all non-deleted holdings, oldest first
func (r *Repository) ListActive() ([]domain.Holding, error) {
	query := "SELECT " + holdingColumns + " FROM holdings WHERE deleted = 0 ORDER BY created_at ASC, id ASC"
	return r.queryHoldings(query)
}

// ListByType returns non-deleted holdings of one type
func (r *Repository) ListByType(t domain.HoldingType) ([]domain.Holding, error) {
	query := "SELECT " + holdingColumns + " FROM holdings WHERE deleted = 0 AND type = ? ORDER BY created_at ASC, id ASC"
	return r.queryHoldings(query, string(t))
}

// ListTradeable returns non-deleted, quote-priced holdings (stock/etf/crypto).
// The price refresh job iterates this set.
func (r *Repository) ListTradeable() ([]domain.Holding, error) {
	query := "SELECT " + holdingColumns + ` FROM holdings
		WHERE deleted = 0 AND type IN (?, ?, ?)
		ORDER BY created_at ASC, id ASC`
	return r.queryHoldings(query,
		string(domain.HoldingTypeStock),
		string(domain.HoldingTypeETF),
		string(domain.HoldingTypeCrypto),
	)
}

// Update changes a holding's mutable fields (name, symbol, exchange,
// dormant). Type and currency are immutable: the rows already recorded
// against the holding are denominated in them.
func (r *Repository) Update(id string, name, symbol, exchange string, dormant bool) error {
	dormantFlag := 0
	if dormant {
		dormantFlag = 1
	}

	result, err := r.ledgerDB.Exec(
		"UPDATE holdings SET name = ?, symbol = ?, exchange = ?, dormant = ? WHERE id = ? AND deleted = 0",
		name, symbol, exchange, dormantFlag, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "holding", ID: id}
	}

	r.log.Info().Str("id", id).Msg("Holding updated")
	return nil
}

// SetDeleted flips the soft-delete marker on a holding. The holding's
// transactions and snapshots stay in place for restore.
func (r *Repository) SetDeleted(id string, deleted bool) error {
	flag := 0
	if deleted {
		flag = 1
	}

	result, err := r.ledgerDB.Exec("UPDATE holdings SET deleted = ? WHERE id = ?", flag, id)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "holding", ID: id}
	}

	r.log.Info().Str("id", id).Bool("deleted", deleted).Msg("Holding soft-delete flag updated")
	return nil
}

func (r *Repository) queryHoldings(query string, args ...interface{}) ([]domain.Holding, error) {
	rows, err := r.ledgerDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

func scanHolding(scan func(...interface{}) error) (domain.Holding, error) {
	var h domain.Holding
	var holdingType, currency string
	var dormant, deleted int
	var createdAt int64

	err := scan(
		&h.ID,
		&h.Name,
		&holdingType,
		&currency,
		&h.Symbol,
		&h.Exchange,
		&dormant,
		&deleted,
		&createdAt,
	)
	if err != nil {
		return h, err
	}

	h.Type = domain.HoldingType(holdingType)
	h.Currency = domain.Currency(currency)
	h.Dormant = dormant == 1
	h.Deleted = deleted == 1
	h.CreatedAt = time.Unix(createdAt, 0).UTC()

	return h, nil
}
