package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// txColumns is the column list for the transactions table.
// Order must match the scan helpers below.
const txColumns = `id, holding_id, action, date, quantity, unit_price, fees, currency, deleted, created_at`

// dateLayout is the on-disk date format for ledger rows
const dateLayout = "2006-01-02"

// Repository handles transaction rows in ledger.db. Quantities and money
// amounts are stored as decimal strings so nothing is ever rounded on the
// way in or out of the database.
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "ledger").Logger(),
	}
}

// Create inserts a new transaction row and returns it with its assigned id
func (r *Repository) Create(tx domain.Transaction) (domain.Transaction, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO transactions
		(holding_id, action, date, quantity, unit_price, fees, currency, deleted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
	`

	result, err := r.ledgerDB.Exec(query,
		tx.HoldingID,
		string(tx.Action),
		tx.Date.Format(dateLayout),
		tx.Quantity.String(),
		tx.UnitPrice.String(),
		tx.Fees.String(),
		string(tx.Currency),
		now.Unix(),
	)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to get transaction id: %w", err)
	}

	tx.ID = id
	tx.CreatedAt = now
	tx.Deleted = false

	r.log.Info().
		Int64("id", id).
		Str("holding_id", tx.HoldingID).
		Str("action", string(tx.Action)).
		Str("quantity", tx.Quantity.String()).
		Msg("Transaction created")

	return tx, nil
}

// GetByID retrieves a single transaction, deleted or not. Returns nil when
// the id does not exist.
func (r *Repository) GetByID(id int64) (*domain.Transaction, error) {
	query := "SELECT " + txColumns + " FROM transactions WHERE id = ?"

	row := r.ledgerDB.QueryRow(query, id)
	tx, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

// ListByHolding returns a holding's non-deleted transactions in FIFO replay
// order: date ascending, insertion order on ties.
func (r *Repository) ListByHolding(holdingID string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + txColumns + ` FROM transactions
		WHERE holding_id = ? AND deleted = 0
		ORDER BY date ASC, created_at ASC, id ASC
	`
	return r.queryTransactions(query, holdingID)
}

// ListRecent returns the most recent non-deleted transactions across all
// holdings, newest first.
func (r *Repository) ListRecent(limit int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + txColumns + ` FROM transactions
		WHERE deleted = 0
		ORDER BY date DESC, created_at DESC, id DESC
		LIMIT ?
	`
	return r.queryTransactions(query, limit)
}

// SetDeleted flips the soft-delete marker on a transaction
func (r *Repository) SetDeleted(id int64, deleted bool) error {
	flag := 0
	if deleted {
		flag = 1
	}

	result, err := r.ledgerDB.Exec("UPDATE transactions SET deleted = ? WHERE id = ?", flag, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "transaction", ID: fmt.Sprintf("%d", id)}
	}

	r.log.Info().Int64("id", id).Bool("deleted", deleted).Msg("Transaction soft-delete flag updated")
	return nil
}

// Summary returns non-deleted row counts per action plus a total
func (r *Repository) Summary() (map[string]int64, error) {
	query := `
		SELECT action, COUNT(*) FROM transactions
		WHERE deleted = 0
		GROUP BY action
	`

	rows, err := r.ledgerDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger summary: %w", err)
	}
	defer rows.Close()

	summary := map[string]int64{"total": 0}
	for rows.Next() {
		var action string
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summary[action] = count
		summary["total"] += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary rows: %w", err)
	}

	return summary, nil
}

func (r *Repository) queryTransactions(query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.ledgerDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// scanTransaction reads one row through any Scan-shaped function, converting
// stored date strings, decimal strings and unix timestamps to domain types
func scanTransaction(scan func(...interface{}) error) (domain.Transaction, error) {
	var tx domain.Transaction
	var action, date, quantity, unitPrice, fees, currency string
	var deleted int
	var createdAt int64

	err := scan(
		&tx.ID,
		&tx.HoldingID,
		&action,
		&date,
		&quantity,
		&unitPrice,
		&fees,
		&currency,
		&deleted,
		&createdAt,
	)
	if err != nil {
		return tx, err
	}

	tx.Action = domain.TransactionAction(action)
	tx.Currency = domain.Currency(currency)
	tx.Deleted = deleted == 1
	tx.CreatedAt = time.Unix(createdAt, 0).UTC()

	if tx.Date, err = time.ParseInLocation(dateLayout, date, time.UTC); err != nil {
		return tx, fmt.Errorf("invalid date %q: %w", date, err)
	}
	if tx.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return tx, fmt.Errorf("invalid quantity %q: %w", quantity, err)
	}
	if tx.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return tx, fmt.Errorf("invalid unit_price %q: %w", unitPrice, err)
	}
	if tx.Fees, err = decimal.NewFromString(fees); err != nil {
		return tx, fmt.Errorf("invalid fees %q: %w", fees, err)
	}

	return tx, nil
}
