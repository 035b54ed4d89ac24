// Package snapshots stores monthly balance snapshots for holdings that have
// no market quote (super, cash, debt). One live snapshot per holding per
// month; re-recording a month replaces the previous value.
package snapshots

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const snapshotColumns = `id, holding_id, month, balance, currency, deleted, created_at`

const monthLayout = "2006-01-02"

// Repository handles snapshot rows in ledger.db
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new snapshots repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "snapshots").Logger(),
	}
}

// Upsert records a balance for (holding, month). An existing live snapshot
// for the same month is replaced in place so the unique index holds.
func (r *Repository) Upsert(s domain.Snapshot) (domain.Snapshot, error) {
	month := normalizeMonth(s.Month)
	now := time.Now().UTC()

	query := `
		INSERT INTO snapshots (holding_id, month, balance, currency, deleted, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(holding_id, month) WHERE deleted = 0
		DO UPDATE SET balance = excluded.balance, currency = excluded.currency
	`

	_, err := r.ledgerDB.Exec(query,
		s.HoldingID,
		month.Format(monthLayout),
		s.Balance.String(),
		string(s.Currency),
		now.Unix(),
	)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	stored, err := r.GetByMonth(s.HoldingID, month)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if stored == nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot missing after upsert for holding %s", s.HoldingID)
	}

	r.log.Info().
		Str("holding_id", s.HoldingID).
		Str("month", month.Format(monthLayout)).
		Str("balance", s.Balance.String()).
		Msg("Snapshot recorded")

	return *stored, nil
}

// GetByMonth returns the live snapshot for (holding, month), nil when absent
func (r *Repository) GetByMonth(holdingID string, month time.Time) (*domain.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots WHERE holding_id = ? AND month = ? AND deleted = 0"

	row := r.ledgerDB.QueryRow(query, holdingID, normalizeMonth(month).Format(monthLayout))
	s, err := scanSnapshot(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return &s, nil
}

// LatestOnOrBefore returns the most recent live snapshot whose month is on
// or before the given date. This is the carry-forward lookup the net worth
// calculation uses. Returns nil when the holding has no usable snapshot.
func (r *Repository) LatestOnOrBefore(holdingID string, date time.Time) (*domain.Snapshot, error) {
	query := "SELECT " + snapshotColumns + ` FROM snapshots
		WHERE holding_id = ? AND month <= ? AND deleted = 0
		ORDER BY month DESC LIMIT 1`

	row := r.ledgerDB.QueryRow(query, holdingID, date.UTC().Format(monthLayout))
	s, err := scanSnapshot(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return &s, nil
}

// ListByHolding returns a holding's live snapshots, oldest month first
func (r *Repository) ListByHolding(holdingID string) ([]domain.Snapshot, error) {
	query := "SELECT " + snapshotColumns + ` FROM snapshots
		WHERE holding_id = ? AND deleted = 0
		ORDER BY month ASC`

	rows, err := r.ledgerDB.Query(query, holdingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snaps, nil
}

// SetDeleted flips the soft-delete marker on a snapshot
func (r *Repository) SetDeleted(id int64, deleted bool) error {
	flag := 0
	if deleted {
		flag = 1
	}

	result, err := r.ledgerDB.Exec("UPDATE snapshots SET deleted = ? WHERE id = ?", flag, id)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "snapshot", ID: fmt.Sprintf("%d", id)}
	}

	r.log.Info().Int64("id", id).Bool("deleted", deleted).Msg("Snapshot soft-delete flag updated")
	return nil
}

// normalizeMonth truncates a date to the first of its month, UTC
func normalizeMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func scanSnapshot(scan func(...interface{}) error) (domain.Snapshot, error) {
	var s domain.Snapshot
	var month, balance, currency string
	var deleted int
	var createdAt int64

	err := scan(&s.ID, &s.HoldingID, &month, &balance, &currency, &deleted, &createdAt)
	if err != nil {
		return s, err
	}

	parsedMonth, err := time.ParseInLocation(monthLayout, month, time.UTC)
	if err != nil {
		return s, fmt.Errorf("invalid month %q: %w", month, err)
	}
	s.Month = parsedMonth

	if s.Balance, err = decimal.NewFromString(balance); err != nil {
		return s, fmt.Errorf("invalid balance %q: %w", balance, err)
	}

	s.Currency = domain.Currency(currency)
	s.Deleted = deleted == 1
	s.CreatedAt = time.Unix(createdAt, 0).UTC()

	return s, nil
}
