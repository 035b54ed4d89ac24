package budget

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/rs/zerolog"
)

const periodColumns = `id, start_date, end_date, expected_income_cents`

const transactionColumns = `id, period_id, date, amount_cents, saver_key, category_key, description, deleted, created_at`

// Repository handles budget periods and transactions in budget.db
type Repository struct {
	budgetDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new budget repository
func NewRepository(budgetDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		budgetDB: budgetDB,
		log:      log.With().Str("repo", "budget").Logger(),
	}
}

// EnsurePeriod inserts the period if its start date is not already present
// and returns the surviving row. Safe under concurrent callers: the UNIQUE
// constraint on start_date means at most one insert wins and everyone reads
// back the same row.
func (r *Repository) EnsurePeriod(p domain.BudgetPeriod) (domain.BudgetPeriod, bool, error) {
	insert := `
		INSERT INTO budget_periods (start_date, end_date, expected_income_cents)
		VALUES (?, ?, ?)
		ON CONFLICT(start_date) DO NOTHING
	`

	result, err := r.budgetDB.Exec(insert,
		p.StartDate.Format(dateLayout),
		p.EndDate.Format(dateLayout),
		p.ExpectedIncomeCents,
	)
	if err != nil {
		return domain.BudgetPeriod{}, false, fmt.Errorf("failed to insert budget period: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return domain.BudgetPeriod{}, false, fmt.Errorf("failed to check insert result: %w", err)
	}

	stored, err := r.GetPeriodByStart(p.StartDate)
	if err != nil {
		return domain.BudgetPeriod{}, false, err
	}
	if stored == nil {
		return domain.BudgetPeriod{}, false, fmt.Errorf("budget period missing after insert for %s", p.StartDate.Format(dateLayout))
	}

	created := inserted > 0
	if created {
		r.log.Info().
			Str("start", stored.StartDate.Format(dateLayout)).
			Str("end", stored.EndDate.Format(dateLayout)).
			Msg("Budget period created")
	}

	return *stored, created, nil
}

// GetPeriodByStart returns the period starting on the given date, nil when absent
func (r *Repository) GetPeriodByStart(start time.Time) (*domain.BudgetPeriod, error) {
	query := "SELECT " + periodColumns + " FROM budget_periods WHERE start_date = ?"

	row := r.budgetDB.QueryRow(query, start.Format(dateLayout))
	p, err := scanPeriod(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget period: %w", err)
	}

	return &p, nil
}

// GetPeriodContaining returns the stored period whose window contains the
// date, nil when no such period has been created yet.
func (r *Repository) GetPeriodContaining(date time.Time) (*domain.BudgetPeriod, error) {
	query := "SELECT " + periodColumns + " FROM budget_periods WHERE start_date <= ? AND end_date >= ?"

	d := date.UTC().Format(dateLayout)
	row := r.budgetDB.QueryRow(query, d, d)
	p, err := scanPeriod(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget period: %w", err)
	}

	return &p, nil
}

// ListPeriods returns stored periods, newest first
func (r *Repository) ListPeriods(limit int) ([]domain.BudgetPeriod, error) {
	query := "SELECT " + periodColumns + " FROM budget_periods ORDER BY start_date DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.queryPeriods(query, args...)
}

// ListPeriodsBefore returns up to limit periods that ended before the given
// start date, newest first. Anomaly baselines are built from these.
func (r *Repository) ListPeriodsBefore(start time.Time, limit int) ([]domain.BudgetPeriod, error) {
	query := "SELECT " + periodColumns + ` FROM budget_periods
		WHERE start_date < ?
		ORDER BY start_date DESC LIMIT ?`

	return r.queryPeriods(query, start.Format(dateLayout), limit)
}

// CreateTransaction inserts a budget transaction and returns it with its ID
func (r *Repository) CreateTransaction(tx domain.BudgetTransaction) (domain.BudgetTransaction, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO budget_transactions (period_id, date, amount_cents, saver_key, category_key, description, deleted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
	`

	result, err := r.budgetDB.Exec(query,
		tx.PeriodID,
		tx.Date.Format(dateLayout),
		tx.AmountCents,
		tx.SaverKey,
		tx.CategoryKey,
		tx.Description,
		now.Unix(),
	)
	if err != nil {
		return domain.BudgetTransaction{}, fmt.Errorf("failed to create budget transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.BudgetTransaction{}, fmt.Errorf("failed to get budget transaction id: %w", err)
	}

	tx.ID = id
	tx.CreatedAt = now
	tx.Deleted = false

	r.log.Info().
		Int64("id", id).
		Int64("period_id", tx.PeriodID).
		Int64("amount_cents", tx.AmountCents).
		Msg("Budget transaction recorded")

	return tx, nil
}

// ListTransactionsByPeriod returns a period's live transactions, date ascending
func (r *Repository) ListTransactionsByPeriod(periodID int64) ([]domain.BudgetTransaction, error) {
	query := "SELECT " + transactionColumns + ` FROM budget_transactions
		WHERE period_id = ? AND deleted = 0
		ORDER BY date ASC, id ASC`

	return r.queryTransactions(query, periodID)
}

// ListTransactionsByPeriods returns live transactions for a set of periods.
// Returns an empty slice for an empty id list.
func (r *Repository) ListTransactionsByPeriods(periodIDs []int64) ([]domain.BudgetTransaction, error) {
	if len(periodIDs) == 0 {
		return nil, nil
	}

	query := "SELECT " + transactionColumns + " FROM budget_transactions WHERE deleted = 0 AND period_id IN ("
	args := make([]interface{}, 0, len(periodIDs))
	for i, id := range periodIDs {
		if i > 0 {
			query += ", "
		}
		query += "?"
		args = append(args, id)
	}
	query += ") ORDER BY date ASC, id ASC"

	return r.queryTransactions(query, args...)
}

// SetTransactionDeleted flips the soft-delete marker on a budget transaction
func (r *Repository) SetTransactionDeleted(id int64, deleted bool) error {
	flag := 0
	if deleted {
		flag = 1
	}

	result, err := r.budgetDB.Exec("UPDATE budget_transactions SET deleted = ? WHERE id = ?", flag, id)
	if err != nil {
		return fmt.Errorf("failed to update budget transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "budget transaction", ID: fmt.Sprintf("%d", id)}
	}

	return nil
}

func (r *Repository) queryPeriods(query string, args ...interface{}) ([]domain.BudgetPeriod, error) {
	rows, err := r.budgetDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget periods: %w", err)
	}
	defer rows.Close()

	var periods []domain.BudgetPeriod
	for rows.Next() {
		p, err := scanPeriod(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget period: %w", err)
		}
		periods = append(periods, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget periods: %w", err)
	}

	return periods, nil
}

func (r *Repository) queryTransactions(query string, args ...interface{}) ([]domain.BudgetTransaction, error) {
	rows, err := r.budgetDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.BudgetTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget transactions: %w", err)
	}

	return txs, nil
}

func scanPeriod(scan func(...interface{}) error) (domain.BudgetPeriod, error) {
	var p domain.BudgetPeriod
	var start, end string

	err := scan(&p.ID, &start, &end, &p.ExpectedIncomeCents)
	if err != nil {
		return p, err
	}

	if p.StartDate, err = time.ParseInLocation(dateLayout, start, time.UTC); err != nil {
		return p, fmt.Errorf("invalid start_date %q: %w", start, err)
	}
	if p.EndDate, err = time.ParseInLocation(dateLayout, end, time.UTC); err != nil {
		return p, fmt.Errorf("invalid end_date %q: %w", end, err)
	}
	p.DayCount = int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1

	return p, nil
}

func scanTransaction(scan func(...interface{}) error) (domain.BudgetTransaction, error) {
	var tx domain.BudgetTransaction
	var date string
	var description sql.NullString
	var deleted int
	var createdAt int64

	err := scan(&tx.ID, &tx.PeriodID, &date, &tx.AmountCents, &tx.SaverKey, &tx.CategoryKey, &description, &deleted, &createdAt)
	if err != nil {
		return tx, err
	}

	if tx.Date, err = time.ParseInLocation(dateLayout, date, time.UTC); err != nil {
		return tx, fmt.Errorf("invalid date %q: %w", date, err)
	}
	tx.Description = description.String
	tx.Deleted = deleted == 1
	tx.CreatedAt = time.Unix(createdAt, 0).UTC()

	return tx, nil
}
