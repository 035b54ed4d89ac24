package ledger

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/steward/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			holding_id TEXT NOT NULL,
			action TEXT NOT NULL,
			date TEXT NOT NULL,
			quantity TEXT NOT NULL,
			unit_price TEXT NOT NULL,
			fees TEXT NOT NULL,
			currency TEXT NOT NULL,
			deleted INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		)
	`)
	require.NoError(t, err)

	return db
}

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(setupTestDB(t), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestRepositoryCreateAndGetByID(t *testing.T) {
	repo := setupRepo(t)

	created, err := repo.Create(makeTx(0, "2026-03-14", domain.ActionBuy, "10.123456789", "99.95", "9.95"))
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "holding-1", got.HoldingID)
	assert.Equal(t, domain.ActionBuy, got.Action)
	assert.Equal(t, domain.CurrencyAUD, got.Currency)
	assert.Equal(t, "2026-03-14", got.Date.Format(dateLayout))
	assert.False(t, got.Deleted)

	// Decimal strings survive storage without rounding
	assert.Equal(t, "10.123456789", got.Quantity.String())
	assert.Equal(t, "99.95", got.UnitPrice.String())
	assert.Equal(t, "9.95", got.Fees.String())
}

func TestRepositoryGetByIDMissing(t *testing.T) {
	repo := setupRepo(t)

	got, err := repo.GetByID(9999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepositoryListByHoldingOrder(t *testing.T) {
	repo := setupRepo(t)

	// Inserted newest-date first; the list must come back date ascending
	// with same-date rows in insertion order.
	_, err := repo.Create(makeTx(0, "2026-03-01", domain.ActionSell, "5", "2", "0"))
	require.NoError(t, err)
	first, err := repo.Create(makeTx(0, "2026-01-01", domain.ActionBuy, "10", "1", "0"))
	require.NoError(t, err)
	second, err := repo.Create(makeTx(0, "2026-01-01", domain.ActionBuy, "3", "1.5", "0"))
	require.NoError(t, err)

	txs, err := repo.ListByHolding("holding-1")
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, first.ID, txs[0].ID)
	assert.Equal(t, second.ID, txs[1].ID)
	assert.Equal(t, "2026-03-01", txs[2].Date.Format(dateLayout))
}

func TestRepositoryListByHoldingFilters(t *testing.T) {
	repo := setupRepo(t)

	mine, err := repo.Create(makeTx(0, "2026-01-01", domain.ActionBuy, "10", "1", "0"))
	require.NoError(t, err)

	other := makeTx(0, "2026-01-02", domain.ActionBuy, "10", "1", "0")
	other.HoldingID = "holding-2"
	_, err = repo.Create(other)
	require.NoError(t, err)

	deleted, err := repo.Create(makeTx(0, "2026-01-03", domain.ActionBuy, "10", "1", "0"))
	require.NoError(t, err)
	require.NoError(t, repo.SetDeleted(deleted.ID, true))

	txs, err := repo.ListByHolding("holding-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, mine.ID, txs[0].ID)
}

func TestRepositoryListRecent(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Create(makeTx(0, "2026-01-01", domain.ActionBuy, "10", "1", "0"))
	require.NoError(t, err)
	_, err = repo.Create(makeTx(0, "2026-02-01", domain.ActionBuy, "10", "1", "0"))
	require.NoError(t, err)
	newest, err := repo.Create(makeTx(0, "2026-03-01", domain.ActionSell, "5", "2", "0"))
	require.NoError(t, err)

	txs, err := repo.ListRecent(2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, newest.ID, txs[0].ID)
	assert.Equal(t, "2026-02-01", txs[1].Date.Format(dateLayout))
}

func TestRepositorySetDeletedAndRestore(t *testing.T) {
	repo := setupRepo(t)

	created, err := repo.Create(makeTx(0, "2026-01-01", domain.ActionBuy, "10", "1", "0"))
	require.NoError(t, err)

	require.NoError(t, repo.SetDeleted(created.ID, true))

	txs, err := repo.ListByHolding("holding-1")
	require.NoError(t, err)
	assert.Empty(t, txs)

	// GetByID still sees the row
	got, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Deleted)

	require.NoError(t, repo.SetDeleted(created.ID, false))

	txs, err = repo.ListByHolding("holding-1")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestRepositorySetDeletedMissing(t *testing.T) {
	repo := setupRepo(t)

	err := repo.SetDeleted(9999, true)
	assert.True(t, domain.IsNotFound(err), "expected not-found error, got %v", err)
}

func TestRepositorySummary(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Create(makeTx(0, "2026-01-01", domain.ActionBuy, "10", "1", "0"))
	require.NoError(t, err)
	_, err = repo.Create(makeTx(0, "2026-02-01", domain.ActionBuy, "5", "2", "0"))
	require.NoError(t, err)
	_, err = repo.Create(makeTx(0, "2026-03-01", domain.ActionSell, "5", "3", "0"))
	require.NoError(t, err)

	deleted, err := repo.Create(makeTx(0, "2026-04-01", domain.ActionSell, "5", "3", "0"))
	require.NoError(t, err)
	require.NoError(t, repo.SetDeleted(deleted.ID, true))

	summary, err := repo.Summary()
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary["BUY"])
	assert.Equal(t, int64(1), summary["SELL"])
	assert.Equal(t, int64(3), summary["total"])
}
