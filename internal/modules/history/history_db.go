// Package history persists append-only time series: one price row per
// symbol per day, one net worth row per day. Everything here exists to
// feed charts; nothing reads it back into calculations.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/steward/internal/database"
	"github.com/aristath/steward/internal/domain"
)

// HistoryDB provides access to the history database
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the history database at path and applies its
// schema. The caller owns the returned HistoryDB and must Close it.
func Open(path string, log zerolog.Logger) (*HistoryDB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	schema, err := database.SchemaSQL("history")
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	return NewHistoryDB(conn, log), nil
}

// NewHistoryDB creates a history accessor over an existing connection
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("component", "history_db").Logger(),
	}
}

// Close closes the underlying connection
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// PricePoint is one daily price observation in its native currency
type PricePoint struct {
	Symbol   string          `json:"symbol"`
	Date     string          `json:"date"` // YYYY-MM-DD
	Price    decimal.Decimal `json:"price"`
	Currency domain.Currency `json:"currency"`
}

// BreakdownEntry is the per-holding slice of a persisted net worth row
type BreakdownEntry struct {
	HoldingID string `msgpack:"id" json:"holding_id"`
	Name      string `msgpack:"n" json:"name"`
	Type      string `msgpack:"t" json:"type"`
	ValueAUD  string `msgpack:"v" json:"value_aud"`
}

// NetWorthPoint is one daily net worth observation (headline only)
type NetWorthPoint struct {
	Date     string          `json:"date"` // YYYY-MM-DD
	TotalAUD decimal.Decimal `json:"total_aud"`
}

// NetWorthEntry is a net worth row with its decoded breakdown
type NetWorthEntry struct {
	NetWorthPoint
	Breakdown []BreakdownEntry `json:"breakdown,omitempty"`
}

// RecordPrice upserts one (symbol, day) price row. Re-recording the same
// day replaces the earlier observation so the series keeps the final quote.
func (h *HistoryDB) RecordPrice(symbol string, date time.Time, price decimal.Decimal, currency domain.Currency) error {
	_, err := h.db.Exec(`
		INSERT INTO price_history (symbol, date, price, currency)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			price = excluded.price,
			currency = excluded.currency
	`, symbol, dayUnix(date), price.String(), string(currency))
	if err != nil {
		return fmt.Errorf("failed to record price for %s: %w", symbol, err)
	}
	return nil
}

// PriceSeries returns up to limit daily prices for a symbol, most recent
// first. limit <= 0 means no limit.
func (h *HistoryDB) PriceSeries(symbol string, limit int) ([]PricePoint, error) {
	query := `
		SELECT symbol, date, price, currency
		FROM price_history
		WHERE symbol = ?
		ORDER BY date DESC
	`
	args := []interface{}{symbol}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var p PricePoint
		var dateUnix int64
		var priceStr, currencyStr string

		if err := rows.Scan(&p.Symbol, &dateUnix, &priceStr, &currencyStr); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}

		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("invalid price in history for %s: %w", p.Symbol, err)
		}
		p.Price = price
		p.Currency = domain.Currency(currencyStr)
		p.Date = time.Unix(dateUnix, 0).UTC().Format("2006-01-02")

		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}

	return points, nil
}

// RecordNetWorth upserts the day's net worth row. The breakdown is stored
// as a msgpack blob; re-running the snapshot job on the same day replaces
// the earlier row.
func (h *HistoryDB) RecordNetWorth(date time.Time, totalAUD decimal.Decimal, breakdown []BreakdownEntry) error {
	var blob []byte
	if len(breakdown) > 0 {
		var err error
		blob, err = msgpack.Marshal(breakdown)
		if err != nil {
			return fmt.Errorf("failed to encode net worth breakdown: %w", err)
		}
	}

	_, err := h.db.Exec(`
		INSERT INTO networth_history (date, total_aud, breakdown)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_aud = excluded.total_aud,
			breakdown = excluded.breakdown
	`, dayUnix(date), totalAUD.String(), blob)
	if err != nil {
		return fmt.Errorf("failed to record net worth: %w", err)
	}
	return nil
}

// NetWorthSeries returns up to limit daily net worth points, oldest first
// (chart order). limit <= 0 means no limit.
func (h *HistoryDB) NetWorthSeries(limit int) ([]NetWorthPoint, error) {
	query := `
		SELECT date, total_aud
		FROM (
			SELECT date, total_aud
			FROM networth_history
			ORDER BY date DESC
			%s
		)
		ORDER BY date ASC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = h.db.Query(fmt.Sprintf(query, "LIMIT ?"), limit)
	} else {
		rows, err = h.db.Query(fmt.Sprintf(query, ""))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query net worth history: %w", err)
	}
	defer rows.Close()

	var points []NetWorthPoint
	for rows.Next() {
		p, err := scanNetWorthPoint(rows.Scan)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating net worth history: %w", err)
	}

	return points, nil
}

// NetWorthOn returns the net worth row for a given day with its decoded
// breakdown, or a NotFoundError when no row exists for that day.
func (h *HistoryDB) NetWorthOn(date time.Time) (*NetWorthEntry, error) {
	row := h.db.QueryRow(`
		SELECT date, total_aud, breakdown
		FROM networth_history
		WHERE date = ?
	`, dayUnix(date))

	var dateUnix int64
	var totalStr string
	var blob []byte
	if err := row.Scan(&dateUnix, &totalStr, &blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, &domain.NotFoundError{Entity: "net worth entry", ID: date.Format("2006-01-02")}
		}
		return nil, fmt.Errorf("failed to get net worth entry: %w", err)
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid net worth total in history: %w", err)
	}

	entry := &NetWorthEntry{
		NetWorthPoint: NetWorthPoint{
			Date:     time.Unix(dateUnix, 0).UTC().Format("2006-01-02"),
			TotalAUD: total,
		},
	}
	if len(blob) > 0 {
		if err := msgpack.Unmarshal(blob, &entry.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to decode net worth breakdown: %w", err)
		}
	}

	return entry, nil
}

func scanNetWorthPoint(scan func(dest ...interface{}) error) (NetWorthPoint, error) {
	var p NetWorthPoint
	var dateUnix int64
	var totalStr string

	if err := scan(&dateUnix, &totalStr); err != nil {
		return p, fmt.Errorf("failed to scan net worth point: %w", err)
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return p, fmt.Errorf("invalid net worth total in history: %w", err)
	}

	p.Date = time.Unix(dateUnix, 0).UTC().Format("2006-01-02")
	p.TotalAUD = total
	return p, nil
}

// dayUnix truncates a time to midnight UTC and returns its Unix timestamp
func dayUnix(t time.Time) int64 {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
