// Package domain provides core domain models and types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code. The set is closed: the engine
// aggregates in AUD and converts NZD/USD through it.
type Currency string

const (
	CurrencyAUD Currency = "AUD"
	CurrencyNZD Currency = "NZD"
	CurrencyUSD Currency = "USD"
)

// ParseCurrency validates a currency code string
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyAUD, CurrencyNZD, CurrencyUSD:
		return Currency(s), nil
	}
	return "", &ValidationError{Field: "currency", Message: "unsupported currency: " + s}
}

// HoldingType represents the kind of holding being tracked.
// Tradeable types are priced via live quotes; snapshot types are priced
// via manual balance entries. The type is immutable after creation.
type HoldingType string

const (
	HoldingTypeStock  HoldingType = "stock"
	HoldingTypeETF    HoldingType = "etf"
	HoldingTypeCrypto HoldingType = "crypto"
	HoldingTypeSuper  HoldingType = "super"
	HoldingTypeCash   HoldingType = "cash"
	HoldingTypeDebt   HoldingType = "debt"
)

// ParseHoldingType validates a holding type string
func ParseHoldingType(s string) (HoldingType, error) {
	switch HoldingType(s) {
	case HoldingTypeStock, HoldingTypeETF, HoldingTypeCrypto,
		HoldingTypeSuper, HoldingTypeCash, HoldingTypeDebt:
		return HoldingType(s), nil
	}
	return "", &ValidationError{Field: "type", Message: "unknown holding type: " + s}
}

// IsTradeable reports whether the holding is priced from live quotes
func (t HoldingType) IsTradeable() bool {
	return t == HoldingTypeStock || t == HoldingTypeETF || t == HoldingTypeCrypto
}

// IsSnapshotBased reports whether the holding is priced from manual balance snapshots
func (t HoldingType) IsSnapshotBased() bool {
	return t == HoldingTypeSuper || t == HoldingTypeCash || t == HoldingTypeDebt
}

// TransactionAction represents a ledger event type against a tradeable holding
type TransactionAction string

const (
	ActionBuy      TransactionAction = "BUY"
	ActionSell     TransactionAction = "SELL"
	ActionDividend TransactionAction = "DIVIDEND"
	ActionSplit    TransactionAction = "SPLIT"
)

// ParseTransactionAction validates a transaction action string
func ParseTransactionAction(s string) (TransactionAction, error) {
	switch TransactionAction(s) {
	case ActionBuy, ActionSell, ActionDividend, ActionSplit:
		return TransactionAction(s), nil
	}
	return "", &ValidationError{Field: "action", Message: "unknown transaction action: " + s}
}

// Holding is one tracked asset or liability
type Holding struct {
	CreatedAt time.Time   `json:"created_at"`
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      HoldingType `json:"type"`
	Currency  Currency    `json:"currency"`
	Symbol    string      `json:"symbol,omitempty"`   // quote symbol, tradeable types only
	Exchange  string      `json:"exchange,omitempty"` // optional exchange hint (ASX, NASDAQ, ...)
	Dormant   bool        `json:"dormant"`
	Deleted   bool        `json:"deleted"`
}

// Transaction is an immutable ledger event against a tradeable holding.
// Ordering is by Date ascending, ties broken by CreatedAt then ID
// (insertion order).
type Transaction struct {
	Date      time.Time         `json:"date"`
	CreatedAt time.Time         `json:"created_at"`
	HoldingID string            `json:"holding_id"`
	Action    TransactionAction `json:"action"`
	Currency  Currency          `json:"currency"`
	Quantity  decimal.Decimal   `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Fees      decimal.Decimal   `json:"fees"`
	ID        int64             `json:"id"`
	Deleted   bool              `json:"deleted"`
}

// Snapshot is a point-in-time balance for a snapshot-type holding.
// Month granularity: Month is always normalized to the first of the month.
// At most one non-deleted snapshot exists per (holding, month).
type Snapshot struct {
	Month     time.Time       `json:"month"`
	CreatedAt time.Time       `json:"created_at"`
	HoldingID string          `json:"holding_id"`
	Currency  Currency        `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	ID        int64           `json:"id"`
	Deleted   bool            `json:"deleted"`
}

// PriceQuote is the last known price for a symbol, as cached from the
// quote provider. Past its TTL it is still usable but must be surfaced
// as stale.
type PriceQuote struct {
	FetchedAt     time.Time       `json:"fetched_at"`
	Symbol        string          `json:"symbol"`
	Currency      Currency        `json:"currency"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent float64         `json:"change_percent"`
	ChangeAbs     float64         `json:"change_abs"`
}

// Age returns how long ago the quote was fetched
func (q PriceQuote) Age(now time.Time) time.Duration {
	return now.Sub(q.FetchedAt)
}

// IsStale reports whether the quote is older than the given TTL
func (q PriceQuote) IsStale(ttl time.Duration, now time.Time) bool {
	return q.Age(now) > ttl
}

// RatePairUSDAUD and RatePairNZDAUD are the two base rate pairs the engine
// understands. Each rate is expressed as "1 unit of foreign currency = X AUD".
const (
	RatePairUSDAUD = "USD/AUD"
	RatePairNZDAUD = "NZD/AUD"
)

// RateSet holds the base exchange rates keyed by pair ("USD/AUD", "NZD/AUD").
// AUD itself always converts with a multiplier of 1.
type RateSet map[string]decimal.Decimal

// AUDRate returns the AUD multiplier for a currency: the number of AUD one
// unit of the currency is worth. A currency with no rate in the set is a
// MissingRateError; callers must never substitute 1.0.
func (r RateSet) AUDRate(c Currency) (decimal.Decimal, error) {
	if c == CurrencyAUD {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := r[string(c)+"/AUD"]
	if !ok || rate.IsZero() {
		return decimal.Decimal{}, &MissingRateError{Currency: c}
	}
	return rate, nil
}

// BudgetPeriod is a pay-cycle window. Start is a payday; End is the day
// before the next payday. Periods are contiguous and non-overlapping.
type BudgetPeriod struct {
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	ID                  int64     `json:"id"`
	ExpectedIncomeCents int64     `json:"expected_income_cents"`
	DayCount            int       `json:"day_count"`
}

// Contains reports whether the given date falls inside the period (inclusive)
func (p BudgetPeriod) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// BudgetTransaction is a dated budget entry. Negative AmountCents is
// spending, positive is income. Amounts are integer cents throughout.
type BudgetTransaction struct {
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	SaverKey    string    `json:"saver_key"`
	CategoryKey string    `json:"category_key"`
	Description string    `json:"description,omitempty"`
	ID          int64     `json:"id"`
	PeriodID    int64     `json:"period_id"`
	AmountCents int64     `json:"amount_cents"`
	Deleted     bool      `json:"deleted"`
}

// IsSpend reports whether the transaction is a spending entry
func (t BudgetTransaction) IsSpend() bool {
	return t.AmountCents < 0
}

// SpendCents returns the spend magnitude in cents (0 for income entries)
func (t BudgetTransaction) SpendCents() int64 {
	if t.AmountCents < 0 {
		return -t.AmountCents
	}
	return 0
}
