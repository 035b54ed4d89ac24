// Package networth aggregates every holding into a single AUD-denominated
// net worth figure.
//
// The calculation is a pure function over already-loaded data: holdings,
// replayed ledger positions, cached quotes, balance snapshots and the
// current rate set. It performs no I/O and no writes, so it is safe to run
// on every dashboard refresh.
package networth

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/aristath/steward/internal/modules/currency"
	"github.com/aristath/steward/internal/modules/ledger"
	"github.com/shopspring/decimal"
)

// Stale reasons attached to holdings whose contribution is degraded.
// price_expired and snapshot_old mean a stale value still contributes;
// price_missing and snapshot_missing mean the holding contributes zero.
const (
	StalePriceExpired    = "price_expired"
	StalePriceMissing    = "price_missing"
	StaleSnapshotOld     = "snapshot_old"
	StaleSnapshotMissing = "snapshot_missing"
)

// HoldingInput is one holding plus whatever pricing data could be loaded
// for it. Position is set for tradeable holdings, Snapshot for the rest;
// Quote may be nil when the symbol has never been cached.
type HoldingInput struct {
	Holding  domain.Holding
	Position *ledger.Position
	Quote    *domain.PriceQuote
	Snapshot *domain.Snapshot
}

// Input carries everything Calculate needs
type Input struct {
	Holdings []HoldingInput
	Rates    domain.RateSet
	Now      time.Time
	// PriceTTL is the age beyond which a cached quote is flagged stale.
	PriceTTL time.Duration
	// SnapshotStaleAfter is how far a carried-forward snapshot may predate
	// SnapshotStaleAnchor before it is flagged stale. Callers default it to
	// one budget period.
	SnapshotStaleAfter time.Duration
	// SnapshotStaleAnchor is the point staleness is measured from: the
	// current budget period's start. Zero falls back to Now, which is
	// stricter by however far the period has progressed.
	SnapshotStaleAnchor time.Time
}

// HoldingValue is one holding's contribution to the total
type HoldingValue struct {
	HoldingID   string              `json:"holding_id"`
	Name        string              `json:"name"`
	Type        domain.HoldingType  `json:"type"`
	Currency    domain.Currency     `json:"currency"`
	Symbol      string              `json:"symbol,omitempty"`
	NativeValue decimal.Decimal     `json:"native_value"`
	ValueAUD    decimal.Decimal     `json:"value_aud"`
	Stale       bool                `json:"stale"`
	StaleReason string              `json:"stale_reason,omitempty"`
}

// TypeBreakdown groups holding values by type
type TypeBreakdown struct {
	Type     domain.HoldingType `json:"type"`
	ValueAUD decimal.Decimal    `json:"value_aud"`
	Holdings []HoldingValue     `json:"holdings"`
}

// StaleHolding names a holding whose contribution is degraded and why
type StaleHolding struct {
	HoldingID string `json:"holding_id"`
	Reason    string `json:"reason"`
}

// Result is the aggregated net worth picture. All values are AUD; debt is
// reported as a positive magnitude in TotalDebt and subtracted in NetWorth.
type Result struct {
	NetWorth      decimal.Decimal `json:"net_worth"`
	TotalAssets   decimal.Decimal `json:"total_assets"`
	TotalDebt     decimal.Decimal `json:"total_debt"`
	Breakdown     []TypeBreakdown `json:"breakdown"`
	StaleHoldings []StaleHolding  `json:"stale_holdings"`
	HasStaleData  bool            `json:"has_stale_data"`
	CalculatedAt  time.Time       `json:"calculated_at"`
}

// breakdownOrder fixes the display order of holding types
var breakdownOrder = map[domain.HoldingType]int{
	domain.HoldingTypeStock:  0,
	domain.HoldingTypeETF:    1,
	domain.HoldingTypeCrypto: 2,
	domain.HoldingTypeSuper:  3,
	domain.HoldingTypeCash:   4,
	domain.HoldingTypeDebt:   5,
}

// Calculate aggregates the input holdings into a net worth result.
// Dormant holdings still count: dormancy only exempts a holding from price
// refresh, not from the balance sheet. A missing exchange rate for any
// contributing holding fails the whole calculation; partial totals in the
// wrong currency are worse than no answer.
func Calculate(in Input) (*Result, error) {
	result := &Result{
		NetWorth:      decimal.Zero,
		TotalAssets:   decimal.Zero,
		TotalDebt:     decimal.Zero,
		StaleHoldings: []StaleHolding{},
		CalculatedAt:  in.Now,
	}

	byType := make(map[domain.HoldingType]*TypeBreakdown)

	for _, hi := range in.Holdings {
		if hi.Holding.Deleted {
			continue
		}

		value, err := valueHolding(hi, in)
		if err != nil {
			return nil, fmt.Errorf("failed to value holding %s: %w", hi.Holding.ID, err)
		}

		if value.Stale {
			result.StaleHoldings = append(result.StaleHoldings, StaleHolding{
				HoldingID: value.HoldingID,
				Reason:    value.StaleReason,
			})
		}

		if hi.Holding.Type == domain.HoldingTypeDebt {
			result.TotalDebt = result.TotalDebt.Add(value.ValueAUD)
		} else {
			result.TotalAssets = result.TotalAssets.Add(value.ValueAUD)
		}

		group, ok := byType[hi.Holding.Type]
		if !ok {
			group = &TypeBreakdown{Type: hi.Holding.Type, ValueAUD: decimal.Zero}
			byType[hi.Holding.Type] = group
		}
		group.ValueAUD = group.ValueAUD.Add(value.ValueAUD)
		group.Holdings = append(group.Holdings, value)
	}

	result.NetWorth = result.TotalAssets.Sub(result.TotalDebt)
	result.HasStaleData = len(result.StaleHoldings) > 0

	result.Breakdown = make([]TypeBreakdown, 0, len(byType))
	for _, group := range byType {
		result.Breakdown = append(result.Breakdown, *group)
	}
	sort.Slice(result.Breakdown, func(i, j int) bool {
		return breakdownOrder[result.Breakdown[i].Type] < breakdownOrder[result.Breakdown[j].Type]
	})

	return result, nil
}

// valueHolding computes one holding's native value and its AUD contribution
func valueHolding(hi HoldingInput, in Input) (HoldingValue, error) {
	value := HoldingValue{
		HoldingID: hi.Holding.ID,
		Name:      hi.Holding.Name,
		Type:      hi.Holding.Type,
		Currency:  hi.Holding.Currency,
		Symbol:    hi.Holding.Symbol,
	}

	var native decimal.Decimal
	var nativeCurrency domain.Currency

	switch {
	case hi.Holding.Type.IsTradeable():
		if hi.Quote == nil {
			// Never cached: contributes nothing, flagged distinctly from an
			// expired quote.
			value.Stale = true
			value.StaleReason = StalePriceMissing
			value.NativeValue = decimal.Zero
			value.ValueAUD = decimal.Zero
			return value, nil
		}

		quantity := decimal.Zero
		if hi.Position != nil {
			quantity = hi.Position.QuantityHeld
		}
		native = quantity.Mul(hi.Quote.Price)
		nativeCurrency = hi.Quote.Currency

		if hi.Quote.IsStale(in.PriceTTL, in.Now) {
			value.Stale = true
			value.StaleReason = StalePriceExpired
		}

	default: // snapshot-based: super, cash, debt
		if hi.Snapshot == nil {
			value.Stale = true
			value.StaleReason = StaleSnapshotMissing
			value.NativeValue = decimal.Zero
			value.ValueAUD = decimal.Zero
			return value, nil
		}

		native = hi.Snapshot.Balance
		nativeCurrency = hi.Snapshot.Currency

		anchor := in.SnapshotStaleAnchor
		if anchor.IsZero() {
			anchor = in.Now
		}
		if in.SnapshotStaleAfter > 0 && anchor.Sub(hi.Snapshot.Month) > in.SnapshotStaleAfter {
			value.Stale = true
			value.StaleReason = StaleSnapshotOld
		}
	}

	aud, err := currency.ToAUD(native, nativeCurrency, in.Rates)
	if err != nil {
		return HoldingValue{}, err
	}

	value.NativeValue = native
	value.ValueAUD = aud
	return value, nil
}
