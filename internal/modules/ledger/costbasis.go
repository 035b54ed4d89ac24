// Package ledger implements FIFO cost-basis accounting for tradeable holdings.
//
// Positions are never stored: they are derived by replaying a holding's
// transaction log in order. That makes soft delete and restore trivially
// correct (the next replay simply no longer sees, or sees again, the row)
// at the cost of recomputing on read, which is cheap at personal-portfolio
// transaction counts.
package ledger

import (
	"sort"
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/shopspring/decimal"
)

// Lot is a FIFO slice of a holding created by a BUY: the quantity still held
// from that purchase and its fees-adjusted cost basis. Lots are consumed
// oldest-first by subsequent SELLs.
type Lot struct {
	OriginDate time.Time       `json:"origin_date"`
	Quantity   decimal.Decimal `json:"quantity"`
	Cost       decimal.Decimal `json:"cost_basis"`
}

// UnitCost returns the per-unit cost basis of the lot
func (l Lot) UnitCost() decimal.Decimal {
	if l.Quantity.IsZero() {
		return decimal.Zero
	}
	return l.Cost.Div(l.Quantity)
}

// Position is the replayed state of a holding's transaction log as of "now".
type Position struct {
	QuantityHeld   decimal.Decimal `json:"quantity_held"`
	CostBasis      decimal.Decimal `json:"cost_basis"`
	AvgCost        decimal.Decimal `json:"avg_cost"`
	RealizedGain   decimal.Decimal `json:"realized_gain"`
	DividendIncome decimal.Decimal `json:"dividend_income"`
	Lots           []Lot           `json:"lots"`
}

// SortTransactions orders a transaction log for FIFO replay: date ascending,
// ties broken by creation time then id (insertion order).
func SortTransactions(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.Before(txs[j].CreatedAt)
		}
		return txs[i].ID < txs[j].ID
	})
}

// ComputePosition replays a holding's transactions in FIFO order and returns
// the resulting position. The input does not need to be pre-sorted; deleted
// rows are skipped.
//
// Row encodings: BUY and SELL carry a quantity and per-unit price, with fees
// added to (BUY) or subtracted from (SELL) the cash side. DIVIDEND carries
// cash income as quantity*unitPrice minus fees and never touches lots or
// quantity held. SPLIT carries the ratio in Quantity (2 for a 2-for-1 split)
// and rescales every open lot's quantity; lot cost is untouched, so total
// basis is preserved exactly and per-unit cost shrinks by the ratio.
//
// A SELL exceeding the quantity held at its point in the sequence returns an
// InsufficientQuantityError naming the shortfall.
func ComputePosition(txs []domain.Transaction) (Position, error) {
	ordered := make([]domain.Transaction, len(txs))
	copy(ordered, txs)
	SortTransactions(ordered)

	pos := Position{
		QuantityHeld:   decimal.Zero,
		CostBasis:      decimal.Zero,
		AvgCost:        decimal.Zero,
		RealizedGain:   decimal.Zero,
		DividendIncome: decimal.Zero,
	}
	var open []Lot

	for _, tx := range ordered {
		if tx.Deleted {
			continue
		}

		switch tx.Action {
		case domain.ActionBuy:
			cost := tx.Quantity.Mul(tx.UnitPrice).Add(tx.Fees)
			open = append(open, Lot{OriginDate: tx.Date, Quantity: tx.Quantity, Cost: cost})

		case domain.ActionSell:
			held := totalQuantity(open)
			if tx.Quantity.GreaterThan(held) {
				return Position{}, &domain.InsufficientQuantityError{
					HoldingID: tx.HoldingID,
					Requested: tx.Quantity,
					Held:      held,
				}
			}
			proceeds := tx.Quantity.Mul(tx.UnitPrice).Sub(tx.Fees)
			var costOfSold decimal.Decimal
			open, costOfSold = consume(open, tx.Quantity)
			pos.RealizedGain = pos.RealizedGain.Add(proceeds.Sub(costOfSold))

		case domain.ActionDividend:
			income := tx.Quantity.Mul(tx.UnitPrice).Sub(tx.Fees)
			pos.DividendIncome = pos.DividendIncome.Add(income)

		case domain.ActionSplit:
			for i := range open {
				open[i].Quantity = open[i].Quantity.Mul(tx.Quantity)
			}

		default:
			return Position{}, &domain.ValidationError{
				Field:   "action",
				Message: "unknown transaction action: " + string(tx.Action),
			}
		}
	}

	pos.Lots = open
	pos.QuantityHeld = totalQuantity(open)
	for _, lot := range open {
		pos.CostBasis = pos.CostBasis.Add(lot.Cost)
	}
	if pos.QuantityHeld.IsPositive() {
		pos.AvgCost = pos.CostBasis.Div(pos.QuantityHeld)
	}

	return pos, nil
}

// ValidateSell checks a prospective SELL against the quantity held strictly
// before it in the FIFO sequence: existing rows dated after the candidate
// are ignored, same-date rows count because they were inserted earlier and
// therefore sort first.
func ValidateSell(existing []domain.Transaction, candidate domain.Transaction) error {
	prior := make([]domain.Transaction, 0, len(existing))
	for _, tx := range existing {
		if !tx.Date.After(candidate.Date) {
			prior = append(prior, tx)
		}
	}

	pos, err := ComputePosition(prior)
	if err != nil {
		return err
	}

	if candidate.Quantity.GreaterThan(pos.QuantityHeld) {
		return &domain.InsufficientQuantityError{
			HoldingID: candidate.HoldingID,
			Requested: candidate.Quantity,
			Held:      pos.QuantityHeld,
		}
	}
	return nil
}

// consume removes quantity from the front of the lot queue, FIFO. Returns
// the remaining lots and the cost basis of what was sold. A partially
// consumed lot keeps its proportional remaining basis, so its per-unit cost
// is unchanged; a fully consumed lot is dropped from the queue.
func consume(open []Lot, quantity decimal.Decimal) ([]Lot, decimal.Decimal) {
	remaining := make([]Lot, 0, len(open))
	costOfSold := decimal.Zero

	for _, lot := range open {
		if quantity.IsZero() {
			remaining = append(remaining, lot)
			continue
		}

		if lot.Quantity.GreaterThan(quantity) {
			soldCost := lot.Cost.Mul(quantity).Div(lot.Quantity)
			remaining = append(remaining, Lot{
				OriginDate: lot.OriginDate,
				Quantity:   lot.Quantity.Sub(quantity),
				Cost:       lot.Cost.Sub(soldCost),
			})
			costOfSold = costOfSold.Add(soldCost)
			quantity = decimal.Zero
		} else {
			costOfSold = costOfSold.Add(lot.Cost)
			quantity = quantity.Sub(lot.Quantity)
		}
	}

	return remaining, costOfSold
}

func totalQuantity(lots []Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.Quantity)
	}
	return total
}
