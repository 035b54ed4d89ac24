package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/steward/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// makeTx builds a transaction for replay tests. CreatedAt is derived from the
// id so higher ids sort later on same-date ties unless a test overrides it.
func makeTx(id int64, date string, action domain.TransactionAction, qty, price, fees string) domain.Transaction {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		panic(err)
	}
	return domain.Transaction{
		ID:        id,
		HoldingID: "holding-1",
		Action:    action,
		Date:      day,
		CreatedAt: time.Unix(1750000000+id, 0).UTC(),
		Quantity:  dec(qty),
		UnitPrice: dec(price),
		Fees:      dec(fees),
		Currency:  domain.CurrencyAUD,
	}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, label string) {
	t.Helper()
	assert.True(t, actual.Equal(dec(expected)), "%s = %s, want %s", label, actual, expected)
}

func TestComputePositionEmptyLog(t *testing.T) {
	pos, err := ComputePosition(nil)
	require.NoError(t, err)

	assertDecimal(t, "0", pos.QuantityHeld, "quantity held")
	assertDecimal(t, "0", pos.CostBasis, "cost basis")
	assertDecimal(t, "0", pos.AvgCost, "avg cost")
	assert.Empty(t, pos.Lots)
}

func TestComputePositionBuysAccumulateLots(t *testing.T) {
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10", "1", "0"),
		makeTx(2, "2026-02-05", domain.ActionBuy, "10", "2", "0"),
	})
	require.NoError(t, err)

	assertDecimal(t, "20", pos.QuantityHeld, "quantity held")
	assertDecimal(t, "30", pos.CostBasis, "cost basis")
	assertDecimal(t, "1.5", pos.AvgCost, "avg cost")
	require.Len(t, pos.Lots, 2)
	assertDecimal(t, "10", pos.Lots[0].Cost, "first lot cost")
	assertDecimal(t, "20", pos.Lots[1].Cost, "second lot cost")
}

func TestComputePositionSellConsumesOldestLotFirst(t *testing.T) {
	// Selling exactly the first lot's quantity must leave the second lot's
	// basis untouched: $20, not the $15 an average-cost method would give.
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10", "1", "0"),
		makeTx(2, "2026-02-05", domain.ActionBuy, "10", "2", "0"),
		makeTx(3, "2026-03-05", domain.ActionSell, "10", "3", "0"),
	})
	require.NoError(t, err)

	assertDecimal(t, "10", pos.QuantityHeld, "quantity held")
	assertDecimal(t, "20", pos.CostBasis, "cost basis")
	assertDecimal(t, "2", pos.AvgCost, "avg cost")
	assertDecimal(t, "20", pos.RealizedGain, "realized gain")
	require.Len(t, pos.Lots, 1)
	assert.Equal(t, "2026-02-05", pos.Lots[0].OriginDate.Format("2006-01-02"))
}

func TestComputePositionPartialLotKeepsUnitCost(t *testing.T) {
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10", "2", "0"),
		makeTx(2, "2026-02-05", domain.ActionSell, "4", "3", "0"),
	})
	require.NoError(t, err)

	require.Len(t, pos.Lots, 1)
	assertDecimal(t, "6", pos.Lots[0].Quantity, "remaining lot quantity")
	assertDecimal(t, "12", pos.Lots[0].Cost, "remaining lot cost")
	assertDecimal(t, "2", pos.Lots[0].UnitCost(), "remaining lot unit cost")
	assertDecimal(t, "4", pos.RealizedGain, "realized gain")
}

func TestComputePositionSellSpanningLots(t *testing.T) {
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "5", "1", "0"),
		makeTx(2, "2026-02-05", domain.ActionBuy, "5", "3", "0"),
		makeTx(3, "2026-03-05", domain.ActionSell, "7", "4", "0"),
	})
	require.NoError(t, err)

	// First lot fully consumed ($5), 2 of 5 from the second ($6 of $15)
	assertDecimal(t, "3", pos.QuantityHeld, "quantity held")
	assertDecimal(t, "9", pos.CostBasis, "cost basis")
	assertDecimal(t, "17", pos.RealizedGain, "realized gain")
	require.Len(t, pos.Lots, 1)
	assertDecimal(t, "3", pos.Lots[0].UnitCost(), "surviving lot unit cost")
}

func TestComputePositionSellExactlyHeldDrainsLots(t *testing.T) {
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "5", "2", "0"),
		makeTx(2, "2026-02-05", domain.ActionBuy, "5", "4", "0"),
		makeTx(3, "2026-03-05", domain.ActionSell, "10", "5", "0"),
	})
	require.NoError(t, err)

	assert.Empty(t, pos.Lots)
	assertDecimal(t, "0", pos.QuantityHeld, "quantity held")
	assertDecimal(t, "0", pos.CostBasis, "cost basis")
	assertDecimal(t, "0", pos.AvgCost, "avg cost")
	assertDecimal(t, "20", pos.RealizedGain, "realized gain")
}

func TestComputePositionFeesEnterCostBasis(t *testing.T) {
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10", "100", "9.95"),
	})
	require.NoError(t, err)

	assertDecimal(t, "1009.95", pos.CostBasis, "cost basis")
	assertDecimal(t, "100.995", pos.AvgCost, "avg cost")
}

func TestComputePositionSellFeesReduceProceeds(t *testing.T) {
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10", "1", "0"),
		makeTx(2, "2026-02-05", domain.ActionSell, "10", "2", "1"),
	})
	require.NoError(t, err)

	// proceeds 20 - 1 fee = 19, against basis 10
	assertDecimal(t, "9", pos.RealizedGain, "realized gain")
}

func TestComputePositionDividendNeverTouchesLots(t *testing.T) {
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10", "5", "0"),
		makeTx(2, "2026-02-05", domain.ActionDividend, "10", "0.50", "0"),
	})
	require.NoError(t, err)

	assertDecimal(t, "5", pos.DividendIncome, "dividend income")
	assertDecimal(t, "10", pos.QuantityHeld, "quantity held")
	assertDecimal(t, "50", pos.CostBasis, "cost basis")
	require.Len(t, pos.Lots, 1)
	assertDecimal(t, "50", pos.Lots[0].Cost, "lot cost after dividend")
}

func TestComputePositionSplitPreservesBasisExactly(t *testing.T) {
	// 3 shares at $10 plus an awkward fee: a 3-for-1 split must triple the
	// quantity while the total basis stays exact, not approximately equal.
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "3", "10", "0.01"),
		makeTx(2, "2026-02-05", domain.ActionSplit, "3", "0", "0"),
	})
	require.NoError(t, err)

	assertDecimal(t, "9", pos.QuantityHeld, "quantity held")
	assertDecimal(t, "30.01", pos.CostBasis, "cost basis")
	require.Len(t, pos.Lots, 1)
	assert.True(t, pos.Lots[0].UnitCost().Equal(dec("30.01").Div(dec("9"))),
		"unit cost should shrink by the split ratio")
}

func TestComputePositionSplitThenSell(t *testing.T) {
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10", "6", "0"),
		makeTx(2, "2026-02-05", domain.ActionSplit, "2", "0", "0"),
		makeTx(3, "2026-03-05", domain.ActionSell, "20", "4", "0"),
	})
	require.NoError(t, err)

	// 20 post-split shares carried the full $60 basis; selling all of them
	// at $4 realizes 80 - 60 = 20.
	assertDecimal(t, "0", pos.QuantityHeld, "quantity held")
	assertDecimal(t, "20", pos.RealizedGain, "realized gain")
}

func TestComputePositionQuantityConservation(t *testing.T) {
	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10.5", "3.21", "1.10"),
		makeTx(2, "2026-01-20", domain.ActionBuy, "7.25", "4.87", "1.10"),
		makeTx(3, "2026-02-03", domain.ActionSell, "6.3", "5.55", "1.10"),
		makeTx(4, "2026-02-14", domain.ActionSplit, "2", "0", "0"),
		makeTx(5, "2026-03-01", domain.ActionSell, "9.9", "2.80", "1.10"),
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, lot := range pos.Lots {
		sum = sum.Add(lot.Quantity)
	}
	assert.True(t, sum.Equal(pos.QuantityHeld),
		"lot quantities sum to %s, position says %s", sum, pos.QuantityHeld)

	basis := decimal.Zero
	for _, lot := range pos.Lots {
		basis = basis.Add(lot.Cost)
	}
	assert.True(t, basis.Equal(pos.CostBasis),
		"lot costs sum to %s, position says %s", basis, pos.CostBasis)
}

func TestComputePositionOversellReturnsShortfall(t *testing.T) {
	_, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "5", "2", "0"),
		makeTx(2, "2026-02-05", domain.ActionSell, "8", "3", "0"),
	})

	var insufficientErr *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, "holding-1", insufficientErr.HoldingID)
	assertDecimal(t, "8", insufficientErr.Requested, "requested")
	assertDecimal(t, "5", insufficientErr.Held, "held")
}

func TestComputePositionSortsByDate(t *testing.T) {
	// Slice order is insertion order, not date order: the sell dated before
	// the buy must fail even though the buy appears first in the slice.
	_, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-03-05", domain.ActionBuy, "10", "1", "0"),
		makeTx(2, "2026-01-05", domain.ActionSell, "10", "2", "0"),
	})

	var insufficientErr *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficientErr)
}

func TestComputePositionSameDateTieBreaksByCreation(t *testing.T) {
	buy := makeTx(1, "2026-01-05", domain.ActionBuy, "10", "1", "0")
	sell := makeTx(2, "2026-01-05", domain.ActionSell, "10", "2", "0")

	// Buy created first: same-date sell succeeds.
	pos, err := ComputePosition([]domain.Transaction{sell, buy})
	require.NoError(t, err)
	assertDecimal(t, "0", pos.QuantityHeld, "quantity held")

	// Sell created first: nothing is held when it replays.
	sell.CreatedAt = buy.CreatedAt.Add(-time.Hour)
	_, err = ComputePosition([]domain.Transaction{buy, sell})
	var insufficientErr *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficientErr)
}

func TestComputePositionSameTimestampTieBreaksByID(t *testing.T) {
	buy := makeTx(1, "2026-01-05", domain.ActionBuy, "10", "1", "0")
	sell := makeTx(2, "2026-01-05", domain.ActionSell, "10", "2", "0")
	sell.CreatedAt = buy.CreatedAt

	pos, err := ComputePosition([]domain.Transaction{sell, buy})
	require.NoError(t, err)
	assertDecimal(t, "0", pos.QuantityHeld, "quantity held")
}

func TestComputePositionSkipsDeletedRows(t *testing.T) {
	sell := makeTx(2, "2026-02-05", domain.ActionSell, "10", "2", "0")
	sell.Deleted = true

	pos, err := ComputePosition([]domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10", "1", "0"),
		sell,
	})
	require.NoError(t, err)

	assertDecimal(t, "10", pos.QuantityHeld, "quantity held")
	assertDecimal(t, "10", pos.CostBasis, "cost basis")
}

func TestComputePositionUnknownAction(t *testing.T) {
	bad := makeTx(1, "2026-01-05", "TRANSFER", "10", "1", "0")

	_, err := ComputePosition([]domain.Transaction{bad})
	assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
}

func TestValidateSellCountsOnlyPriorRows(t *testing.T) {
	existing := []domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10", "1", "0"),
		makeTx(2, "2026-03-05", domain.ActionBuy, "90", "1", "0"),
	}

	// Backdated between the two buys: only the first 10 are held then.
	candidate := makeTx(3, "2026-02-05", domain.ActionSell, "10", "2", "0")
	assert.NoError(t, ValidateSell(existing, candidate))

	candidate.Quantity = dec("11")
	err := ValidateSell(existing, candidate)
	var insufficientErr *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficientErr)
	assertDecimal(t, "10", insufficientErr.Held, "held at candidate date")
}

func TestValidateSellSameDateRowsCount(t *testing.T) {
	existing := []domain.Transaction{
		makeTx(1, "2026-02-05", domain.ActionBuy, "10", "1", "0"),
	}

	// Same date as the buy: the buy was recorded earlier, so it replays first.
	candidate := makeTx(2, "2026-02-05", domain.ActionSell, "10", "2", "0")
	assert.NoError(t, ValidateSell(existing, candidate))
}

func TestValidateSellSeesPriorSells(t *testing.T) {
	existing := []domain.Transaction{
		makeTx(1, "2026-01-05", domain.ActionBuy, "10", "1", "0"),
		makeTx(2, "2026-02-05", domain.ActionSell, "6", "2", "0"),
	}

	candidate := makeTx(3, "2026-03-05", domain.ActionSell, "5", "2", "0")
	err := ValidateSell(existing, candidate)
	var insufficientErr *domain.InsufficientQuantityError
	require.ErrorAs(t, err, &insufficientErr)
	assertDecimal(t, "4", insufficientErr.Held, "held after prior sell")
}

func TestLotUnitCostZeroQuantity(t *testing.T) {
	lot := Lot{Quantity: decimal.Zero, Cost: dec("10")}
	assertDecimal(t, "0", lot.UnitCost(), "unit cost")
}
