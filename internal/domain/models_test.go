package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHoldingType(t *testing.T) {
	valid := []string{"stock", "etf", "crypto", "super", "cash", "debt"}
	for _, s := range valid {
		ht, err := ParseHoldingType(s)
		require.NoError(t, err, "expected %s to parse", s)
		assert.Equal(t, HoldingType(s), ht)
	}

	_, err := ParseHoldingType("bond")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestHoldingTypePartition(t *testing.T) {
	// Every type is exactly one of tradeable or snapshot-based
	all := []HoldingType{
		HoldingTypeStock, HoldingTypeETF, HoldingTypeCrypto,
		HoldingTypeSuper, HoldingTypeCash, HoldingTypeDebt,
	}
	for _, ht := range all {
		assert.NotEqual(t, ht.IsTradeable(), ht.IsSnapshotBased(),
			"type %s must be tradeable xor snapshot-based", ht)
	}

	assert.True(t, HoldingTypeStock.IsTradeable())
	assert.True(t, HoldingTypeCrypto.IsTradeable())
	assert.True(t, HoldingTypeDebt.IsSnapshotBased())
	assert.True(t, HoldingTypeSuper.IsSnapshotBased())
}

func TestParseTransactionAction(t *testing.T) {
	for _, s := range []string{"BUY", "SELL", "DIVIDEND", "SPLIT"} {
		a, err := ParseTransactionAction(s)
		require.NoError(t, err)
		assert.Equal(t, TransactionAction(s), a)
	}

	// Lowercase is rejected - actions are stored uppercase
	_, err := ParseTransactionAction("buy")
	require.Error(t, err)
}

func TestParseCurrency(t *testing.T) {
	for _, s := range []string{"AUD", "NZD", "USD"} {
		c, err := ParseCurrency(s)
		require.NoError(t, err)
		assert.Equal(t, Currency(s), c)
	}

	_, err := ParseCurrency("EUR")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestRateSetAUDRate(t *testing.T) {
	rates := RateSet{
		RatePairUSDAUD: decimal.RequireFromString("1.55"),
		RatePairNZDAUD: decimal.RequireFromString("0.93"),
	}

	// AUD always converts at 1, independent of the set contents
	audRate, err := rates.AUDRate(CurrencyAUD)
	require.NoError(t, err)
	assert.True(t, audRate.Equal(decimal.NewFromInt(1)))

	usdRate, err := rates.AUDRate(CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, usdRate.Equal(decimal.RequireFromString("1.55")))

	// Missing pair fails loudly, never a silent 1.0
	_, err = RateSet{}.AUDRate(CurrencyNZD)
	require.Error(t, err)
	var missing *MissingRateError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, CurrencyNZD, missing.Currency)
}

func TestRateSetZeroRateIsMissing(t *testing.T) {
	rates := RateSet{RatePairUSDAUD: decimal.Zero}
	_, err := rates.AUDRate(CurrencyUSD)
	require.Error(t, err)
	var missing *MissingRateError
	assert.True(t, errors.As(err, &missing))
}

func TestPriceQuoteStaleness(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	quote := PriceQuote{
		Symbol:    "VAS.AX",
		Price:     decimal.RequireFromString("98.40"),
		Currency:  CurrencyAUD,
		FetchedAt: now.Add(-10 * time.Minute),
	}

	assert.False(t, quote.IsStale(15*time.Minute, now))
	assert.True(t, quote.IsStale(5*time.Minute, now))
	assert.Equal(t, 10*time.Minute, quote.Age(now))
}

func TestBudgetPeriodContains(t *testing.T) {
	period := BudgetPeriod{
		StartDate: time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, period.Contains(time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)))
	assert.True(t, period.Contains(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)))
	assert.True(t, period.Contains(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)))
	assert.False(t, period.Contains(time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)))
	assert.False(t, period.Contains(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)))
}

func TestBudgetTransactionSpend(t *testing.T) {
	spend := BudgetTransaction{AmountCents: -4550}
	income := BudgetTransaction{AmountCents: 250000}

	assert.True(t, spend.IsSpend())
	assert.Equal(t, int64(4550), spend.SpendCents())
	assert.False(t, income.IsSpend())
	assert.Equal(t, int64(0), income.SpendCents())
}
