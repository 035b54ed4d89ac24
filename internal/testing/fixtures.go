package testing

import (
	"time"

	"github.com/aristath/steward/internal/domain"
	"github.com/shopspring/decimal"
)

// NewHoldingFixtures returns a representative set of holdings covering every
// holding type: tradeable (stock, etf, crypto) and balance-based (super,
// cash, debt).
func NewHoldingFixtures() []domain.Holding {
	now := time.Now().UTC()
	return []domain.Holding{
		{
			ID:        "h-vas",
			Name:      "Vanguard Australian Shares",
			Type:      domain.HoldingTypeETF,
			Currency:  domain.CurrencyAUD,
			Symbol:    "VAS.AX",
			Exchange:  "ASX",
			CreatedAt: now,
		},
		{
			ID:        "h-ivv",
			Name:      "iShares S&P 500",
			Type:      domain.HoldingTypeETF,
			Currency:  domain.CurrencyUSD,
			Symbol:    "IVV",
			Exchange:  "NYSE",
			CreatedAt: now,
		},
		{
			ID:        "h-btc",
			Name:      "Bitcoin",
			Type:      domain.HoldingTypeCrypto,
			Currency:  domain.CurrencyUSD,
			Symbol:    "BTC-USD",
			CreatedAt: now,
		},
		{
			ID:        "h-super",
			Name:      "Superannuation",
			Type:      domain.HoldingTypeSuper,
			Currency:  domain.CurrencyAUD,
			CreatedAt: now,
		},
		{
			ID:        "h-offset",
			Name:      "Mortgage Offset",
			Type:      domain.HoldingTypeCash,
			Currency:  domain.CurrencyAUD,
			CreatedAt: now,
		},
		{
			ID:        "h-mortgage",
			Name:      "Home Loan",
			Type:      domain.HoldingTypeDebt,
			Currency:  domain.CurrencyAUD,
			CreatedAt: now,
		},
	}
}

// NewBudgetPeriodFixture returns a 28-day budget period starting at the
// given date.
func NewBudgetPeriodFixture(id int64, start time.Time) domain.BudgetPeriod {
	start = start.UTC().Truncate(24 * time.Hour)
	return domain.BudgetPeriod{
		ID:                  id,
		StartDate:           start,
		EndDate:             start.AddDate(0, 0, 27),
		DayCount:            28,
		ExpectedIncomeCents: 500000,
	}
}

// NewSpendFixture returns a budget spend transaction (negative amount) in
// the given period.
func NewSpendFixture(id, periodID int64, date time.Time, saver, category string, cents int64) domain.BudgetTransaction {
	if cents > 0 {
		cents = -cents
	}
	return domain.BudgetTransaction{
		ID:          id,
		PeriodID:    periodID,
		Date:        date.UTC(),
		SaverKey:    saver,
		CategoryKey: category,
		AmountCents: cents,
		CreatedAt:   date.UTC(),
	}
}

// NewQuoteFixture returns a fresh price quote for a symbol.
func NewQuoteFixture(symbol string, price float64, currency domain.Currency) *domain.PriceQuote {
	return &domain.PriceQuote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(price),
		Currency:  currency,
		FetchedAt: time.Now().UTC(),
	}
}

// NewRateSetFixture returns the standard AUD-pivot rate set used in tests:
// 1 USD = 1.52 AUD, 1 NZD = 0.93 AUD.
func NewRateSetFixture() domain.RateSet {
	return domain.RateSet{
		domain.RatePairUSDAUD: decimal.NewFromFloat(1.52),
		domain.RatePairNZDAUD: decimal.NewFromFloat(0.93),
	}
}
