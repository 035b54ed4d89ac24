// Package anomaly flags unusual spending inside the current budget period.
//
// Baselines are each category's own history over recent periods, never a
// straight-line budget rate, so categories that are naturally front-loaded
// (rent on payday) or volatile (car repairs) are judged against their own
// shape rather than a uniform daily burn.
package anomaly

import (
	"math"
	"sort"

	"github.com/aristath/steward/internal/domain"
)

// Anomaly kinds
const (
	KindRunRate          = "run_rate"
	KindLargeTransaction = "large_transaction"
)

// Thresholds are the configurable detection knobs, loaded from settings
type Thresholds struct {
	// RunRateMultiplier: flag when projected period spend exceeds this
	// multiple of the category's historical period average.
	RunRateMultiplier float64
	// LargeTxMultiplier: flag a single transaction at this multiple of the
	// category's historical average transaction.
	LargeTxMultiplier float64
	// MinProgressPct suppresses run-rate projections early in the period.
	MinProgressPct float64
	// MinSpendCents: categories below this current spend are never flagged.
	MinSpendCents int64
	// BaselinePeriods caps how many prior periods feed the baselines.
	BaselinePeriods int
}

// CategoryAverage is one (saver, category)'s historical baseline
type CategoryAverage struct {
	SaverKey            string  `json:"saver_key"`
	CategoryKey         string  `json:"category_key"`
	AvgTransactionCents float64 `json:"avg_transaction_cents"`
	AvgPeriodTotalCents float64 `json:"avg_period_total_cents"`
	StdDevPeriodCents   float64 `json:"stddev_period_cents"`
	PeriodsObserved     int     `json:"periods_observed"`
}

// PeriodContext describes how far through the current period we are
type PeriodContext struct {
	ElapsedFraction float64 `json:"elapsed_fraction"`
	DaysRemaining   int     `json:"days_remaining"`
	TotalDays       int     `json:"total_days"`
}

// Anomaly is one flagged (saver, category). Values are cents.
type Anomaly struct {
	SaverKey       string  `json:"saver_key"`
	CategoryKey    string  `json:"category_key"`
	Kind           string  `json:"kind"`
	CurrentValue   int64   `json:"current_value"`
	BaselineValue  int64   `json:"baseline_value"`
	TransactionIDs []int64 `json:"transaction_ids"`
}

type categoryKey struct {
	saver    string
	category string
}

// Detect runs both checks over the current period's spending transactions.
// A category with no prior history is never flagged: there is nothing to
// compare it against, and a new category is not an anomaly.
func Detect(current []domain.BudgetTransaction, baselines []CategoryAverage, ctx PeriodContext, th Thresholds) []Anomaly {
	baselineByKey := make(map[categoryKey]CategoryAverage, len(baselines))
	for _, b := range baselines {
		baselineByKey[categoryKey{b.SaverKey, b.CategoryKey}] = b
	}

	type categorySpend struct {
		totalCents int64
		txs        []domain.BudgetTransaction
	}
	spends := make(map[categoryKey]*categorySpend)
	for _, tx := range current {
		if !tx.IsSpend() {
			continue
		}
		key := categoryKey{tx.SaverKey, tx.CategoryKey}
		spend, ok := spends[key]
		if !ok {
			spend = &categorySpend{}
			spends[key] = spend
		}
		spend.totalCents += tx.SpendCents()
		spend.txs = append(spend.txs, tx)
	}

	var anomalies []Anomaly
	for key, spend := range spends {
		baseline, ok := baselineByKey[key]
		if !ok || baseline.PeriodsObserved == 0 {
			continue
		}
		if spend.totalCents < th.MinSpendCents {
			continue
		}

		if a := checkRunRate(key, spend.totalCents, spend.txs, baseline, ctx, th); a != nil {
			anomalies = append(anomalies, *a)
		}
		if a := checkLargeTransactions(key, spend.txs, baseline, th); a != nil {
			anomalies = append(anomalies, *a)
		}
	}

	sort.Slice(anomalies, func(i, j int) bool {
		if anomalies[i].SaverKey != anomalies[j].SaverKey {
			return anomalies[i].SaverKey < anomalies[j].SaverKey
		}
		if anomalies[i].CategoryKey != anomalies[j].CategoryKey {
			return anomalies[i].CategoryKey < anomalies[j].CategoryKey
		}
		return anomalies[i].Kind < anomalies[j].Kind
	})

	return anomalies
}

// checkRunRate projects the category's period-end spend from its pace so
// far and compares it against the historical period total. The 2-sigma term
// keeps naturally volatile categories from being flagged on pace alone.
func checkRunRate(key categoryKey, totalCents int64, txs []domain.BudgetTransaction, baseline CategoryAverage, ctx PeriodContext, th Thresholds) *Anomaly {
	if baseline.AvgPeriodTotalCents <= 0 {
		return nil
	}
	// Projection is meaningless on day zero
	if ctx.ElapsedFraction*100 < th.MinProgressPct || ctx.ElapsedFraction <= 0 {
		return nil
	}

	projected := float64(totalCents) / ctx.ElapsedFraction
	threshold := math.Max(
		th.RunRateMultiplier*baseline.AvgPeriodTotalCents,
		baseline.AvgPeriodTotalCents+2*baseline.StdDevPeriodCents,
	)
	if projected <= threshold {
		return nil
	}

	ids := make([]int64, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}

	return &Anomaly{
		SaverKey:       key.saver,
		CategoryKey:    key.category,
		Kind:           KindRunRate,
		CurrentValue:   int64(math.Round(projected)),
		BaselineValue:  int64(math.Round(baseline.AvgPeriodTotalCents)),
		TransactionIDs: ids,
	}
}

// checkLargeTransactions flags single transactions far above the category's
// historical average transaction size.
func checkLargeTransactions(key categoryKey, txs []domain.BudgetTransaction, baseline CategoryAverage, th Thresholds) *Anomaly {
	if baseline.AvgTransactionCents <= 0 {
		return nil
	}

	cutoff := th.LargeTxMultiplier * baseline.AvgTransactionCents

	var ids []int64
	var largest int64
	for _, tx := range txs {
		if float64(tx.SpendCents()) >= cutoff {
			ids = append(ids, tx.ID)
			if tx.SpendCents() > largest {
				largest = tx.SpendCents()
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	return &Anomaly{
		SaverKey:       key.saver,
		CategoryKey:    key.category,
		Kind:           KindLargeTransaction,
		CurrentValue:   largest,
		BaselineValue:  int64(math.Round(baseline.AvgTransactionCents)),
		TransactionIDs: ids,
	}
}
