package anomaly

import (
	"sort"

	"github.com/aristath/steward/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// BuildBaselines computes per-(saver, category) averages from the prior
// periods' transactions.
//
// Period totals include zeroes for periods where the category had no spend:
// a category that spends $600 every third period has a real average of $200
// per period, not $600. PeriodsObserved counts only the periods where the
// category actually appeared; the zero-history rule keys off that.
func BuildBaselines(priorPeriods []domain.BudgetPeriod, txs []domain.BudgetTransaction) []CategoryAverage {
	if len(priorPeriods) == 0 {
		return nil
	}

	type accumulator struct {
		perPeriodCents map[int64]int64 // period id -> total spend
		totalCents     int64
		txCount        int
	}

	accs := make(map[categoryKey]*accumulator)
	for _, tx := range txs {
		if !tx.IsSpend() {
			continue
		}
		key := categoryKey{tx.SaverKey, tx.CategoryKey}
		acc, ok := accs[key]
		if !ok {
			acc = &accumulator{perPeriodCents: make(map[int64]int64)}
			accs[key] = acc
		}
		acc.perPeriodCents[tx.PeriodID] += tx.SpendCents()
		acc.totalCents += tx.SpendCents()
		acc.txCount++
	}

	baselines := make([]CategoryAverage, 0, len(accs))
	for key, acc := range accs {
		totals := make([]float64, 0, len(priorPeriods))
		for _, p := range priorPeriods {
			totals = append(totals, float64(acc.perPeriodCents[p.ID]))
		}

		avg := stat.Mean(totals, nil)
		stddev := 0.0
		if len(totals) >= 2 {
			stddev = stat.StdDev(totals, nil)
		}

		baselines = append(baselines, CategoryAverage{
			SaverKey:            key.saver,
			CategoryKey:         key.category,
			AvgTransactionCents: float64(acc.totalCents) / float64(acc.txCount),
			AvgPeriodTotalCents: avg,
			StdDevPeriodCents:   stddev,
			PeriodsObserved:     len(acc.perPeriodCents),
		})
	}

	sort.Slice(baselines, func(i, j int) bool {
		if baselines[i].SaverKey != baselines[j].SaverKey {
			return baselines[i].SaverKey < baselines[j].SaverKey
		}
		return baselines[i].CategoryKey < baselines[j].CategoryKey
	})

	return baselines
}
