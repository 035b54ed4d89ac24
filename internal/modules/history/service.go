package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/steward/internal/domain"
)

// ChartDataPoint is a single point on a chart
type ChartDataPoint struct {
	Time  string  `json:"time"`  // YYYY-MM-DD or aggregation bucket
	Value float64 `json:"value"` // price or total, chart axis value
}

// HoldingLister supplies the tradeable holdings whose symbols get sparklines
type HoldingLister interface {
	ListTradeable() ([]domain.Holding, error)
}

// Service generates chart data from the history database
type Service struct {
	historyDB *HistoryDB
	holdings  HoldingLister
	log       zerolog.Logger
}

// NewService creates a new history chart service
func NewService(historyDB *HistoryDB, holdings HoldingLister, log zerolog.Logger) *Service {
	return &Service{
		historyDB: historyDB,
		holdings:  holdings,
		log:       log.With().Str("service", "history").Logger(),
	}
}

// Sparklines returns aggregated price series per tradeable holding symbol.
// period is "1Y" (weekly buckets) or "5Y" (monthly buckets). A holding
// whose series fails to load is skipped, never fails the batch.
func (s *Service) Sparklines(period string) (map[string][]ChartDataPoint, error) {
	var startDate string
	var groupBy string

	switch period {
	case "1Y":
		startDate = time.Now().AddDate(-1, 0, 0).Format("2006-01-02")
		groupBy = "week"
	case "5Y":
		startDate = time.Now().AddDate(-5, 0, 0).Format("2006-01-02")
		groupBy = "month"
	default:
		return nil, &domain.ValidationError{Field: "period", Message: "must be 1Y or 5Y"}
	}

	holdings, err := s.holdings.ListTradeable()
	if err != nil {
		return nil, fmt.Errorf("failed to list tradeable holdings: %w", err)
	}

	result := make(map[string][]ChartDataPoint)
	for _, holding := range holdings {
		if holding.Symbol == "" {
			continue
		}

		points, err := s.aggregatedPrices(holding.Symbol, startDate, groupBy)
		if err != nil {
			s.log.Debug().
				Err(err).
				Str("symbol", holding.Symbol).
				Msg("Failed to aggregate prices for symbol")
			continue
		}
		if len(points) > 0 {
			result[holding.Symbol] = points
		}
	}

	return result, nil
}

// aggregatedPrices buckets a symbol's daily prices by ISO week or by month
// and averages each bucket
func (s *Service) aggregatedPrices(symbol, startDate, groupBy string) ([]ChartDataPoint, error) {
	daily, err := s.historyDB.PriceSeries(symbol, 0)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string][]float64)
	for _, p := range daily {
		if p.Date < startDate {
			continue
		}

		var bucket string
		if groupBy == "week" {
			t, err := time.Parse("2006-01-02", p.Date)
			if err != nil {
				continue
			}
			year, week := t.ISOWeek()
			bucket = fmt.Sprintf("%d-W%02d", year, week)
		} else {
			bucket = p.Date[:7] // YYYY-MM
		}

		value, _ := p.Price.Float64()
		buckets[bucket] = append(buckets[bucket], value)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var points []ChartDataPoint
	for _, k := range keys {
		values := buckets[k]
		var sum float64
		for _, v := range values {
			sum += v
		}
		points = append(points, ChartDataPoint{
			Time:  k,
			Value: sum / float64(len(values)),
		})
	}

	return points, nil
}

// NetWorthChart returns the daily net worth series for a date range,
// oldest first. rangeStr is one of 1M/3M/6M/1Y/5Y/all (empty means all).
func (s *Service) NetWorthChart(rangeStr string) ([]ChartDataPoint, error) {
	series, err := s.historyDB.NetWorthSeries(0)
	if err != nil {
		return nil, fmt.Errorf("failed to load net worth history: %w", err)
	}

	startDate, err := parseDateRange(rangeStr)
	if err != nil {
		return nil, err
	}

	var points []ChartDataPoint
	for _, p := range series {
		if startDate != "" && p.Date < startDate {
			continue
		}
		value, _ := p.TotalAUD.Float64()
		points = append(points, ChartDataPoint{Time: p.Date, Value: value})
	}

	return points, nil
}

// parseDateRange converts a range string to an inclusive start date
func parseDateRange(rangeStr string) (string, error) {
	if rangeStr == "all" || rangeStr == "" {
		return "", nil
	}

	now := time.Now()
	var startDate time.Time

	switch rangeStr {
	case "1M":
		startDate = now.AddDate(0, -1, 0)
	case "3M":
		startDate = now.AddDate(0, -3, 0)
	case "6M":
		startDate = now.AddDate(0, -6, 0)
	case "1Y":
		startDate = now.AddDate(-1, 0, 0)
	case "5Y":
		startDate = now.AddDate(-5, 0, 0)
	default:
		return "", &domain.ValidationError{Field: "range", Message: "must be 1M, 3M, 6M, 1Y, 5Y or all"}
	}

	return startDate.Format("2006-01-02"), nil
}
