package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/steward/internal/domain"
)

type stubHoldings struct {
	holdings []domain.Holding
}

func (s *stubHoldings) ListTradeable() ([]domain.Holding, error) {
	return s.holdings, nil
}

func setupService(t *testing.T, holdings []domain.Holding) (*Service, *HistoryDB) {
	t.Helper()
	h := setupTestDB(t)
	svc := NewService(h, &stubHoldings{holdings: holdings}, zerolog.New(nil).Level(zerolog.Disabled))
	return svc, h
}

func TestSparklinesWeeklyAggregation(t *testing.T) {
	svc, h := setupService(t, []domain.Holding{
		{ID: "h1", Symbol: "VAS.AX", Type: domain.HoldingTypeETF},
	})

	// Two prices in one ISO week, recent enough for the 1Y window
	monday := time.Now().UTC().AddDate(0, 0, -14)
	for !(monday.Weekday() == time.Monday) {
		monday = monday.AddDate(0, 0, -1)
	}
	require.NoError(t, h.RecordPrice("VAS.AX", monday, dec(t, "100"), domain.CurrencyAUD))
	require.NoError(t, h.RecordPrice("VAS.AX", monday.AddDate(0, 0, 2), dec(t, "110"), domain.CurrencyAUD))

	sparklines, err := svc.Sparklines("1Y")
	require.NoError(t, err)
	require.Contains(t, sparklines, "VAS.AX")

	points := sparklines["VAS.AX"]
	require.Len(t, points, 1)

	year, week := monday.ISOWeek()
	assert.Equal(t, fmt.Sprintf("%d-W%02d", year, week), points[0].Time)
	assert.InDelta(t, 105, points[0].Value, 1e-9)
}

func TestSparklinesSkipsSymbolsWithoutData(t *testing.T) {
	svc, h := setupService(t, []domain.Holding{
		{ID: "h1", Symbol: "VAS.AX", Type: domain.HoldingTypeETF},
		{ID: "h2", Symbol: "GHOST", Type: domain.HoldingTypeStock},
	})

	require.NoError(t, h.RecordPrice("VAS.AX", time.Now().UTC().AddDate(0, 0, -7), dec(t, "100"), domain.CurrencyAUD))

	sparklines, err := svc.Sparklines("1Y")
	require.NoError(t, err)
	assert.Contains(t, sparklines, "VAS.AX")
	assert.NotContains(t, sparklines, "GHOST")
}

func TestSparklinesInvalidPeriod(t *testing.T) {
	svc, _ := setupService(t, nil)

	_, err := svc.Sparklines("2W")
	assert.True(t, domain.IsValidation(err))
}

func TestSparklinesMonthlyBuckets(t *testing.T) {
	svc, h := setupService(t, []domain.Holding{
		{ID: "h1", Symbol: "VAS.AX", Type: domain.HoldingTypeETF},
	})

	// Three prices across two months inside the 5Y window
	require.NoError(t, h.RecordPrice("VAS.AX", time.Now().UTC().AddDate(0, -2, 0), dec(t, "90"), domain.CurrencyAUD))
	require.NoError(t, h.RecordPrice("VAS.AX", time.Now().UTC().AddDate(0, -1, 0), dec(t, "100"), domain.CurrencyAUD))
	require.NoError(t, h.RecordPrice("VAS.AX", time.Now().UTC().AddDate(0, -1, 1), dec(t, "110"), domain.CurrencyAUD))

	sparklines, err := svc.Sparklines("5Y")
	require.NoError(t, err)
	require.Contains(t, sparklines, "VAS.AX")
	points := sparklines["VAS.AX"]
	require.True(t, len(points) >= 1)

	// Bucket labels are YYYY-MM and ascending
	for i := range points {
		assert.Len(t, points[i].Time, 7)
		if i > 0 {
			assert.Less(t, points[i-1].Time, points[i].Time)
		}
	}
}

func TestNetWorthChartRangeFilter(t *testing.T) {
	svc, h := setupService(t, nil)

	require.NoError(t, h.RecordNetWorth(time.Now().UTC().AddDate(0, -2, 0), dec(t, "100000"), nil))
	require.NoError(t, h.RecordNetWorth(time.Now().UTC().AddDate(0, 0, -5), dec(t, "105000"), nil))

	all, err := svc.NetWorthChart("all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	recent, err := svc.NetWorthChart("1M")
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.InDelta(t, 105000, recent[0].Value, 1e-9)

	_, err = svc.NetWorthChart("2W")
	assert.True(t, domain.IsValidation(err))
}
