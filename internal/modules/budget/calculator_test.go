package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaydayWeekdayStaysOn14th(t *testing.T) {
	// April 2026: the 14th is a Tuesday
	assert.Equal(t, "2026-04-14", Payday(2026, time.April).Format(dateLayout))
}

func TestPaydaySaturdayMovesTo13th(t *testing.T) {
	// February 2026: the 14th is a Saturday
	assert.Equal(t, "2026-02-13", Payday(2026, time.February).Format(dateLayout))
}

func TestPaydaySundayMovesTo12th(t *testing.T) {
	// June 2026: the 14th is a Sunday
	assert.Equal(t, "2026-06-12", Payday(2026, time.June).Format(dateLayout))
}

func TestPaydayNeverMovesForward(t *testing.T) {
	// March 2026: the 14th is a Saturday, so payday is Friday the 13th
	assert.Equal(t, "2026-03-13", Payday(2026, time.March).Format(dateLayout))
}

func TestGeneratePeriod(t *testing.T) {
	p := GeneratePeriod(2026, time.February)

	assert.Equal(t, "2026-02-13", p.StartDate.Format(dateLayout))
	// March payday is the 13th, so the period ends March 12
	assert.Equal(t, "2026-03-12", p.EndDate.Format(dateLayout))
	assert.Equal(t, 28, p.DayCount)
}

func TestGeneratePeriodCrossesYear(t *testing.T) {
	p := GeneratePeriod(2026, time.December)

	assert.Equal(t, "2026-12-14", p.StartDate.Format(dateLayout))
	// January 2027: the 14th is a Thursday
	assert.Equal(t, "2027-01-13", p.EndDate.Format(dateLayout))
}

func TestPeriodsAreContiguous(t *testing.T) {
	// Every month's period must end exactly one day before the next starts.
	for month := time.January; month <= time.November; month++ {
		current := GeneratePeriod(2026, month)
		next := GeneratePeriod(2026, month+1)

		assert.Equal(t,
			next.StartDate.AddDate(0, 0, -1),
			current.EndDate,
			"gap between %s and %s periods", month, month+1,
		)
	}
}

func TestPeriodForDate(t *testing.T) {
	cases := []struct {
		date      string
		wantStart string
	}{
		{"2026-02-13", "2026-02-13"}, // payday itself
		{"2026-02-20", "2026-02-13"}, // mid-period
		{"2026-03-12", "2026-02-13"}, // last day
		{"2026-03-13", "2026-03-13"}, // next payday
		{"2026-02-12", "2026-01-14"}, // day before a payday → previous period
		{"2026-01-05", "2025-12-12"}, // early January → December period
	}

	for _, tc := range cases {
		p := PeriodForDate(date(tc.date))
		assert.Equal(t, tc.wantStart, p.StartDate.Format(dateLayout), "date %s", tc.date)
		assert.True(t, p.Contains(date(tc.date)), "period for %s must contain it", tc.date)
	}
}

func TestElapsedFraction(t *testing.T) {
	p := GeneratePeriod(2026, time.February) // 28 days, Feb 13 - Mar 12

	assert.InDelta(t, 1.0/28.0, ElapsedFraction(p, date("2026-02-13")), 1e-9)
	assert.InDelta(t, 14.0/28.0, ElapsedFraction(p, date("2026-02-26")), 1e-9)
	assert.InDelta(t, 1.0, ElapsedFraction(p, date("2026-03-12")), 1e-9)

	// Out-of-period dates clamp
	assert.Equal(t, 0.0, ElapsedFraction(p, date("2026-02-12")))
	assert.Equal(t, 1.0, ElapsedFraction(p, date("2026-03-13")))
}
