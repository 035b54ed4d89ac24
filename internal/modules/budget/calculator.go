// Package budget manages pay-cycle periods and day-to-day budget
// transactions. Periods run payday to day-before-next-payday, so every
// calendar day belongs to exactly one period.
package budget

import (
	"time"

	"github.com/aristath/steward/internal/domain"
)

const dateLayout = "2006-01-02"

// Payday returns the payday for a month: the 14th, pulled back to the
// preceding Friday when the 14th lands on a weekend. Saturday moves to the
// 13th, Sunday to the 12th. Paydays never move forward.
func Payday(year int, month time.Month) time.Time {
	day := time.Date(year, month, 14, 0, 0, 0, 0, time.UTC)
	switch day.Weekday() {
	case time.Saturday:
		return day.AddDate(0, 0, -1)
	case time.Sunday:
		return day.AddDate(0, 0, -2)
	}
	return day
}

// GeneratePeriod builds the period anchored at (year, month)'s payday. The
// period ends the day before the next month's payday; DayCount is inclusive
// of both endpoints.
func GeneratePeriod(year int, month time.Month) domain.BudgetPeriod {
	start := Payday(year, month)
	next := Payday(nextMonth(year, month))
	end := next.AddDate(0, 0, -1)

	return domain.BudgetPeriod{
		StartDate: start,
		EndDate:   end,
		DayCount:  int(end.Sub(start).Hours()/24) + 1,
	}
}

// PeriodForDate returns the period containing the given date. A date before
// its own month's payday belongs to the previous month's period.
func PeriodForDate(date time.Time) domain.BudgetPeriod {
	date = truncateDay(date)

	year, month := date.Year(), date.Month()
	if date.Before(Payday(year, month)) {
		year, month = prevMonth(year, month)
	}

	return GeneratePeriod(year, month)
}

// ElapsedFraction reports how far through the period the given date is, in
// whole days, as a value in (0, 1]. The start day counts as one elapsed day.
// Dates outside the period clamp to the nearest bound.
func ElapsedFraction(p domain.BudgetPeriod, date time.Time) float64 {
	date = truncateDay(date)

	if date.Before(p.StartDate) {
		return 0
	}
	if date.After(p.EndDate) {
		return 1
	}

	elapsed := int(date.Sub(p.StartDate).Hours()/24) + 1
	total := p.DayCount
	if total == 0 {
		total = int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1
	}

	return float64(elapsed) / float64(total)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

func prevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}
