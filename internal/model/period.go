package model

import (
	"fmt"
	"time"
)

// Target-period rules. The key must be a pure function of "now" and the
// horizon so repeated pipeline runs within the same period land on the
// same record.

// NextTradingDay returns the first weekday strictly after now.
// Exchange holidays are not modeled; a prediction targeting one simply
// stays OPEN until a bar appears.
func NextTradingDay(now time.Time) time.Time {
	d := now.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// UpcomingFriday returns the Friday the weekly horizon settles on: the
// next Friday strictly after now, so a forecast made on a Friday targets
// the Friday seven days out.
func UpcomingFriday(now time.Time) time.Time {
	days := (int(time.Friday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return now.AddDate(0, 0, days)
}

// NextMonthEnd returns the last calendar day of the month after now's
// month, giving the monthly horizon a forward-looking 30-60 day window
// that never settles inside the current month.
func NextMonthEnd(now time.Time) time.Time {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return firstOfMonth.AddDate(0, 2, 0).AddDate(0, 0, -1)
}

// TargetDate returns the settlement date for a forecast made at now.
func TargetDate(now time.Time, h Horizon) time.Time {
	switch h {
	case HorizonDaily:
		return NextTradingDay(now)
	case HorizonWeekly:
		return UpcomingFriday(now)
	default:
		return NextMonthEnd(now)
	}
}

// TargetPeriodKey returns the uniqueness key for a forecast made at now:
// a calendar date for daily, an ISO week for weekly, a year-month for
// monthly.
func TargetPeriodKey(now time.Time, h Horizon) string {
	target := TargetDate(now, h)
	switch h {
	case HorizonDaily:
		return target.Format("2006-01-02")
	case HorizonWeekly:
		year, week := target.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return target.Format("2006-01")
	}
}

// PeriodStart returns the first calendar day of the period that ends on
// targetDate, used to locate the realized opening bar.
func PeriodStart(targetDate time.Time, h Horizon) time.Time {
	switch h {
	case HorizonDaily:
		return targetDate
	case HorizonWeekly:
		// Monday of the settlement week.
		return targetDate.AddDate(0, 0, -4)
	default:
		return time.Date(targetDate.Year(), targetDate.Month(), 1, 0, 0, 0, 0, targetDate.Location())
	}
}

// IsLastDayOfMonth reports whether now falls on the final calendar day of
// its month, the trigger for monthly forecast generation.
func IsLastDayOfMonth(now time.Time) bool {
	return now.AddDate(0, 0, 1).Month() != now.Month()
}
