package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextTradingDay(t *testing.T) {
	// Wednesday -> Thursday
	assert.Equal(t, date(2025, 3, 6), NextTradingDay(date(2025, 3, 5)))
	// Friday -> Monday
	assert.Equal(t, date(2025, 3, 10), NextTradingDay(date(2025, 3, 7)))
	// Saturday -> Monday
	assert.Equal(t, date(2025, 3, 10), NextTradingDay(date(2025, 3, 8)))
}

func TestUpcomingFriday(t *testing.T) {
	// Wednesday -> same week's Friday
	assert.Equal(t, date(2025, 3, 7), UpcomingFriday(date(2025, 3, 5)))
	// Friday -> next Friday, never the same day
	assert.Equal(t, date(2025, 3, 14), UpcomingFriday(date(2025, 3, 7)))
	// Saturday -> next Friday
	assert.Equal(t, date(2025, 3, 14), UpcomingFriday(date(2025, 3, 8)))
}

func TestNextMonthEnd(t *testing.T) {
	assert.Equal(t, date(2025, 2, 28), NextMonthEnd(date(2025, 1, 15)))
	// Leap year February
	assert.Equal(t, date(2024, 2, 29), NextMonthEnd(date(2024, 1, 10)))
	// Year rollover
	assert.Equal(t, date(2026, 1, 31), NextMonthEnd(date(2025, 12, 3)))
}

func TestTargetPeriodKeyFormats(t *testing.T) {
	now := date(2025, 3, 5) // Wednesday

	assert.Equal(t, "2025-03-06", TargetPeriodKey(now, HorizonDaily))
	assert.Equal(t, "2025-W10", TargetPeriodKey(now, HorizonWeekly))
	assert.Equal(t, "2025-04", TargetPeriodKey(now, HorizonMonthly))
}

func TestTargetPeriodKeyStableWithinPeriod(t *testing.T) {
	// Two runs on the same day at different times land on the same daily key.
	morning := time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC)
	evening := time.Date(2025, 3, 5, 18, 45, 0, 0, time.UTC)
	assert.Equal(t, TargetPeriodKey(morning, HorizonDaily), TargetPeriodKey(evening, HorizonDaily))

	// Monday and Thursday of the same week share the weekly key.
	monday := date(2025, 3, 3)
	thursday := date(2025, 3, 6)
	assert.Equal(t, TargetPeriodKey(monday, HorizonWeekly), TargetPeriodKey(thursday, HorizonWeekly))

	// Any two days of the same month share the monthly key.
	assert.Equal(t,
		TargetPeriodKey(date(2025, 3, 1), HorizonMonthly),
		TargetPeriodKey(date(2025, 3, 28), HorizonMonthly))
}

func TestPeriodStart(t *testing.T) {
	friday := date(2025, 3, 7)
	assert.Equal(t, friday, PeriodStart(friday, HorizonDaily))
	assert.Equal(t, date(2025, 3, 3), PeriodStart(friday, HorizonWeekly))

	monthEnd := date(2025, 2, 28)
	assert.Equal(t, date(2025, 2, 1), PeriodStart(monthEnd, HorizonMonthly))
}

func TestIsLastDayOfMonth(t *testing.T) {
	assert.True(t, IsLastDayOfMonth(date(2025, 2, 28)))
	assert.False(t, IsLastDayOfMonth(date(2025, 2, 27)))
	assert.False(t, IsLastDayOfMonth(date(2024, 2, 28)))
	assert.True(t, IsLastDayOfMonth(date(2024, 2, 29)))
	assert.True(t, IsLastDayOfMonth(date(2025, 12, 31)))
}

func TestHorizonBounds(t *testing.T) {
	assert.Equal(t, 2.5, HorizonDaily.MoveClamp())
	assert.Equal(t, 6.0, HorizonWeekly.MoveClamp())
	assert.Equal(t, 12.0, HorizonMonthly.MoveClamp())

	assert.Equal(t, 6, HorizonDaily.MaxSignals())
	assert.Equal(t, 3, HorizonWeekly.MaxSignals())
	assert.Equal(t, 3, HorizonMonthly.MaxSignals())

	assert.False(t, Horizon("HOURLY").Valid())
}
