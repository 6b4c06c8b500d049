package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthWindow_CurrentMonth(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 30, 0, 0, time.UTC)
	from, to := MonthWindow(PeriodCurrentMonth, now)

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC), to)
}

func TestMonthWindow_LastMonth(t *testing.T) {
	// Январь → декабрь прошлого года
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	from, to := MonthWindow(PeriodLastMonth, now)

	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), to)
}

func TestMonthWindow_AllTime(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	from, to := MonthWindow(PeriodAllTime, now)

	assert.True(t, from.IsZero())
	assert.Equal(t, now, to)
}

func TestSameBirthday(t *testing.T) {
	dob := time.Date(1990, 2, 29, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameBirthday(dob, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)))
	assert.False(t, SameBirthday(dob, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestSameUTCDate(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)

	// 01:00 МСК — это ещё 22:00 предыдущего дня в UTC
	a := time.Date(2025, 5, 10, 1, 0, 0, 0, msk)
	b := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.False(t, SameUTCDate(a, b))

	c := time.Date(2025, 5, 9, 23, 59, 0, 0, time.UTC)
	assert.True(t, SameUTCDate(a, c))
}
