package allocation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/unit-finance/allocation"
)

func TestParsePeriod(t *testing.T) {
	p, err := allocation.ParsePeriod("2025-03")
	require.NoError(t, err)
	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, time.March, p.Month)
	assert.Equal(t, "2025-03", p.String())

	_, err = allocation.ParsePeriod("03/2025")
	assert.Error(t, err)
}

func TestPeriod_Bounds(t *testing.T) {
	p := allocation.NewPeriod(2024, 2)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), p.End(), "leap year")
	assert.True(t, p.Contains(time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPeriod_Navigation(t *testing.T) {
	dec := allocation.NewPeriod(2024, 12)

	assert.Equal(t, allocation.NewPeriod(2025, 1), dec.Next())
	assert.Equal(t, allocation.NewPeriod(2024, 11), dec.Previous())
	assert.True(t, dec.Before(dec.Next()))
	assert.False(t, dec.Before(dec))
	assert.False(t, allocation.NewPeriod(2024, 13).Valid())
}

func TestWorkingDays(t *testing.T) {
	// June 2025 starts on a Sunday: 21 weekdays.
	june := allocation.NewPeriod(2025, 6)
	assert.Equal(t, 21, allocation.WorkingDays(june, nil))

	cal := allocation.HolidayCalendar{Holidays: []allocation.Holiday{
		{Date: time.Date(2020, 6, 2, 0, 0, 0, 0, time.UTC), Name: "Anniversary", Recurring: true},
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Name: "One-off, other year"},
		{Date: time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC), Name: "Saturday"},
	}}

	// Only the recurring Monday June 2 applies: the one-off is in 2024 and
	// June 7 is already a weekend day.
	assert.Equal(t, 20, allocation.WorkingDays(june, cal))
}

func TestHolidayCalendar_IsHoliday(t *testing.T) {
	cal := allocation.HolidayCalendar{Holidays: []allocation.Holiday{
		{Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Recurring: true},
		{Date: time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)},
	}}

	assert.True(t, cal.IsHoliday(time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cal.IsHoliday(time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)))
	assert.False(t, cal.IsHoliday(time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)))
}
