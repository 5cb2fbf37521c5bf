package allocation

import (
	"fmt"
	"time"
)

// DefaultWorkingDays is the conventional number of working days in a month.
const DefaultWorkingDays = 22

// PeriodLayout is the "YYYY-MM" layout used in query strings and reports.
const PeriodLayout = "2006-01"

// =============================================================================
// PERIOD - The accounting month a pool applies to
// =============================================================================

// Period is one accounting month.
type Period struct {
	Year  int
	Month time.Month
}

func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: time.Month(month)}
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(PeriodLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q (use YYYY-MM): %w", s, err)
	}
	return PeriodOf(t), nil
}

func (p Period) Valid() bool { return p.Year > 0 && p.Month >= time.January && p.Month <= time.December }

func (p Period) Start() time.Time { return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC) }
func (p Period) End() time.Time   { return p.Start().AddDate(0, 1, -1) }

// Contains returns true if t falls inside the period (UTC dates).
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return t.Year() == p.Year && t.Month() == p.Month
}

func (p Period) Next() Period     { return PeriodOf(p.Start().AddDate(0, 1, 0)) }
func (p Period) Previous() Period { return PeriodOf(p.Start().AddDate(0, -1, 0)) }

func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

func (p Period) String() string { return p.Start().Format(PeriodLayout) }

// =============================================================================
// HOLIDAY CALENDAR - Company holidays excluded from working days
// =============================================================================

// Holiday is a non-working date.
type Holiday struct {
	ID        string
	Date      time.Time
	Name      string
	Recurring bool // same month/day every year
}

// Calendar answers which days are non-working.
type Calendar interface {
	IsHoliday(date time.Time) bool
}

// HolidayCalendar is a Calendar backed by a fixed holiday list.
type HolidayCalendar struct {
	Holidays []Holiday
}

func (c HolidayCalendar) IsHoliday(date time.Time) bool {
	for _, h := range c.Holidays {
		if h.Date.Month() != date.Month() || h.Date.Day() != date.Day() {
			continue
		}
		if h.Recurring || h.Date.Year() == date.Year() {
			return true
		}
	}
	return false
}

// WorkingDays counts weekdays in the period that are not holidays.
// A nil calendar only excludes weekends.
func WorkingDays(p Period, cal Calendar) int {
	n := 0
	for d := p.Start(); !d.After(p.End()); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if cal != nil && cal.IsHoliday(d) {
			continue
		}
		n++
	}
	return n
}
