// Package calendar holds civil-date helpers used across the ledger.
// A civil date is a time.Time at midnight UTC. Callers normalise with DateOf
// before comparing or storing.
package calendar

import "time"

// Layout is the wire format for civil dates
const Layout = "2006-01-02"

// DateOf truncates t to its calendar day, keeping the wall-clock date of t's
// own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a civil date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Parse parses a YYYY-MM-DD string into a civil date
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// DaysInMonth returns the number of days of the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t by n calendar months, clamping the day to the last day of
// the target month. Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, n int) time.Time {
	t = DateOf(t)
	y, m, d := t.Date()
	total := int(m) - 1 + n
	ty := y + total/12
	tm := total % 12
	if tm < 0 {
		tm += 12
		ty--
	}
	month := time.Month(tm + 1)
	if last := DaysInMonth(ty, month); d > last {
		d = last
	}
	return Date(ty, month, d)
}

// AddDays moves t by n days
func AddDays(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, n)
}

// CompleteMonths returns the number of whole calendar months between from and
// to, with day-of-month clamping (2025-01-31 to 2025-03-01 is 1). It returns 0
// when to is before from.
func CompleteMonths(from, to time.Time) int {
	from, to = DateOf(from), DateOf(to)
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	for months > 0 && AddMonths(from, months).After(to) {
		months--
	}
	return months
}

// DaysBetween returns the signed number of days from a to b
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// MonthStart returns the first day of t's month
func MonthStart(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1)
}

// MonthEnd returns the last day of t's month
func MonthEnd(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), DaysInMonth(t.Year(), t.Month()))
}

// WeekStart returns the Monday of t's week
func WeekStart(t time.Time) time.Time {
	t = DateOf(t)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// ClampDay returns the given day in year/month, clamped to the month length
func ClampDay(year int, month time.Month, day int) time.Time {
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return Date(year, month, day)
}

// Min returns the earlier of a and b
func Min(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

// Clock returns the current instant. Services take one so tests can pin "today".
type Clock func() time.Time

// SystemClock is the wall clock
func SystemClock() time.Time {
	return time.Now()
}
