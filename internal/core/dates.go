package core

import "time"

// Calendar conventions shared by the whole app. Weeks start on Sunday, the
// same first-weekday the original data set was built around, and all
// day-level comparisons go through StartOfDay.

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths steps t forward by n calendar months, clamping the day of month
// to the target month's length (Jan 31 + 1 month = Feb 28/29). This matches
// calendar-aware stepping rather than Go's normalizing AddDate.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYears steps t forward by n years, clamping Feb 29 to Feb 28 on
// non-leap targets.
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, n*12)
}

// Next returns the date one recurrence unit after t. The second return is
// false for non-recurring cadences, which terminates series expansion.
func (r Recurrence) Next(t time.Time) (time.Time, bool) {
	switch r {
	case Weekly:
		return t.AddDate(0, 0, 7), true
	case Monthly:
		return AddMonths(t, 1), true
	case Yearly:
		return AddYears(t, 1), true
	default:
		return time.Time{}, false
	}
}

// WeekOfMonth returns the 1-based calendar-week ordinal of t within its
// month, counting Sunday-started weeks.
func WeekOfMonth(t time.Time) int {
	lead := leadingWeekdays(t.Year(), t.Month())
	return (t.Day()-1+lead)/7 + 1
}

// WeeksInMonth returns how many week ordinals the month spans.
func WeeksInMonth(year int, month time.Month) int {
	last := time.Date(year, month, DaysIn(year, month), 0, 0, 0, 0, time.UTC)
	return WeekOfMonth(last)
}

// WeekInterval returns the half-open [start, end) interval of the given week
// ordinal of a month. The interval may spill into the adjacent months; the
// caller is responsible for filtering by month where that matters.
func WeekInterval(year int, month time.Month, week int) (start, end time.Time) {
	lead := leadingWeekdays(year, month)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start = first.AddDate(0, 0, (week-1)*7-lead)
	return start, start.AddDate(0, 0, 7)
}

// leadingWeekdays counts the days of the previous month that share the
// month's first week (0 when the month starts on a Sunday).
func leadingWeekdays(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return int(first.Weekday())
}
