package core

import (
	"time"

	"github.com/google/uuid"
)

// Expand materializes the forward series of a recurring base entry: one
// instance per recurrence unit, strictly after the base date, up to and
// including one year out. Each instance gets a fresh id and starts unpaid;
// paying one occurrence never touches its siblings.
//
// Expansion never fails. A cadence that cannot produce a next date simply
// ends the series early, so the result is always finite (a weekly base
// yields at most 53 instances).
func Expand(base Entry) []Entry {
	if !base.IsRecurring() {
		return nil
	}

	end := base.Date.AddDate(1, 0, 0)

	var out []Entry
	next, ok := base.Recurring.Next(base.Date)
	for ok && !next.After(end) {
		inst := base
		inst.ID = uuid.New()
		inst.Date = next
		inst.IsPaid = false
		inst.PaidDate = nil
		out = append(out, inst)
		next, ok = base.Recurring.Next(next)
	}
	return out
}

// InSeries reports whether candidate belongs to target's series and falls on
// or after target's day. This is the "this and all future occurrences" match
// used by series deletion.
func InSeries(candidate, target Entry, from time.Time) bool {
	if candidate.SeriesKey() != target.SeriesKey() {
		return false
	}
	return !StartOfDay(candidate.Date).Before(StartOfDay(from))
}
