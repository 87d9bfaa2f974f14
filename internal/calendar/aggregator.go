// Package calendar computes read-only projections over the entry store:
// per-day lookups, monthly and weekly totals, the upcoming feed and the
// payment checklist. Every function takes the reference date as an explicit
// parameter, never an ambient clock.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"bigbudget/internal/cache"
	"bigbudget/internal/core"
	"bigbudget/internal/payroll"
	"bigbudget/internal/store"
)

// DefaultUpcomingLimit caps the upcoming-expenses feed.
const DefaultUpcomingLimit = 10

type (
	// WeekBreakdown is one calendar week of a month: its 1-based ordinal,
	// the entries falling inside it (date ascending) and their signed sum.
	WeekBreakdown struct {
		WeekNumber int          `json:"weekNumber"`
		Entries    []core.Entry `json:"entries"`
		Total      float64      `json:"total"`
	}

	// MonthOverview bundles the monthly totals with the weekly table.
	MonthOverview struct {
		Year     int             `json:"year"`
		Month    int             `json:"month"`
		Expenses float64         `json:"expenses"`
		Income   float64         `json:"income"`
		Weeks    []WeekBreakdown `json:"weeks"`
	}

	// Checklist splits a month's expenses by payment state.
	Checklist struct {
		Pending   []core.Entry `json:"pending"`
		Completed []core.Entry `json:"completed"`
	}
)

type Aggregator struct {
	store      *store.EntryStore
	users      *payroll.Users
	breakdowns *cache.LRUCache[[]WeekBreakdown]
}

func New(entries *store.EntryStore, users *payroll.Users) *Aggregator {
	return &Aggregator{
		store:      entries,
		users:      users,
		breakdowns: cache.NewLRUCache[[]WeekBreakdown](24, 5*time.Minute),
	}
}

// Breakdowns exposes the projection cache for expiry sweeps.
func (a *Aggregator) Breakdowns() *cache.LRUCache[[]WeekBreakdown] {
	return a.breakdowns
}

// BirthdayEntries builds the synthetic zero-amount birthday entries for the
// known paycheck users: this year's birthday when it has not passed yet, and
// next year's always. They are derived on every call and never persisted.
func BirthdayEntries(users []payroll.User, asOf time.Time) []core.Entry {
	today := core.StartOfDay(asOf)

	var birthdays []core.Entry
	for _, user := range users {
		thisYear := time.Date(today.Year(), user.BirthDate.Month(), user.BirthDate.Day(),
			0, 0, 0, 0, today.Location())

		if !thisYear.Before(today) {
			birthdays = append(birthdays, birthdayEntry(user.Name, thisYear))
		}
		birthdays = append(birthdays, birthdayEntry(user.Name, core.AddYears(thisYear, 1)))
	}
	return birthdays
}

func birthdayEntry(name string, date time.Time) core.Entry {
	return core.Entry{
		Date:      date,
		Title:     fmt.Sprintf("🎂 Happy Birthday, %s! 🎉", name),
		Amount:    0,
		Notes:     "Birthday Celebration",
		Recurring: core.None,
		Kind:      core.Birthday,
	}
}

// EntriesOn returns the entries (persisted plus birthdays) on the given
// calendar day. The second return distinguishes "no entries at all" from a
// day whose entries happen to sum to zero.
func (a *Aggregator) EntriesOn(date, asOf time.Time) ([]core.Entry, bool) {
	var matched []core.Entry
	for _, e := range a.allEntries(asOf) {
		if core.SameDay(e.Date, date) {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		return nil, false
	}
	return matched, true
}

// DayTotal sums the entries on a day. The second return is false when the
// day has no entries, so callers can render absence differently from zero.
func (a *Aggregator) DayTotal(date, asOf time.Time) (float64, bool) {
	entries, ok := a.EntriesOn(date, asOf)
	if !ok {
		return 0, false
	}
	total := 0.0
	for _, e := range entries {
		total += e.Amount
	}
	return total, true
}

// Upcoming returns the next unpaid expenses from asOf forward, date
// ascending, truncated to limit.
func (a *Aggregator) Upcoming(asOf time.Time, limit int) []core.Entry {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	today := core.StartOfDay(asOf)

	var upcoming []core.Entry
	for _, e := range a.allEntries(asOf) {
		if e.Amount < 0 && !e.IsPaid && !core.StartOfDay(e.Date).Before(today) {
			upcoming = append(upcoming, e)
		}
	}
	sortByDate(upcoming)
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// MonthlyExpenses totals the month's expenses as a positive figure.
// Synthetic birthdays are excluded; only persisted entries count.
func (a *Aggregator) MonthlyExpenses(year int, month time.Month) float64 {
	sum := 0.0
	for _, e := range a.store.All() {
		if inMonth(e, year, month) && e.Amount < 0 {
			sum += e.Amount
		}
	}
	return -sum
}

// MonthlyIncome totals the month's income entries.
func (a *Aggregator) MonthlyIncome(year int, month time.Month) float64 {
	sum := 0.0
	for _, e := range a.store.All() {
		if inMonth(e, year, month) && e.Amount > 0 {
			sum += e.Amount
		}
	}
	return sum
}

// WeeklyBreakdown partitions the month into its calendar weeks. Every week
// ordinal appears, empty or not; entries from a week interval that spills
// into an adjacent month are filtered out by the month guard; totals are
// raw signed sums.
func (a *Aggregator) WeeklyBreakdown(year int, month time.Month, asOf time.Time) []WeekBreakdown {
	key := fmt.Sprintf("%04d-%02d:%s:g%d:u%d",
		year, month, core.StartOfDay(asOf).Format("2006-01-02"), a.store.Generation(), a.usersGeneration())
	if weeks, ok := a.breakdowns.Get(key); ok {
		return weeks
	}

	var monthEntries []core.Entry
	for _, e := range a.allEntries(asOf) {
		if inMonth(e, year, month) {
			monthEntries = append(monthEntries, e)
		}
	}

	weeks := make([]WeekBreakdown, 0, 6)
	for week := 1; week <= core.WeeksInMonth(year, month); week++ {
		start, end := core.WeekInterval(year, month, week)

		var entries []core.Entry
		total := 0.0
		for _, e := range monthEntries {
			day := core.StartOfDay(e.Date)
			if !day.Before(start) && day.Before(end) {
				entries = append(entries, e)
				total += e.Amount
			}
		}
		sortByDate(entries)
		weeks = append(weeks, WeekBreakdown{WeekNumber: week, Entries: entries, Total: total})
	}

	a.breakdowns.Set(key, weeks)
	return weeks
}

// Overview bundles the month totals and weekly table for one response.
func (a *Aggregator) Overview(year int, month time.Month, asOf time.Time) MonthOverview {
	return MonthOverview{
		Year:     year,
		Month:    int(month),
		Expenses: a.MonthlyExpenses(year, month),
		Income:   a.MonthlyIncome(year, month),
		Weeks:    a.WeeklyBreakdown(year, month, asOf),
	}
}

// MonthlyEntries lists everything in the month, birthdays included, date
// ascending.
func (a *Aggregator) MonthlyEntries(year int, month time.Month, asOf time.Time) []core.Entry {
	var entries []core.Entry
	for _, e := range a.allEntries(asOf) {
		if inMonth(e, year, month) {
			entries = append(entries, e)
		}
	}
	sortByDate(entries)
	return entries
}

// PaymentChecklist splits the month's regular expenses into pending and
// completed payments, each date ascending.
func (a *Aggregator) PaymentChecklist(year int, month time.Month, asOf time.Time) Checklist {
	var list Checklist
	for _, e := range a.MonthlyEntries(year, month, asOf) {
		if e.Kind != core.Regular || e.Amount >= 0 {
			continue
		}
		if e.IsPaid {
			list.Completed = append(list.Completed, e)
		} else {
			list.Pending = append(list.Pending, e)
		}
	}
	return list
}

func (a *Aggregator) allEntries(asOf time.Time) []core.Entry {
	entries := a.store.All()
	if a.users != nil {
		entries = append(entries, BirthdayEntries(a.users.List(), asOf)...)
	}
	return entries
}

func (a *Aggregator) usersGeneration() uint64 {
	if a.users == nil {
		return 0
	}
	return a.users.Generation()
}

func inMonth(e core.Entry, year int, month time.Month) bool {
	y, m, _ := e.Date.Date()
	return y == year && m == month
}

// sortByDate orders by date ascending. There is no secondary key; entries
// sharing a day keep no particular relative order.
func sortByDate(entries []core.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
}
