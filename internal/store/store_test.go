package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"bigbudget/internal/core"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyRent(date time.Time) core.Entry {
	return core.Entry{
		ID: uuid.New(), Date: date, Title: "Rent", Amount: -1200,
		Recurring: core.Monthly, Kind: core.Regular,
	}
}

func TestAdd_MaterializesRecurringTail(t *testing.T) {
	s := New(nil)
	s.Add(monthlyRent(day(2024, 1, 5)))

	// Base plus twelve monthly instances through 2025-01-05.
	require.Equal(t, 13, s.Len())

	s.Add(core.Entry{ID: uuid.New(), Date: day(2024, 1, 20), Title: "Concert", Amount: -60, Recurring: core.None, Kind: core.Regular})
	require.Equal(t, 14, s.Len())
}

func TestEdit_DoesNotRippleToSiblings(t *testing.T) {
	s := New(nil)
	base := monthlyRent(day(2024, 1, 5))
	s.Add(base)

	entries := s.All()
	second := entries[1]
	second.Amount = -1300
	second.Notes = "raised"
	require.True(t, s.Edit(second))

	edited, ok := s.Get(second.ID)
	require.True(t, ok)
	require.Equal(t, -1300.0, edited.Amount)

	// Every sibling keeps the original amount, and the tail was not rebuilt.
	require.Equal(t, 13, s.Len())
	for _, e := range s.All() {
		if e.ID != second.ID {
			require.Equal(t, -1200.0, e.Amount, "sibling %s was touched", e.Date)
		}
	}
}

func TestDelete_RemovesOneInstance(t *testing.T) {
	s := New(nil)
	s.Add(monthlyRent(day(2024, 1, 5)))

	victim := s.All()[3]
	require.True(t, s.Delete(victim.ID))
	require.Equal(t, 12, s.Len())

	_, ok := s.Get(victim.ID)
	require.False(t, ok)

	require.False(t, s.Delete(victim.ID), "second delete of the same id should be a no-op")
}

func TestDeleteSeries_ThisAndFutureOnly(t *testing.T) {
	s := New(nil)
	s.Add(monthlyRent(day(2024, 1, 5)))
	unrelated := core.Entry{ID: uuid.New(), Date: day(2024, 6, 5), Title: "Rent", Amount: -900, Recurring: core.Monthly, Kind: core.Regular}
	s.entries = append(s.entries, unrelated) // same title, different amount: a different series

	// Delete from the May occurrence forward.
	var pivot core.Entry
	for _, e := range s.All() {
		if e.Amount == -1200 && core.SameDay(e.Date, day(2024, 5, 5)) {
			pivot = e
		}
	}
	require.NotEqual(t, uuid.Nil, pivot.ID)

	removed := s.DeleteSeries(pivot)
	require.Equal(t, 9, removed) // May 2024 through Jan 2025

	for _, e := range s.All() {
		if e.SeriesKey() == pivot.SeriesKey() {
			require.True(t, core.StartOfDay(e.Date).Before(day(2024, 5, 5)),
				"occurrence on %s should have been removed", e.Date)
		}
	}

	_, ok := s.Get(unrelated.ID)
	require.True(t, ok, "entry from a different series must survive")
}

func TestTogglePaid(t *testing.T) {
	s := New(nil)
	s.Add(monthlyRent(day(2024, 1, 5)))

	target := s.All()[2]
	now := day(2024, 3, 1)

	toggled, ok := s.TogglePaid(target.ID, now)
	require.True(t, ok)
	require.True(t, toggled.IsPaid)
	require.NotNil(t, toggled.PaidDate)
	require.True(t, toggled.PaidDate.Equal(now))

	// Exactly one instance changed.
	paid := 0
	for _, e := range s.All() {
		if e.IsPaid {
			paid++
		}
	}
	require.Equal(t, 1, paid)

	toggled, ok = s.TogglePaid(target.ID, now.AddDate(0, 0, 1))
	require.True(t, ok)
	require.False(t, toggled.IsPaid)
	require.Nil(t, toggled.PaidDate)
}

func TestSnapshot_CollapsesToBases(t *testing.T) {
	s := New(nil)
	s.Add(monthlyRent(day(2024, 1, 5)))
	oneTime := core.Entry{ID: uuid.New(), Date: day(2024, 2, 14), Title: "Flowers", Amount: -40, Recurring: core.None, Kind: core.Regular}
	s.Add(oneTime)

	snap := s.Snapshot()
	require.Len(t, snap.Expenses, 2)

	var base, single core.Entry
	for _, e := range snap.Expenses {
		if e.IsRecurring() {
			base = e
		} else {
			single = e
		}
	}
	require.True(t, base.Date.Equal(day(2024, 1, 5)), "collapse must keep the earliest instance")
	require.Equal(t, oneTime.ID, single.ID)
}

func TestSnapshot_RoundTripIsIdempotent(t *testing.T) {
	s := New(nil)
	s.Add(monthlyRent(day(2024, 1, 5)))
	s.Add(core.Entry{ID: uuid.New(), Date: day(2024, 2, 14), Title: "Flowers", Amount: -40, Recurring: core.None, Kind: core.Regular})
	s.AddDeposit(core.Deposit{ID: uuid.New(), Name: "Paycheck", Amount: 1500, Date: day(2024, 1, 12)})

	first := s.Snapshot()

	reloaded := New(nil)
	reloaded.Load(first)
	second := reloaded.Snapshot()

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	require.JSONEq(t, string(a), string(b))
}

func TestLoad_ReexpandsAndPreservesBasePaidState(t *testing.T) {
	s := New(nil)
	base := monthlyRent(day(2024, 1, 5))
	paidAt := day(2024, 1, 6)
	base.IsPaid = true
	base.PaidDate = &paidAt
	s.Add(base)

	reloaded := New(nil)
	reloaded.Load(s.Snapshot())

	require.Equal(t, 13, reloaded.Len())

	got, ok := reloaded.Get(base.ID)
	require.True(t, ok, "the base keeps its id across reload")
	require.True(t, got.IsPaid, "the base keeps its paid state")

	for _, e := range reloaded.All() {
		if e.ID != base.ID {
			require.False(t, e.IsPaid, "regenerated instance on %s must start unpaid", e.Date)
		}
	}
}
