// Package store holds the mutable in-memory entry collection. Every mutation
// applies synchronously to the collection and then kicks off a background
// snapshot save; the caller observes the mutation before the save finishes.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"bigbudget/internal/core"
	"bigbudget/internal/snapshot"
)

type EntryStore struct {
	mu       sync.Mutex
	entries  []core.Entry
	deposits []core.Deposit
	profile  *core.UserProfile
	gen      uint64

	saver snapshot.Saver
}

func New(saver snapshot.Saver) *EntryStore {
	return &EntryStore{saver: saver}
}

// Load installs a persisted snapshot. The snapshot carries only base
// entries; each recurring base is re-expanded here, so regenerated instances
// carry fresh ids and start unpaid. Paid state survives a reload only for
// the bases themselves.
func (s *EntryStore) Load(snap snapshot.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	for _, base := range snap.Expenses {
		s.entries = append(s.entries, base)
		if base.IsRecurring() {
			s.entries = append(s.entries, core.Expand(base)...)
		}
	}
	s.deposits = append([]core.Deposit(nil), snap.Deposits...)
	s.profile = snap.UserProfile
	s.gen++
}

// Add appends the entry and, for a recurring entry, eagerly materializes its
// full year of future instances.
func (s *EntryStore) Add(e core.Entry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	if e.IsRecurring() {
		s.entries = append(s.entries, core.Expand(e)...)
	}
	s.gen++
	s.mu.Unlock()

	s.persist()
}

// Edit replaces the entry matching the id. It deliberately does not
// regenerate the series tail: editing one occurrence never ripples to its
// siblings, in contrast to series deletion.
func (s *EntryStore) Edit(e core.Entry) bool {
	s.mu.Lock()
	replaced := false
	for i := range s.entries {
		if s.entries[i].ID == e.ID {
			s.entries[i] = e
			replaced = true
			break
		}
	}
	if replaced {
		s.gen++
	}
	s.mu.Unlock()

	if replaced {
		s.persist()
	}
	return replaced
}

// Delete removes the single entry matching the id.
func (s *EntryStore) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	removed := false
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	if removed {
		s.gen++
	}
	s.mu.Unlock()

	if removed {
		s.persist()
	}
	return removed
}

// DeleteSeries removes the entry and every future occurrence of its series:
// same title, amount and cadence, dated on or after the entry's day. Past
// occurrences stay.
func (s *EntryStore) DeleteSeries(target core.Entry) int {
	s.mu.Lock()
	removed := 0
	kept := s.entries[:0]
	for _, e := range s.entries {
		if core.InSeries(e, target, target.Date) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	if removed > 0 {
		s.gen++
	}
	s.mu.Unlock()

	if removed > 0 {
		s.persist()
	}
	return removed
}

// TogglePaid flips the paid flag of exactly one entry, stamping PaidDate
// with now when marking paid and clearing it otherwise.
func (s *EntryStore) TogglePaid(id uuid.UUID, now time.Time) (core.Entry, bool) {
	s.mu.Lock()
	var toggled core.Entry
	found := false
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].IsPaid = !s.entries[i].IsPaid
			if s.entries[i].IsPaid {
				paidAt := now
				s.entries[i].PaidDate = &paidAt
			} else {
				s.entries[i].PaidDate = nil
			}
			toggled = s.entries[i]
			found = true
			break
		}
	}
	if found {
		s.gen++
	}
	s.mu.Unlock()

	if found {
		s.persist()
	}
	return toggled, found
}

func (s *EntryStore) Get(id uuid.UUID) (core.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return core.Entry{}, false
}

// All returns a copy of the current entry set.
func (s *EntryStore) All() []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Entry(nil), s.entries...)
}

func (s *EntryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Generation increments on every mutation. Read-side caches key on it so a
// stale projection can never be served after a mutation.
func (s *EntryStore) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *EntryStore) AddDeposit(d core.Deposit) {
	s.mu.Lock()
	s.deposits = append(s.deposits, d)
	s.gen++
	s.mu.Unlock()

	s.persist()
}

func (s *EntryStore) DeleteDeposit(id uuid.UUID) bool {
	s.mu.Lock()
	removed := false
	kept := s.deposits[:0]
	for _, d := range s.deposits {
		if d.ID == id {
			removed = true
			continue
		}
		kept = append(kept, d)
	}
	s.deposits = kept
	if removed {
		s.gen++
	}
	s.mu.Unlock()

	if removed {
		s.persist()
	}
	return removed
}

func (s *EntryStore) Deposits() []core.Deposit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Deposit(nil), s.deposits...)
}

func (s *EntryStore) SetProfile(p *core.UserProfile) {
	s.mu.Lock()
	s.profile = p
	s.gen++
	s.mu.Unlock()

	s.persist()
}

func (s *EntryStore) Profile() *core.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Snapshot collapses the in-memory set back to its persisted form: every
// one-time entry plus the earliest instance of each recurring series. The
// expanded tail is derived state and is never written out.
func (s *EntryStore) Snapshot() snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *EntryStore) snapshotLocked() snapshot.Snapshot {
	bases := make(map[core.SeriesKey]int)
	var expenses []core.Entry
	for _, e := range s.entries {
		if !e.IsRecurring() {
			expenses = append(expenses, e)
			continue
		}
		key := e.SeriesKey()
		if i, ok := bases[key]; ok {
			if e.Date.Before(expenses[i].Date) {
				expenses[i] = e
			}
			continue
		}
		bases[key] = len(expenses)
		expenses = append(expenses, e)
	}

	snap := snapshot.Snapshot{
		Expenses: expenses,
		Deposits: append([]core.Deposit(nil), s.deposits...),
	}
	if s.profile != nil {
		p := *s.profile
		snap.UserProfile = &p
	}
	return snap
}

// persist re-saves the collapsed snapshot in the background. Failures are
// logged and never reach the mutating caller; the in-memory state is already
// the source of truth for this process.
func (s *EntryStore) persist() {
	if s.saver == nil {
		return
	}

	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.saver.SaveSnapshot(ctx, snap); err != nil {
			slog.Error("Snapshot save failed", "entries", len(snap.Expenses), "error", err)
		}
	}()
}
