// Package snapshot defines the persisted shape of the budget data set and
// the stores that read and write it. Only base entries are persisted; the
// in-memory series tails are regenerated from bases on every load.
package snapshot

import (
	"context"

	"bigbudget/internal/core"
	"bigbudget/internal/payroll"
)

// Snapshot is the durable form of the data set. Expenses holds one
// representative (the earliest instance) per recurring series plus every
// one-time entry, which keeps load-save-load cycles idempotent on the
// persisted bytes.
type Snapshot struct {
	UserProfile *core.UserProfile `json:"userProfile,omitempty"`
	Expenses    []core.Entry      `json:"expenses"`
	Deposits    []core.Deposit    `json:"deposits"`
}

// Saver is the write half consumed by the entry store after each mutation.
type Saver interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// Store is the full persistence contract a backend implements.
type Store interface {
	Saver
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	LoadUsers(ctx context.Context) ([]payroll.User, error)
	SaveUsers(ctx context.Context, users []payroll.User) error
}
