package payroll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UserSaver persists the full user list after every mutation. Saves are
// fire-and-forget: a failure is logged and never surfaces to the caller.
type UserSaver interface {
	SaveUsers(ctx context.Context, users []User) error
}

// Users is the in-memory registry of paycheck users. Rates are derived once,
// when the sample figures are set, and stored on the user.
type Users struct {
	mu    sync.Mutex
	users []User
	gen   uint64
	saver UserSaver
}

func NewUsers(saver UserSaver) *Users {
	return &Users{saver: saver}
}

// Load replaces the registry contents with a persisted user list. Stored tax
// rates are trusted as-is; they are only re-derived when the sample changes.
func (u *Users) Load(users []User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users = append([]User(nil), users...)
	u.gen++
}

// Generation increments on every registry mutation. Read-side caches key on
// it so a user change can never be served from a stale projection.
func (u *Users) Generation() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.gen
}

func (u *Users) List() []User {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]User(nil), u.users...)
}

func (u *Users) Get(id uuid.UUID) (User, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, usr := range u.users {
		if usr.ID == id {
			return usr, true
		}
	}
	return User{}, false
}

// Add derives the user's tax rates from its sample paycheck and appends it.
func (u *Users) Add(user User) User {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.TaxRates = DeriveRates(user.Sample)

	u.mu.Lock()
	u.users = append(u.users, user)
	u.gen++
	u.mu.Unlock()

	u.persist()
	return user
}

// Update replaces the user matching the id, re-deriving rates from the
// (possibly changed) sample figures.
func (u *Users) Update(user User) (User, bool) {
	user.TaxRates = DeriveRates(user.Sample)

	u.mu.Lock()
	replaced := false
	for i := range u.users {
		if u.users[i].ID == user.ID {
			u.users[i] = user
			replaced = true
			break
		}
	}
	if replaced {
		u.gen++
	}
	u.mu.Unlock()

	if replaced {
		u.persist()
	}
	return user, replaced
}

func (u *Users) Delete(id uuid.UUID) bool {
	u.mu.Lock()
	removed := false
	kept := u.users[:0]
	for _, usr := range u.users {
		if usr.ID == id {
			removed = true
			continue
		}
		kept = append(kept, usr)
	}
	u.users = kept
	if removed {
		u.gen++
	}
	u.mu.Unlock()

	if removed {
		u.persist()
	}
	return removed
}

func (u *Users) persist() {
	if u.saver == nil {
		return
	}
	users := u.List()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := u.saver.SaveUsers(ctx, users); err != nil {
			slog.Error("Failed to save paycheck users", "count", len(users), "error", err)
		}
	}()
}
