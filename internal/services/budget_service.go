// Package services orchestrates mutations across the in-memory entry store
// and the message broker. Store writes are authoritative; a failed publish
// is logged and never fails the request.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bigbudget/internal/amqp"
	"bigbudget/internal/core"
	"bigbudget/internal/store"
)

var ErrNotFound = errors.New("entry not found")

// EntryPublisher is the broker surface the service needs. A nil publisher
// means no broker is configured and publishing is skipped.
type EntryPublisher interface {
	PublishEntryChanged(ctx context.Context, id uuid.UUID, op string) error
}

type BudgetService struct {
	store     *store.EntryStore
	publisher EntryPublisher
}

func NewBudgetService(entries *store.EntryStore, publisher EntryPublisher) *BudgetService {
	return &BudgetService{store: entries, publisher: publisher}
}

// CreateEntry validates and adds the entry, materializing its recurring tail.
func (s *BudgetService) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Kind == "" {
		e.Kind = core.Regular
	}
	if e.Recurring == "" {
		e.Recurring = core.None
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	s.store.Add(e)
	s.publish(ctx, e.ID, amqp.OpCreated)
	return e, nil
}

// UpdateEntry replaces a single instance. Changes never ripple to the rest
// of the series.
func (s *BudgetService) UpdateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if !s.store.Edit(e) {
		return core.Entry{}, ErrNotFound
	}

	s.publish(ctx, e.ID, amqp.OpUpdated)
	return e, nil
}

// DeleteEntry removes one instance by id.
func (s *BudgetService) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	if !s.store.Delete(id) {
		return ErrNotFound
	}
	s.publish(ctx, id, amqp.OpDeleted)
	return nil
}

// DeleteSeries removes the given occurrence and every later one of the same
// series. Earlier occurrences are untouched.
func (s *BudgetService) DeleteSeries(ctx context.Context, id uuid.UUID) (int, error) {
	target, ok := s.store.Get(id)
	if !ok {
		return 0, ErrNotFound
	}

	removed := s.store.DeleteSeries(target)
	s.publish(ctx, id, amqp.OpSeriesDeleted)
	return removed, nil
}

// TogglePaid flips the payment state of a single instance.
func (s *BudgetService) TogglePaid(ctx context.Context, id uuid.UUID, now time.Time) (core.Entry, error) {
	toggled, ok := s.store.TogglePaid(id, now)
	if !ok {
		return core.Entry{}, ErrNotFound
	}
	s.publish(ctx, id, amqp.OpPaidToggled)
	return toggled, nil
}

func (s *BudgetService) CreateDeposit(ctx context.Context, d core.Deposit) (core.Deposit, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if err := d.Validate(); err != nil {
		return core.Deposit{}, err
	}
	s.store.AddDeposit(d)
	s.publish(ctx, d.ID, amqp.OpCreated)
	return d, nil
}

func (s *BudgetService) DeleteDeposit(ctx context.Context, id uuid.UUID) error {
	if !s.store.DeleteDeposit(id) {
		return ErrNotFound
	}
	s.publish(ctx, id, amqp.OpDeleted)
	return nil
}

func (s *BudgetService) SetProfile(ctx context.Context, p core.UserProfile) {
	s.store.SetProfile(&p)
}

func (s *BudgetService) publish(ctx context.Context, id uuid.UUID, op string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No broker configured, skipping entry change message", "op", op)
		return
	}
	if err := s.publisher.PublishEntryChanged(ctx, id, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry change message",
			"id", id, "op", op, "error", err)
		// The store write already succeeded; the request must not fail here.
	}
}
