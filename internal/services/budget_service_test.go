package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"bigbudget/internal/amqp"
	"bigbudget/internal/core"
	"bigbudget/internal/store"
)

type fakePublisher struct {
	ops []string
	err error
}

func (f *fakePublisher) PublishEntryChanged(ctx context.Context, id uuid.UUID, op string) error {
	f.ops = append(f.ops, op)
	return f.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateEntry_MaterializesAndPublishes(t *testing.T) {
	s := store.New(nil)
	pub := &fakePublisher{}
	svc := NewBudgetService(s, pub)

	created, err := svc.CreateEntry(context.Background(), core.Entry{
		Date: day(2024, 1, 5), Title: "Rent", Amount: -1200, Recurring: core.Monthly,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, core.Regular, created.Kind)
	require.Equal(t, 13, s.Len())
	require.Equal(t, []string{amqp.OpCreated}, pub.ops)
}

func TestCreateEntry_RejectsInvalid(t *testing.T) {
	svc := NewBudgetService(store.New(nil), nil)

	_, err := svc.CreateEntry(context.Background(), core.Entry{Date: day(2024, 1, 5), Title: "  ", Amount: -10})
	require.ErrorIs(t, err, core.ErrEmptyTitle)

	_, err = svc.CreateEntry(context.Background(), core.Entry{Date: day(2024, 1, 5), Title: "Rent", Amount: 0})
	require.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestUpdateEntry_UnknownID(t *testing.T) {
	svc := NewBudgetService(store.New(nil), nil)

	_, err := svc.UpdateEntry(context.Background(), core.Entry{
		ID: uuid.New(), Date: day(2024, 1, 5), Title: "Rent", Amount: -1200, Recurring: core.None, Kind: core.Regular,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSeries_PublishesOnce(t *testing.T) {
	s := store.New(nil)
	pub := &fakePublisher{}
	svc := NewBudgetService(s, pub)

	created, err := svc.CreateEntry(context.Background(), core.Entry{
		Date: day(2024, 1, 5), Title: "Rent", Amount: -1200, Recurring: core.Monthly,
	})
	require.NoError(t, err)

	removed, err := svc.DeleteSeries(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, 13, removed)
	require.Equal(t, []string{amqp.OpCreated, amqp.OpSeriesDeleted}, pub.ops)
	require.Equal(t, 0, s.Len())
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	s := store.New(nil)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewBudgetService(s, pub)

	created, err := svc.CreateEntry(context.Background(), core.Entry{
		Date: day(2024, 1, 5), Title: "Concert", Amount: -60,
	})
	require.NoError(t, err, "a broker failure must never fail the mutation")

	_, ok := s.Get(created.ID)
	require.True(t, ok)
}

func TestTogglePaid(t *testing.T) {
	s := store.New(nil)
	svc := NewBudgetService(s, nil)

	created, err := svc.CreateEntry(context.Background(), core.Entry{
		Date: day(2024, 1, 5), Title: "Concert", Amount: -60,
	})
	require.NoError(t, err)

	now := day(2024, 1, 10)
	toggled, err := svc.TogglePaid(context.Background(), created.ID, now)
	require.NoError(t, err)
	require.True(t, toggled.IsPaid)

	_, err = svc.TogglePaid(context.Background(), uuid.New(), now)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeposits(t *testing.T) {
	s := store.New(nil)
	svc := NewBudgetService(s, nil)

	dep, err := svc.CreateDeposit(context.Background(), core.Deposit{
		Name: "Paycheck", Amount: 1500, Date: day(2024, 1, 12),
	})
	require.NoError(t, err)
	require.Len(t, s.Deposits(), 1)

	require.NoError(t, svc.DeleteDeposit(context.Background(), dep.ID))
	require.Empty(t, s.Deposits())
	require.ErrorIs(t, svc.DeleteDeposit(context.Background(), dep.ID), ErrNotFound)
}
