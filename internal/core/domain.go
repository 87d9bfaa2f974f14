package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	None    Recurrence = "one-time"
	Weekly  Recurrence = "weekly"
	Monthly Recurrence = "monthly"
	Yearly  Recurrence = "yearly"
)

const (
	Regular  EntryKind = "regular"
	Birthday EntryKind = "birthday"
)

type (
	Recurrence string

	EntryKind string

	// Entry is a single dated budget item. A negative amount is an expense,
	// a positive amount is income or a deposit.
	Entry struct {
		ID        uuid.UUID  `json:"id"`
		Date      time.Time  `json:"date"`
		Title     string     `json:"title"`
		Amount    float64    `json:"amount"`
		Notes     string     `json:"notes,omitempty"`
		Recurring Recurrence `json:"recurringType"`
		Kind      EntryKind  `json:"entryType"`
		IsPaid    bool       `json:"isPaid"`
		PaidDate  *time.Time `json:"paidDate,omitempty"`
	}

	Deposit struct {
		ID     uuid.UUID `json:"id"`
		Name   string    `json:"name"`
		Amount float64   `json:"amount"`
		Date   time.Time `json:"date"`
	}

	UserProfile struct {
		PaySchedule string    `json:"paySchedule"`
		HourlyRate  float64   `json:"hourlyRate"`
		Birthday    time.Time `json:"birthday"`
	}

	// SeriesKey identifies a recurring series. There is no stored series id:
	// two entries belong to the same series iff title, amount and cadence all
	// match. Every bulk operation goes through this key so the matching rule
	// lives in exactly one place.
	SeriesKey struct {
		Title     string
		Amount    float64
		Recurring Recurrence
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyTitle        = errors.New("empty title")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
)

// IsRecurring reports whether the entry is part of a recurring series.
func (e Entry) IsRecurring() bool {
	return e.Recurring != None && e.Recurring != ""
}

func (e Entry) SeriesKey() SeriesKey {
	return SeriesKey{Title: e.Title, Amount: e.Amount, Recurring: e.Recurring}
}

func (e Entry) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if e.Amount == 0 && e.Kind != Birthday {
		return ErrInvalidAmount
	}
	switch e.Recurring {
	case None, Weekly, Monthly, Yearly:
	default:
		return ErrInvalidRecurrence
	}
	return nil
}

func (d Deposit) Validate() error {
	if d.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(d.Name)) == 0 {
		return ErrEmptyTitle
	}
	if d.Amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}
