package core

import (
	"strings"
	"testing"
	"time"
)

func TestEntryValidate(t *testing.T) {
	valid := Entry{Date: day(2024, 1, 5), Title: "Rent", Amount: -1200, Recurring: Monthly, Kind: Regular}

	tests := []struct {
		name    string
		mutate  func(*Entry)
		wantErr error
	}{
		{"valid", func(e *Entry) {}, nil},
		{"zero date", func(e *Entry) { e.Date = time.Time{} }, ErrInvalidDate},
		{"blank title", func(e *Entry) { e.Title = "   " }, ErrEmptyTitle},
		{"zero amount", func(e *Entry) { e.Amount = 0 }, ErrInvalidAmount},
		{"unknown cadence", func(e *Entry) { e.Recurring = "fortnightly" }, ErrInvalidRecurrence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr == nil && tt.name == "valid" && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("title too long", func(t *testing.T) {
		e := valid
		e.Title = strings.Repeat("x", 201)
		if e.Validate() == nil {
			t.Error("Validate() accepted a 201-character title")
		}
	})

	t.Run("birthday entries may be zero-amount", func(t *testing.T) {
		e := Entry{Date: day(2024, 7, 4), Title: "Birthday", Amount: 0, Recurring: None, Kind: Birthday}
		if err := e.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil for zero-amount birthday", err)
		}
	})
}

func TestSeriesKey(t *testing.T) {
	a := Entry{Date: day(2024, 1, 1), Title: "Netflix", Amount: -15, Recurring: Monthly}
	b := Entry{Date: day(2024, 6, 1), Title: "Netflix", Amount: -15, Recurring: Monthly, IsPaid: true}
	c := Entry{Date: day(2024, 1, 1), Title: "Netflix", Amount: -15, Recurring: Weekly}

	if a.SeriesKey() != b.SeriesKey() {
		t.Error("entries differing only in date and paid state should share a series key")
	}
	if a.SeriesKey() == c.SeriesKey() {
		t.Error("entries with different cadences should not share a series key")
	}
}
