package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bigbudget/internal/calendar"
	"bigbudget/internal/core"
	"bigbudget/internal/payroll"
	"bigbudget/internal/services"
	"bigbudget/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	entries := store.New(nil)
	users := payroll.NewUsers(nil)
	budget := services.NewBudgetService(entries, nil)
	aggregator := calendar.New(entries, users)

	s := NewServer(":0", budget, aggregator, users)
	t.Cleanup(func() { s.rateLimiter.stop() })
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := do(t, s, http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestCreateEntry(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/entries", map[string]any{
		"date": "2024-01-05", "title": "Rent", "amount": -1200, "recurringType": "monthly",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create entry = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[core.Entry](t, rec)
	if created.Recurring != core.Monthly {
		t.Errorf("created recurring = %q, want monthly", created.Recurring)
	}

	// The March instance of the series is visible on the calendar.
	rec = do(t, s, http.MethodGet, "/api/calendar/entries?year=2024&month=3&asOf=2024-01-01", nil)
	got := decode[struct {
		Entries []core.Entry `json:"entries"`
	}](t, rec)
	if len(got.Entries) != 1 || !core.SameDay(got.Entries[0].Date, created.Date.AddDate(0, 2, 0)) {
		t.Errorf("march entries = %+v, want the materialized instance on 2024-03-05", got.Entries)
	}
}

func TestCreateEntry_Invalid(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"bad date", map[string]any{"date": "01/05/2024", "title": "Rent", "amount": -1200}, http.StatusUnprocessableEntity},
		{"blank title", map[string]any{"date": "2024-01-05", "title": "  ", "amount": -1200}, http.StatusUnprocessableEntity},
		{"zero amount", map[string]any{"date": "2024-01-05", "title": "Rent", "amount": 0}, http.StatusUnprocessableEntity},
		{"bad recurrence", map[string]any{"date": "2024-01-05", "title": "Rent", "amount": -1200, "recurringType": "fortnightly"}, http.StatusUnprocessableEntity},
		{"unknown field", map[string]any{"date": "2024-01-05", "title": "Rent", "amount": -1200, "bogus": 1}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, http.MethodPost, "/api/entries", tt.body); rec.Code != tt.want {
				t.Errorf("create = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestDeleteEntry_SeriesFlag(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/entries", map[string]any{
		"date": "2024-01-05", "title": "Rent", "amount": -1200, "recurringType": "monthly",
	})
	created := decode[core.Entry](t, rec)

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/entries/%s?series=1", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete series = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decode[map[string]int](t, rec)
	if result["removed"] != 13 {
		t.Errorf("removed = %d, want the whole series of 13", result["removed"])
	}
}

func TestDeleteEntry_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodDelete, "/api/entries/6a6ee5f4-7c1a-4f9e-8b9a-111111111111", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete unknown = %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodDelete, "/api/entries/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("delete malformed id = %d, want 400", rec.Code)
	}
}

func TestTogglePaid(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/entries", map[string]any{
		"date": "2024-01-20", "title": "Concert", "amount": -60,
	})
	created := decode[core.Entry](t, rec)

	rec = do(t, s, http.MethodPost, fmt.Sprintf("/api/entries/%s/toggle-paid", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle = %d, body %s", rec.Code, rec.Body.String())
	}
	toggled := decode[core.Entry](t, rec)
	if !toggled.IsPaid || toggled.PaidDate == nil {
		t.Errorf("toggled entry = %+v, want paid with a paid date", toggled)
	}
}

func TestCalendarDay_AbsenceVsPresence(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPost, "/api/entries", map[string]any{
		"date": "2024-06-05", "title": "Utilities", "amount": -100,
	})

	rec := do(t, s, http.MethodGet, "/api/calendar/day?date=2024-06-05&asOf=2024-06-01", nil)
	day := decode[struct {
		Exists  bool         `json:"exists"`
		Total   float64      `json:"total"`
		Entries []core.Entry `json:"entries"`
	}](t, rec)
	if !day.Exists || day.Total != -100 {
		t.Errorf("day = %+v, want exists with total -100", day)
	}

	rec = do(t, s, http.MethodGet, "/api/calendar/day?date=2024-06-06&asOf=2024-06-01", nil)
	empty := decode[struct {
		Exists bool `json:"exists"`
	}](t, rec)
	if empty.Exists {
		t.Error("empty day reported exists=true")
	}
}

func TestMonthOverview(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPost, "/api/entries", map[string]any{
		"date": "2024-06-05", "title": "Utilities", "amount": -100,
	})
	do(t, s, http.MethodPost, "/api/entries", map[string]any{
		"date": "2024-06-10", "title": "Refund", "amount": 200,
	})

	rec := do(t, s, http.MethodGet, "/api/calendar/month?year=2024&month=6&asOf=2024-06-01", nil)
	overview := decode[calendar.MonthOverview](t, rec)
	if overview.Expenses != 100 {
		t.Errorf("expenses = %v, want 100", overview.Expenses)
	}
	if overview.Income != 200 {
		t.Errorf("income = %v, want 200", overview.Income)
	}
	if len(overview.Weeks) != 6 {
		t.Errorf("weeks = %d, want 6 for June 2024", len(overview.Weeks))
	}
}

func TestMonthOverview_RejectsBadYearMonth(t *testing.T) {
	s := newTestServer(t)

	// An out-of-range or non-numeric month must not silently answer for a
	// different month.
	for _, path := range []string{
		"/api/calendar/month?year=2024&month=13",
		"/api/calendar/month?year=2024&month=0",
		"/api/calendar/month?year=2024&month=june",
		"/api/calendar/month?year=twenty&month=6",
		"/api/calendar/checklist?year=2024&month=13",
		"/api/calendar/entries?year=2024&month=13",
	} {
		if rec := do(t, s, http.MethodGet, path, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", path, rec.Code)
		}
	}
}

func samplePaycheckUser() map[string]any {
	return map[string]any{
		"name":          "Sam",
		"birthDate":     "1990-07-04",
		"hourlyRate":    20,
		"lunchDuration": 1800,
		"paySchedule":   "Bi-Weekly",
		"sample": map[string]any{
			"sampleGrossPay":       2000.0,
			"sampleNetPay":         1607.4,
			"sampleFederalTax":     157.8,
			"sampleSocialSecurity": 124.0,
			"sampleMedicare":       29.0,
			"sampleStateTax":       81.8,
		},
	}
}

func TestCreateUser_DerivesRates(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/users", samplePaycheckUser())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user = %d, body %s", rec.Code, rec.Body.String())
	}
	user := decode[payroll.User](t, rec)
	if user.TaxRates.FederalIncomeTax != 0.0789 {
		t.Errorf("federal rate = %v, want 0.0789", user.TaxRates.FederalIncomeTax)
	}
	if user.TaxRates.StateIncomeTax != 0.0409 {
		t.Errorf("state rate = %v, want 0.0409", user.TaxRates.StateIncomeTax)
	}
}

func TestCreateUser_InvalidSchedule(t *testing.T) {
	s := newTestServer(t)

	body := samplePaycheckUser()
	body["paySchedule"] = "Fortnightly"
	if rec := do(t, s, http.MethodPost, "/api/users", body); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("create user = %d, want 422", rec.Code)
	}
}

func TestCalculate(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/users", samplePaycheckUser())
	user := decode[payroll.User](t, rec)

	rec = do(t, s, http.MethodPost, fmt.Sprintf("/api/users/%s/calculate", user.ID), map[string]any{
		"hoursWorked": 80, "lunchDays": 10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate = %d, body %s", rec.Code, rec.Body.String())
	}
	calc := decode[calculateResponse](t, rec)
	if calc.LunchHours != 5 {
		t.Errorf("lunch hours = %v, want 5", calc.LunchHours)
	}
	if calc.GrossPay != 1500 {
		t.Errorf("gross pay = %v, want 1500 (75 paid hours at 20/h)", calc.GrossPay)
	}
}

func TestCalculate_LunchDaysBound(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/users", samplePaycheckUser())
	user := decode[payroll.User](t, rec)

	// Bi-Weekly allows at most 10 lunch days.
	rec = do(t, s, http.MethodPost, fmt.Sprintf("/api/users/%s/calculate", user.ID), map[string]any{
		"hoursWorked": 80, "lunchDays": 11,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("calculate over bound = %d, want 422", rec.Code)
	}
}
