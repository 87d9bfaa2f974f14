package http

import (
	"net/http"
	"strconv"
	"strings"

	"bigbudget/internal/core"
)

// handleCalendarDay returns the entries and total for one calendar day. A day
// with no entries reports exists=false so clients can render absence
// differently from a zero total.
func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	asOf := parseAsOf(r)

	entries, ok := s.aggregator.EntriesOn(date, asOf)
	total := 0.0
	for _, e := range entries {
		total += e.Amount
	}

	writeJSON(w, http.StatusOK, struct {
		Exists  bool         `json:"exists"`
		Total   float64      `json:"total"`
		Entries []core.Entry `json:"entries"`
	}{Exists: ok, Total: total, Entries: entries})
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Entries []core.Entry `json:"entries"`
	}{Entries: s.aggregator.Upcoming(parseAsOf(r), limit)})
}

func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.aggregator.Overview(year, month, parseAsOf(r)))
}

func (s *Server) handleMonthEntries(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Entries []core.Entry `json:"entries"`
	}{Entries: s.aggregator.MonthlyEntries(year, month, parseAsOf(r))})
}

func (s *Server) handleChecklist(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.aggregator.PaymentChecklist(year, month, parseAsOf(r)))
}
