package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bigbudget/internal/core"
	"bigbudget/internal/services"
)

type entryRequest struct {
	Date      string  `json:"date"`
	Title     string  `json:"title"`
	Amount    float64 `json:"amount"`
	Notes     string  `json:"notes"`
	Recurring string  `json:"recurringType"`
}

func (req entryRequest) toEntry() (core.Entry, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Entry{}, core.ErrInvalidDate
	}
	return core.Entry{
		Date:      date,
		Title:     sanitizeInput(req.Title),
		Amount:    req.Amount,
		Notes:     sanitizeInput(req.Notes),
		Recurring: core.Recurrence(req.Recurring),
		Kind:      core.Regular,
	}, nil
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Recurring == "" {
		req.Recurring = string(core.None)
	}

	entry, err := req.toEntry()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.budget.CreateEntry(r.Context(), entry)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	slog.InfoContext(r.Context(), "Entry created",
		"entry_id", created.ID,
		"entry_title", created.Title,
		"amount", created.Amount,
		"recurring", created.Recurring)

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Recurring == "" {
		req.Recurring = string(core.None)
	}

	entry, err := req.toEntry()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	entry.ID = id
	entry.Kind = core.Regular

	updated, err := s.budget.UpdateEntry(r.Context(), entry)
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "entry not found")
		return
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	if v := r.URL.Query().Get("series"); v == "1" || v == "true" {
		removed, err := s.budget.DeleteSeries(r.Context(), id)
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		slog.InfoContext(r.Context(), "Series deleted", "entry_id", id, "removed", removed)
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
		return
	}

	if err := s.budget.DeleteEntry(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	toggled, err := s.budget.TogglePaid(r.Context(), id, time.Now())
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	writeJSON(w, http.StatusOK, toggled)
}

type depositRequest struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
}

func (s *Server) handleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, core.ErrInvalidDate.Error())
		return
	}

	created, err := s.budget.CreateDeposit(r.Context(), core.Deposit{
		Name:   sanitizeInput(req.Name),
		Amount: req.Amount,
		Date:   date,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	if err := s.budget.DeleteDeposit(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "deposit not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type profileRequest struct {
	PaySchedule string  `json:"paySchedule"`
	HourlyRate  float64 `json:"hourlyRate"`
	Birthday    string  `json:"birthday"`
}

func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile := core.UserProfile{
		PaySchedule: sanitizeInput(req.PaySchedule),
		HourlyRate:  req.HourlyRate,
	}
	if req.Birthday != "" {
		birthday, err := parseDate(req.Birthday)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, core.ErrInvalidDate.Error())
			return
		}
		profile.Birthday = birthday
	}

	s.budget.SetProfile(r.Context(), profile)
	writeJSON(w, http.StatusOK, profile)
}
