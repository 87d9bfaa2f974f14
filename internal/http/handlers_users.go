package http

import (
	"fmt"
	"net/http"

	"bigbudget/internal/payroll"
)

type userRequest struct {
	Name                 string                 `json:"name"`
	BirthDate            string                 `json:"birthDate"`
	HourlyRate           float64                `json:"hourlyRate"`
	LunchDurationSeconds float64                `json:"lunchDuration"`
	PaySchedule          string                 `json:"paySchedule"`
	Sample               payroll.SamplePaycheck `json:"sample"`
}

func (req userRequest) toUser() (payroll.User, error) {
	name := sanitizeInput(req.Name)
	if name == "" {
		return payroll.User{}, fmt.Errorf("name is required")
	}

	schedule := payroll.PaySchedule(req.PaySchedule)
	if !schedule.Valid() {
		return payroll.User{}, fmt.Errorf("invalid pay schedule %q", req.PaySchedule)
	}

	birthDate, err := parseDate(req.BirthDate)
	if err != nil {
		return payroll.User{}, fmt.Errorf("birth date must be YYYY-MM-DD")
	}

	return payroll.User{
		Name:                 name,
		BirthDate:            birthDate,
		HourlyRate:           req.HourlyRate,
		LunchDurationSeconds: req.LunchDurationSeconds,
		PaySchedule:          schedule,
		Sample:               req.Sample,
	}, nil
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users := s.users.List()
	if users == nil {
		users = []payroll.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := req.toUser()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, s.users.Add(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	user, ok := s.users.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := req.toUser()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	user.ID = id

	updated, ok := s.users.Update(user)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if !s.users.Delete(id) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type calculateRequest struct {
	HoursWorked  float64 `json:"hoursWorked"`
	LunchDays    int     `json:"lunchDays"`
	TaxFreeBonus float64 `json:"taxFreeBonus"`
}

// calculateResponse flattens the derived pay figures for one period.
type calculateResponse struct {
	HoursWorked    float64 `json:"hoursWorked"`
	LunchDays      int     `json:"lunchDays"`
	LunchHours     float64 `json:"lunchHours"`
	TaxFreeBonus   float64 `json:"taxFreeBonus"`
	GrossPay       float64 `json:"grossPay"`
	FederalTax     float64 `json:"federalTax"`
	SocialSecurity float64 `json:"socialSecurity"`
	Medicare       float64 `json:"medicare"`
	StateTax       float64 `json:"stateTax"`
	TotalTax       float64 `json:"totalTax"`
	NetPay         float64 `json:"netPay"`
}

// handleCalculate computes pay for one period. The lunch-day bound is
// enforced here, at the boundary; the payroll package itself never clamps.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	user, ok := s.users.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	var req calculateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.LunchDays < 0 || req.LunchDays > user.PaySchedule.MaxLunchDays() {
		writeError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("lunch days must be between 0 and %d for a %s schedule",
				user.PaySchedule.MaxLunchDays(), user.PaySchedule))
		return
	}
	if req.HoursWorked < 0 {
		writeError(w, http.StatusUnprocessableEntity, "hours worked cannot be negative")
		return
	}

	calc := payroll.Compute(user, req.HoursWorked, req.LunchDays, req.TaxFreeBonus)
	writeJSON(w, http.StatusOK, calculateResponse{
		HoursWorked:    calc.HoursWorked,
		LunchDays:      calc.LunchDays,
		LunchHours:     calc.LunchHours(),
		TaxFreeBonus:   calc.TaxFreeBonus,
		GrossPay:       calc.GrossPay(),
		FederalTax:     calc.FederalTax(),
		SocialSecurity: calc.SocialSecurity(),
		Medicare:       calc.Medicare(),
		StateTax:       calc.StateTax(),
		TotalTax:       calc.TotalTax(),
		NetPay:         calc.NetPay(),
	})
}
