// Package payroll derives effective tax rates from a single sample paycheck
// and computes gross/net pay for future pay periods.
package payroll

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	Daily    PaySchedule = "Daily"
	Weekly   PaySchedule = "Weekly"
	Biweekly PaySchedule = "Bi-Weekly"
	Monthly  PaySchedule = "Monthly"
)

type (
	PaySchedule string

	// TaxRates holds the four effective withholding rates back-solved from a
	// sample paycheck. Each is a fraction of gross pay.
	TaxRates struct {
		FederalIncomeTax float64 `json:"federalIncomeTax"`
		SocialSecurity   float64 `json:"socialSecurity"`
		Medicare         float64 `json:"medicare"`
		StateIncomeTax   float64 `json:"stateIncomeTax"`
	}

	// SamplePaycheck is one real paycheck's figures, the sole input to rate
	// derivation. The figures are kept on the user so rates can be re-derived
	// when the sample is edited.
	SamplePaycheck struct {
		GrossPay       float64 `json:"sampleGrossPay"`
		NetPay         float64 `json:"sampleNetPay"`
		FederalTax     float64 `json:"sampleFederalTax"`
		SocialSecurity float64 `json:"sampleSocialSecurity"`
		Medicare       float64 `json:"sampleMedicare"`
		StateTax       float64 `json:"sampleStateTax"`
	}

	User struct {
		ID                   uuid.UUID      `json:"id"`
		Name                 string         `json:"name"`
		BirthDate            time.Time      `json:"birthDate"`
		HourlyRate           float64        `json:"hourlyRate"`
		LunchDurationSeconds float64        `json:"lunchDuration"`
		PaySchedule          PaySchedule    `json:"paySchedule"`
		TaxRates             TaxRates       `json:"taxRates"`
		Sample               SamplePaycheck `json:"sample"`
	}

	// Calculation is an ephemeral pay computation for one period. All pay
	// figures are derived on demand and never persisted.
	Calculation struct {
		HoursWorked  float64 `json:"hoursWorked"`
		LunchDays    int     `json:"lunchDays"`
		TaxFreeBonus float64 `json:"taxFreeBonus"`
		User         User    `json:"user"`
	}
)

// Fallback rates used when the sample gross pay is zero or negative. They are
// a division-by-zero guard, not a computed value; callers depend on getting
// exactly these figures back.
var fallbackRates = TaxRates{
	FederalIncomeTax: 0.0789,
	SocialSecurity:   0.062,
	Medicare:         0.0145,
	StateIncomeTax:   0.0409,
}

// StandardHours is the typical number of work hours in one pay period.
func (s PaySchedule) StandardHours() float64 {
	switch s {
	case Daily:
		return 8
	case Weekly:
		return 40
	case Biweekly:
		return 80
	case Monthly:
		return 160
	default:
		return 0
	}
}

// MaxLunchDays bounds the lunch-day input for one pay period. The bound is
// enforced at the request boundary, not inside Compute.
func (s PaySchedule) MaxLunchDays() int {
	switch s {
	case Daily:
		return 1
	case Weekly:
		return 5
	case Biweekly:
		return 10
	case Monthly:
		return 20
	default:
		return 0
	}
}

func (s PaySchedule) Valid() bool {
	switch s {
	case Daily, Weekly, Biweekly, Monthly:
		return true
	default:
		return false
	}
}

// Total returns the combined withholding rate. DeriveRates guarantees it
// never exceeds 1.0.
func (r TaxRates) Total() float64 {
	return r.FederalIncomeTax + r.SocialSecurity + r.Medicare + r.StateIncomeTax
}

// DeriveRates back-solves the effective tax rates from a sample paycheck.
// A non-positive gross pay yields the fixed fallback rates. Rates that sum
// past 100% are scaled down proportionally so the relative weight between
// tax categories survives. Derivation never fails.
func DeriveRates(s SamplePaycheck) TaxRates {
	if s.GrossPay <= 0 {
		return fallbackRates
	}

	rates := TaxRates{
		FederalIncomeTax: math.Max(roundTo(s.FederalTax/s.GrossPay, 4), 0),
		SocialSecurity:   math.Max(roundTo(s.SocialSecurity/s.GrossPay, 4), 0),
		Medicare:         math.Max(roundTo(s.Medicare/s.GrossPay, 4), 0),
		StateIncomeTax:   math.Max(roundTo(s.StateTax/s.GrossPay, 4), 0),
	}

	if total := rates.Total(); total > 1.0 {
		scale := 1.0 / total
		rates = TaxRates{
			FederalIncomeTax: roundTo(rates.FederalIncomeTax*scale, 4),
			SocialSecurity:   roundTo(rates.SocialSecurity*scale, 4),
			Medicare:         roundTo(rates.Medicare*scale, 4),
			StateIncomeTax:   roundTo(rates.StateIncomeTax*scale, 4),
		}
	}

	return rates
}

// Compute builds a pay calculation for one period. Gross pay may go negative
// when lunch hours exceed worked hours; nothing here clamps, by contract.
func Compute(user User, hoursWorked float64, lunchDays int, taxFreeBonus float64) Calculation {
	return Calculation{
		HoursWorked:  hoursWorked,
		LunchDays:    lunchDays,
		TaxFreeBonus: taxFreeBonus,
		User:         user,
	}
}

// LunchHours converts the period's lunch days into unpaid hours.
func (c Calculation) LunchHours() float64 {
	return float64(c.LunchDays) * c.User.LunchDurationSeconds / 3600
}

func (c Calculation) GrossPay() float64 {
	return (c.HoursWorked - c.LunchHours()) * c.User.HourlyRate
}

func (c Calculation) FederalTax() float64 {
	return c.GrossPay() * c.User.TaxRates.FederalIncomeTax
}

func (c Calculation) SocialSecurity() float64 {
	return c.GrossPay() * c.User.TaxRates.SocialSecurity
}

func (c Calculation) Medicare() float64 {
	return c.GrossPay() * c.User.TaxRates.Medicare
}

func (c Calculation) StateTax() float64 {
	return c.GrossPay() * c.User.TaxRates.StateIncomeTax
}

func (c Calculation) TotalTax() float64 {
	return c.FederalTax() + c.SocialSecurity() + c.Medicare() + c.StateTax()
}

func (c Calculation) NetPay() float64 {
	return c.GrossPay() - c.TotalTax() + c.TaxFreeBonus
}

func roundTo(v float64, places int) float64 {
	m := math.Pow(10, float64(places))
	return math.Round(v*m) / m
}
