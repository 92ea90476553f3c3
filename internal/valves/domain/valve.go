package valves

import (
	"errors"
	"time"
)

// DefaultLeadTimeDays is the warning lead applied when a record does not set one.
const DefaultLeadTimeDays = 90

// Valve represents a pressure-relief valve under periodic inspection.
type Valve struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Manufacturer    string    `json:"manufacturer,omitempty"`
	Location        string    `json:"location,omitempty"`
	NominalPressure string    `json:"nominal_pressure"`
	InletDiameter   string    `json:"inlet_diameter"`
	OutletDiameter  string    `json:"outlet_diameter"`
	LastInspection  time.Time `json:"last_inspection_date"`
	IntervalYears   int       `json:"interval_years"`
	LeadTimeDays    int       `json:"lead_time_days"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// Validate checks record invariants before a valve reaches the store.
func (v Valve) Validate() error {
	if v.ID == "" {
		return errors.New("valve: empty serial id")
	}
	if v.Name == "" {
		return errors.New("valve: empty name")
	}
	if v.NominalPressure == "" {
		return errors.New("valve: empty nominal pressure")
	}
	if v.InletDiameter == "" {
		return errors.New("valve: empty inlet diameter")
	}
	if v.OutletDiameter == "" {
		return errors.New("valve: empty outlet diameter")
	}
	if v.LastInspection.IsZero() {
		return errors.New("valve: missing last inspection date")
	}
	if v.IntervalYears < 1 {
		return errors.New("valve: interval years must be >= 1")
	}
	if v.LeadTimeDays < 1 {
		return errors.New("valve: lead time days must be >= 1")
	}
	return nil
}

// NextDue returns the next inspection due date for this valve.
func (v Valve) NextDue() time.Time {
	return NextDueDate(v.LastInspection, v.IntervalYears)
}

// StatusAt classifies the valve relative to the given day.
func (v Valve) StatusAt(today time.Time) Status {
	return Classify(v.NextDue(), v.LeadTimeDays, today)
}
