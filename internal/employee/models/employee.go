package models

import (
	"strings"
	"time"

	dErrors "commission/pkg/domain-errors"
)

// DateLayout is the calendar-date format used for employment and retirement dates.
const DateLayout = "2006-01-02"

// StatusActive is assigned to employees created without an explicit status.
const StatusActive = "active"

// Employee is the canonical record of a commission employee.
//
// Invariants:
//   - ID is immutable after creation
//   - Name and Email are non-empty
//   - EmploymentDate and RetirementDate, when set, are YYYY-MM-DD dates
//
// Records are never versioned; the last write wins.
type Employee struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Position       string `json:"position"`
	Department     string `json:"department"`
	EmploymentDate string `json:"employmentDate"`
	RetirementDate string `json:"retirementDate"`
	Phone          string `json:"phone,omitempty"`
	Status         string `json:"status"`
}

// Clone returns a copy that can be mutated without touching the receiver.
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// Validate checks the record-level invariants.
func (e *Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "employee name is required")
	}
	if strings.TrimSpace(e.Email) == "" {
		return dErrors.New(dErrors.CodeValidation, "employee email is required")
	}
	if err := validateDate(FieldEmploymentDate, e.EmploymentDate); err != nil {
		return err
	}
	return validateDate(FieldRetirementDate, e.RetirementDate)
}

// RetirementTime parses RetirementDate. ok is false when the date is unset.
func (e *Employee) RetirementTime() (t time.Time, ok bool) {
	if e.RetirementDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, e.RetirementDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NewEmployee builds a record for creation, trimming input and defaulting
// the status. The ID is assigned by the store.
func NewEmployee(e Employee) (*Employee, error) {
	rec := &Employee{
		ID:             strings.TrimSpace(e.ID),
		Name:           strings.TrimSpace(e.Name),
		Email:          strings.TrimSpace(e.Email),
		Position:       strings.TrimSpace(e.Position),
		Department:     strings.TrimSpace(e.Department),
		EmploymentDate: strings.TrimSpace(e.EmploymentDate),
		RetirementDate: strings.TrimSpace(e.RetirementDate),
		Phone:          strings.TrimSpace(e.Phone),
		Status:         strings.TrimSpace(e.Status),
	}
	if rec.Status == "" {
		rec.Status = StatusActive
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func validateDate(field Field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return dErrors.New(dErrors.CodeValidation, string(field)+" must be a YYYY-MM-DD date")
	}
	return nil
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Department string
	Status     string
	// Search is a case-insensitive substring match on name or email.
	Search string
}

// Matches reports whether e satisfies every set filter field.
func (f Filter) Matches(e *Employee) bool {
	if f.Department != "" && !strings.EqualFold(e.Department, f.Department) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(e.Status, f.Status) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Name), q) && !strings.Contains(strings.ToLower(e.Email), q) {
			return false
		}
	}
	return true
}
