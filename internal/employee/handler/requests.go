package handler

import (
	"strings"

	"commission/internal/employee/models"
	dErrors "commission/pkg/domain-errors"
)

// CreateEmployeeRequest is the HTTP request body for POST /employees.
type CreateEmployeeRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Position       string `json:"position"`
	Department     string `json:"department"`
	EmploymentDate string `json:"employmentDate"`
	RetirementDate string `json:"retirementDate"`
	Phone          string `json:"phone"`
	Status         string `json:"status"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateEmployeeRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return nil
}

func (r *CreateEmployeeRequest) ToModel() models.Employee {
	return models.Employee{
		Name:           r.Name,
		Email:          r.Email,
		Position:       r.Position,
		Department:     r.Department,
		EmploymentDate: r.EmploymentDate,
		RetirementDate: r.RetirementDate,
		Phone:          r.Phone,
		Status:         r.Status,
	}
}

// UpdateEmployeeRequest is the HTTP request body for PUT /employees/{id}:
// a sparse map of field name to new value.
type UpdateEmployeeRequest struct {
	Changes map[string]string `json:"changes"`

	parsed models.Changes
}

func (r *UpdateEmployeeRequest) Validate() error {
	if len(r.Changes) == 0 {
		return dErrors.New(dErrors.CodeValidation, "changes are required")
	}
	changes, err := models.ParseChanges(r.Changes)
	if err != nil {
		return err
	}
	r.parsed = changes
	return nil
}

func (r *UpdateEmployeeRequest) ParsedChanges() models.Changes {
	return r.parsed
}
