package models

import (
	"sort"
	"strings"

	dErrors "commission/pkg/domain-errors"
)

// Field names an editable employee attribute. Names match the JSON keys of
// Employee so client diffs can be used as-is.
type Field string

const (
	FieldName           Field = "name"
	FieldEmail          Field = "email"
	FieldPosition       Field = "position"
	FieldDepartment     Field = "department"
	FieldEmploymentDate Field = "employmentDate"
	FieldRetirementDate Field = "retirementDate"
	FieldPhone          Field = "phone"
	FieldStatus         Field = "status"
)

var editableFields = map[Field]bool{
	FieldName:           true,
	FieldEmail:          true,
	FieldPosition:       true,
	FieldDepartment:     true,
	FieldEmploymentDate: true,
	FieldRetirementDate: true,
	FieldPhone:          true,
	FieldStatus:         true,
}

// Changes is a partial field mapping applied as a shallow merge over an
// Employee. Fields absent from the map are retained.
type Changes map[Field]string

// ParseChanges constructs Changes from a client-supplied map, rejecting
// unknown fields.
func ParseChanges(raw map[string]string) (Changes, error) {
	c := make(Changes, len(raw))
	for k, v := range raw {
		f := Field(k)
		if !editableFields[f] {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown employee field: "+k)
		}
		c[f] = strings.TrimSpace(v)
	}
	return c, nil
}

// Fields returns the changed field names in a stable order.
func (c Changes) Fields() []Field {
	out := make([]Field, 0, len(c))
	for f := range c {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (c Changes) Clone() Changes {
	out := make(Changes, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Diff drops entries whose value already equals the current record.
func (c Changes) Diff(current *Employee) Changes {
	out := make(Changes, len(c))
	for f, v := range c {
		if current.Get(f) != v {
			out[f] = v
		}
	}
	return out
}

// Apply returns a copy of e with the changes merged in. e is not modified.
func (c Changes) Apply(e *Employee) *Employee {
	merged := e.Clone()
	for f, v := range c {
		merged.Set(f, v)
	}
	return merged
}

// Get returns the value of field f.
func (e *Employee) Get(f Field) string {
	switch f {
	case FieldName:
		return e.Name
	case FieldEmail:
		return e.Email
	case FieldPosition:
		return e.Position
	case FieldDepartment:
		return e.Department
	case FieldEmploymentDate:
		return e.EmploymentDate
	case FieldRetirementDate:
		return e.RetirementDate
	case FieldPhone:
		return e.Phone
	case FieldStatus:
		return e.Status
	}
	return ""
}

// Set assigns v to field f. Unknown fields are ignored.
func (e *Employee) Set(f Field, v string) {
	switch f {
	case FieldName:
		e.Name = v
	case FieldEmail:
		e.Email = v
	case FieldPosition:
		e.Position = v
	case FieldDepartment:
		e.Department = v
	case FieldEmploymentDate:
		e.EmploymentDate = v
	case FieldRetirementDate:
		e.RetirementDate = v
	case FieldPhone:
		e.Phone = v
	case FieldStatus:
		e.Status = v
	}
}

// Validate rejects fields that cannot be edited.
func (c Changes) Validate() error {
	for f := range c {
		if !editableFields[f] {
			return dErrors.New(dErrors.CodeValidation, "unknown employee field: "+string(f))
		}
	}
	return nil
}
