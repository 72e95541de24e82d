package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	employee "commission/internal/employee/models"
	"commission/pkg/domain"
	dErrors "commission/pkg/domain-errors"
)

var (
	submitter = domain.Actor{ID: "audit-1", Name: "Auditor", Role: domain.RoleAudit}
	reviewer  = domain.Actor{ID: "admin-1", Name: "Admin", Role: domain.RoleAdmin}
	now       = time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
)

func emp() *employee.Employee {
	return &employee.Employee{ID: "emp-1", Name: "A", Email: "a@example.gov", Department: "X", Status: employee.StatusActive}
}

func TestNewProposal(t *testing.T) {
	t.Run("keeps only differing fields", func(t *testing.T) {
		p, err := NewProposal(emp(), employee.Changes{
			employee.FieldDepartment: "Y",
			employee.FieldName:       "A",
		}, "moved", submitter, now)
		require.NoError(t, err)
		assert.Equal(t, employee.Changes{employee.FieldDepartment: "Y"}, p.Changes)
		assert.Equal(t, StatusPending, p.Status)
		assert.Equal(t, "A", p.EmployeeName)
		assert.Equal(t, "audit-1", p.SubmittedByID)
	})

	t.Run("empty diff is a validation error", func(t *testing.T) {
		_, err := NewProposal(emp(), employee.Changes{}, "r", submitter, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = NewProposal(emp(), employee.Changes{employee.FieldDepartment: "X"}, "r", submitter, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("proposed record must stay valid", func(t *testing.T) {
		_, err := NewProposal(emp(), employee.Changes{employee.FieldRetirementDate: "soon"}, "r", submitter, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("snapshot is independent of the live record", func(t *testing.T) {
		live := emp()
		p, err := NewProposal(live, employee.Changes{employee.FieldDepartment: "Y"}, "r", submitter, now)
		require.NoError(t, err)
		live.Department = "Z"
		assert.Equal(t, "X", p.Current.Department)
		assert.Equal(t, "Y", p.Proposed().Department)
		assert.Equal(t, "A", p.Proposed().Name)
	})
}

func TestResolution(t *testing.T) {
	for _, tc := range []struct {
		decision domain.Decision
		want     Status
	}{
		{domain.DecisionApprove, StatusApproved},
		{domain.DecisionReject, StatusRejected},
	} {
		t.Run(string(tc.decision), func(t *testing.T) {
			p, err := NewProposal(emp(), employee.Changes{employee.FieldDepartment: "Y"}, "r", submitter, now)
			require.NoError(t, err)
			require.NoError(t, p.CanResolve())

			p.ApplyResolution(tc.decision, reviewer, "done", now.Add(time.Hour))
			assert.Equal(t, tc.want, p.Status)
			require.NotNil(t, p.ResolvedAt)
			assert.Equal(t, "admin-1", p.ReviewerID)
			assert.Equal(t, "done", p.Notes)
			assert.True(t, dErrors.HasCode(p.CanResolve(), dErrors.CodeConflict))
		})
	}
}
