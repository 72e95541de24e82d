// Package models defines employee edit proposals.
package models

import (
	"time"

	employee "commission/internal/employee/models"
	"commission/pkg/domain"
	dErrors "commission/pkg/domain-errors"
)

// Status is the lifecycle state of a proposal. Approved and rejected are
// terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Proposal is a suggested correction to an employee record awaiting a
// single reviewer decision.
//
// Invariants:
//   - Changes is never empty and holds only fields that differ from Current
//   - Current is the employee as it was at submission time
//   - resolution fields are set exactly once, when Status leaves pending
type Proposal struct {
	ID              string             `json:"id"`
	EmployeeID      string             `json:"employeeId"`
	EmployeeName    string             `json:"employeeName"`
	SubmittedByID   string             `json:"submittedById"`
	SubmittedByName string             `json:"submittedByName"`
	SubmittedAt     time.Time          `json:"submittedAt"`
	Status          Status             `json:"status"`
	Changes         employee.Changes   `json:"changes"`
	Current         *employee.Employee `json:"current"`
	Reason          string             `json:"reason"`
	ResolvedAt      *time.Time         `json:"resolvedAt,omitempty"`
	ReviewerID      string             `json:"reviewerId,omitempty"`
	ReviewerName    string             `json:"reviewerName,omitempty"`
	Notes           string             `json:"notes,omitempty"`
}

// NewProposal snapshots current and keeps only the changes that differ from
// it. An empty diff is a validation error.
func NewProposal(current *employee.Employee, changes employee.Changes, reason string, actor domain.Actor, now time.Time) (*Proposal, error) {
	diff := changes.Diff(current)
	if len(diff) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "proposal has no changes")
	}
	merged := diff.Apply(current)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &Proposal{
		EmployeeID:      current.ID,
		EmployeeName:    current.Name,
		SubmittedByID:   actor.ID,
		SubmittedByName: actor.Name,
		SubmittedAt:     now,
		Status:          StatusPending,
		Changes:         diff,
		Current:         current.Clone(),
		Reason:          reason,
	}, nil
}

// Proposed returns the submission-time snapshot with the changes applied.
func (p *Proposal) Proposed() *employee.Employee {
	return p.Changes.Apply(p.Current)
}

func (p *Proposal) IsPending() bool {
	return p.Status == StatusPending
}

// CanResolve reports a conflict once the proposal has been decided.
func (p *Proposal) CanResolve() error {
	if !p.IsPending() {
		return dErrors.New(dErrors.CodeConflict, "proposal already "+string(p.Status))
	}
	return nil
}

// ApplyResolution records the reviewer decision.
func (p *Proposal) ApplyResolution(decision domain.Decision, reviewer domain.Actor, notes string, now time.Time) {
	t := now
	if decision == domain.DecisionApprove {
		p.Status = StatusApproved
	} else {
		p.Status = StatusRejected
	}
	p.ResolvedAt = &t
	p.ReviewerID = reviewer.ID
	p.ReviewerName = reviewer.Name
	p.Notes = notes
}

// Clone returns a deep copy.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	c := *p
	c.Changes = p.Changes.Clone()
	c.Current = p.Current.Clone()
	if p.ResolvedAt != nil {
		t := *p.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// Filter narrows proposal listings.
type Filter struct {
	EmployeeID string
	Status     Status
}

func (f Filter) Matches(p *Proposal) bool {
	if f.EmployeeID != "" && p.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	return true
}
