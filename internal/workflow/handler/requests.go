package handler

import (
	"strings"
	"time"

	activity "commission/internal/activity/models"
	employee "commission/internal/employee/models"
	news "commission/internal/news/models"
	proposal "commission/internal/proposal/models"
	queue "commission/internal/queue/models"
	dErrors "commission/pkg/domain-errors"
)

// SubmitEditRequest is the HTTP request body for POST /employee-edits.
type SubmitEditRequest struct {
	EmployeeID string            `json:"employeeId"`
	Changes    map[string]string `json:"changes"`
	Reason     string            `json:"reason"`

	parsedChanges employee.Changes
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitEditRequest) Validate() error {
	r.EmployeeID = strings.TrimSpace(r.EmployeeID)
	if r.EmployeeID == "" {
		return dErrors.New(dErrors.CodeValidation, "employeeId is required")
	}
	if len(r.Changes) == 0 {
		return dErrors.New(dErrors.CodeValidation, "changes are required")
	}
	changes, err := employee.ParseChanges(r.Changes)
	if err != nil {
		return err
	}
	r.parsedChanges = changes
	r.Reason = strings.TrimSpace(r.Reason)
	return nil
}

func (r *SubmitEditRequest) ParsedChanges() employee.Changes {
	return r.parsedChanges
}

// DraftRequest is the HTTP request body for POST /news and PUT /news/{id}.
// Status is accepted for client compatibility and ignored: saving always
// stores a draft.
type DraftRequest struct {
	Title    *string   `json:"title,omitempty"`
	Summary  *string   `json:"summary,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Category *string   `json:"category,omitempty"`
	ImageURL *string   `json:"imageUrl,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Status   string    `json:"status,omitempty"`
}

func (r *DraftRequest) ToDraft(id string) news.Draft {
	return news.Draft{
		ID:       id,
		Title:    r.Title,
		Summary:  r.Summary,
		Content:  r.Content,
		Category: r.Category,
		ImageURL: r.ImageURL,
		Tags:     r.Tags,
	}
}

// NotesRequest carries the optional notes of a submit or decision.
type NotesRequest struct {
	Notes string `json:"notes"`
}

func (r *NotesRequest) Validate() error {
	r.Notes = strings.TrimSpace(r.Notes)
	return nil
}

func parseQueueType(s string) (queue.EntityType, error) {
	switch t := queue.EntityType(s); t {
	case "", queue.EntityEmployeeEdit, queue.EntityNews:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid entityType: "+s)
}

func parseProposalStatus(s string) (proposal.Status, error) {
	switch st := proposal.Status(s); st {
	case "", proposal.StatusPending, proposal.StatusApproved, proposal.StatusRejected:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid status: "+s)
}

func parseActivityType(s string) (activity.EntityType, error) {
	switch t := activity.EntityType(s); t {
	case "", activity.EntityEmployee, activity.EntityNews:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid entityType: "+s)
}

// parseBound accepts RFC 3339 timestamps or YYYY-MM-DD dates. A date used as
// the upper bound covers the whole day.
func parseBound(s string, upper bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "invalid date: "+s)
	}
	if upper {
		return d.Add(24*time.Hour - time.Nanosecond), nil
	}
	return d, nil
}

func parseNewsStatus(s string) (news.Status, error) {
	if s == "" {
		return "", nil
	}
	return news.ParseStatus(s)
}
