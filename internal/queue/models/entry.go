// Package models defines the audit queue: the work-list of submissions
// awaiting a reviewer decision.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	employee "commission/internal/employee/models"
	news "commission/internal/news/models"
	"commission/pkg/platform/sentinel"
)

// EntityType discriminates queue payloads.
type EntityType string

const (
	EntityEmployeeEdit EntityType = "employeeEdit"
	EntityNews         EntityType = "news"
)

// StatusPending is the only status a queued entry carries; decided work is
// removed from the queue rather than re-labelled.
const StatusPending = "pending"

// Visitor handles each payload kind. Adding a payload kind adds a method
// here, so every dispatcher stops compiling until it handles the new kind.
type Visitor interface {
	VisitEmployeeEdit(p *EmployeeEditPayload) error
	VisitNews(p *NewsPayload) error
}

// Payload is the closed set of queue payloads.
type Payload interface {
	EntityType() EntityType
	Accept(v Visitor) error
	clonePayload() Payload
}

// EmployeeEditPayload carries the reviewer diff of an edit proposal.
type EmployeeEditPayload struct {
	Current  *employee.Employee `json:"current"`
	Proposed *employee.Employee `json:"proposed"`
	Changes  employee.Changes   `json:"changes"`
	Reason   string             `json:"reason"`
}

func (p *EmployeeEditPayload) EntityType() EntityType { return EntityEmployeeEdit }
func (p *EmployeeEditPayload) Accept(v Visitor) error { return v.VisitEmployeeEdit(p) }
func (p *EmployeeEditPayload) clonePayload() Payload {
	return &EmployeeEditPayload{
		Current:  p.Current.Clone(),
		Proposed: p.Proposed.Clone(),
		Changes:  p.Changes.Clone(),
		Reason:   p.Reason,
	}
}

// NewsPayload carries the article snapshot taken at submission.
type NewsPayload struct {
	Article *news.Article `json:"article"`
	Notes   string        `json:"notes,omitempty"`
}

func (p *NewsPayload) EntityType() EntityType { return EntityNews }
func (p *NewsPayload) Accept(v Visitor) error { return v.VisitNews(p) }
func (p *NewsPayload) clonePayload() Payload {
	return &NewsPayload{Article: p.Article.Clone(), Notes: p.Notes}
}

// Entry is one pending item. ID equals the proposal or article ID, so an
// article resubmission replaces its previous entry.
type Entry struct {
	ID              string     `json:"id"`
	EntityType      EntityType `json:"entityType"`
	EntityID        string     `json:"entityId"`
	EntityName      string     `json:"entityName"`
	Status          string     `json:"status"`
	SubmittedAt     time.Time  `json:"submittedAt"`
	SubmittedByID   string     `json:"submittedById"`
	SubmittedByName string     `json:"submittedByName"`
	Payload         Payload    `json:"payload"`
}

// Clone returns a deep copy.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Payload != nil {
		c.Payload = e.Payload.clonePayload()
	}
	return &c
}

// Dispatch routes the entry to the visitor method for its payload. An entry
// without a payload, or whose payload disagrees with EntityType, is in an
// invalid state.
func (e *Entry) Dispatch(v Visitor) error {
	if e.Payload == nil || e.Payload.EntityType() != e.EntityType {
		return fmt.Errorf("queue entry %s has unrecognized entity type %q: %w", e.ID, e.EntityType, sentinel.ErrInvalidState)
	}
	return e.Payload.Accept(v)
}

// DecodePayload restores a payload from its stored JSON form.
func DecodePayload(entityType EntityType, raw []byte) (Payload, error) {
	var p Payload
	switch entityType {
	case EntityEmployeeEdit:
		p = &EmployeeEditPayload{}
	case EntityNews:
		p = &NewsPayload{}
	default:
		return nil, fmt.Errorf("unrecognized queue entity type %q: %w", entityType, sentinel.ErrInvalidState)
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", entityType, err)
	}
	return p, nil
}

// UnmarshalJSON decodes the payload according to entityType.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type alias Entry
	var raw struct {
		alias
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry(raw.alias)
	if len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		e.Payload = nil
		return nil
	}
	p, err := DecodePayload(e.EntityType, raw.Payload)
	if err != nil {
		return err
	}
	e.Payload = p
	return nil
}

// Filter narrows queue listings.
type Filter struct {
	EntityType EntityType
}

func (f Filter) Matches(e *Entry) bool {
	return e.Status == StatusPending && (f.EntityType == "" || e.EntityType == f.EntityType)
}
