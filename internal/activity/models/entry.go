// Package models defines the append-only activity trail.
package models

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"commission/pkg/domain"
)

// EntityType names the kind of record an activity entry refers to.
type EntityType string

const (
	EntityEmployee EntityType = "employee"
	EntityNews     EntityType = "news"
)

// Actions recorded by the workflow and the employee admin service.
const (
	ActionSubmittedEmployeeCorrection = "submitted employee correction"
	ActionApprovedEmployeeCorrection  = "approved employee correction"
	ActionRejectedEmployeeCorrection  = "rejected employee correction"
	ActionCreatedNewsDraft            = "created news draft"
	ActionUpdatedNewsDraft            = "updated news draft"
	ActionSubmittedNews               = "submitted news for approval"
	ActionApprovedNews                = "approved news article"
	ActionRejectedNews                = "rejected news article"
	ActionCreatedEmployee             = "created employee"
	ActionUpdatedEmployee             = "updated employee"
	ActionDeletedEmployee             = "deleted employee"
)

// DetailNotes is the details key searched by Filter.Search.
const DetailNotes = "notes"

// Entry is one immutable line of the activity trail.
type Entry struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actorId"`
	ActorName  string         `json:"actorName"`
	Action     string         `json:"action"`
	EntityType EntityType     `json:"entityType"`
	EntityID   string         `json:"entityId"`
	EntityName string         `json:"entityName"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewEntry builds an entry attributed to actor at now.
func NewEntry(actor domain.Actor, action string, entityType EntityType, entityID, entityName string, details map[string]any, now time.Time) *Entry {
	return &Entry{
		ID:         uuid.NewString(),
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
		Timestamp:  now,
	}
}

// Clone returns a deep copy. Nested maps and slices in Details are copied
// too, so a caller can never reach the stored entry through a detail value.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Details != nil {
		c.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = cloneDetail(v)
		}
	}
	return &c
}

func cloneDetail(v any) any {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v)).Interface()
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(deepCopy(v.Elem()))
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	}
	return v
}

// Notes returns the notes detail as text, or "" when absent.
func (e *Entry) Notes() string {
	v, ok := e.Details[DetailNotes]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Filter narrows activity queries. All set fields must match.
type Filter struct {
	// Actor matches the actor ID exactly or the actor name case-insensitively.
	Actor      string
	EntityType EntityType
	// Search is a case-insensitive substring of action, entity name or notes.
	Search string
	// From and To bound the timestamp inclusively; zero values are open.
	From time.Time
	To   time.Time
}

func (f Filter) Matches(e *Entry) bool {
	if f.Actor != "" && e.ActorID != f.Actor && !strings.EqualFold(e.ActorName, f.Actor) {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Action), q) &&
			!strings.Contains(strings.ToLower(e.EntityName), q) &&
			!strings.Contains(strings.ToLower(e.Notes()), q) {
			return false
		}
	}
	return true
}
