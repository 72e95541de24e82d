package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"commission/pkg/domain"
)

func TestFilterMatches(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	actor := domain.Actor{ID: "u-1", Name: "Grace Auditor", Role: domain.RoleAudit}
	entry := NewEntry(actor, ActionRejectedNews, EntityNews, "n-1", "Budget Hearing",
		map[string]any{DetailNotes: "Fix the typo"}, now)

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter matches", Filter{}, true},
		{"actor by id", Filter{Actor: "u-1"}, true},
		{"actor by name ignores case", Filter{Actor: "grace auditor"}, true},
		{"other actor", Filter{Actor: "u-2"}, false},
		{"entity type", Filter{EntityType: EntityNews}, true},
		{"other entity type", Filter{EntityType: EntityEmployee}, false},
		{"search action", Filter{Search: "REJECTED"}, true},
		{"search entity name", Filter{Search: "budget"}, true},
		{"search notes", Filter{Search: "typo"}, true},
		{"search miss", Filter{Search: "salary"}, false},
		{"inside range", Filter{From: now.Add(-time.Hour), To: now.Add(time.Hour)}, true},
		{"range bounds are inclusive", Filter{From: now, To: now}, true},
		{"before range", Filter{From: now.Add(time.Minute)}, false},
		{"after range", Filter{To: now.Add(-time.Minute)}, false},
		{"conjunctive", Filter{Actor: "u-1", EntityType: EntityEmployee}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(entry))
		})
	}
}

func TestCloneCopiesDetails(t *testing.T) {
	e := NewEntry(domain.Actor{ID: "u-1"}, ActionApprovedNews, EntityNews, "n-1", "T", map[string]any{DetailNotes: "ok"}, time.Now())
	c := e.Clone()
	c.Details[DetailNotes] = "changed"
	assert.Equal(t, "ok", e.Notes())
}

type fieldChanges map[string]string

func TestCloneCopiesNestedDetails(t *testing.T) {
	e := NewEntry(domain.Actor{ID: "u-1"}, ActionSubmittedEmployeeCorrection, EntityEmployee, "emp-1", "Ada",
		map[string]any{
			"changes": map[string]string{"department": "Finance"},
			"typed":   fieldChanges{"phone": "555"},
			"nested":  map[string]any{"tags": []string{"a"}},
			"empty":   nil,
		}, time.Now())

	c := e.Clone()
	c.Details["changes"].(map[string]string)["department"] = "TAMPERED"
	c.Details["typed"].(fieldChanges)["phone"] = "000"
	c.Details["nested"].(map[string]any)["tags"].([]string)[0] = "z"

	assert.Equal(t, "Finance", e.Details["changes"].(map[string]string)["department"])
	assert.Equal(t, "555", e.Details["typed"].(fieldChanges)["phone"])
	assert.Equal(t, []string{"a"}, e.Details["nested"].(map[string]any)["tags"])
	assert.Contains(t, c.Details, "empty")
	assert.Nil(t, c.Details["empty"])
}
