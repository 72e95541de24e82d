package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"commission/internal/employee/models"
	"commission/pkg/platform/sentinel"
	"commission/pkg/platform/tx"
)

// Error Contract:
// - Return sentinel.ErrNotFound when the requested employee does not exist
// - Return sentinel.ErrConflict when the email is already used by another employee
// - Writes inside a unit of work register undo steps on the tx journal
//
// InMemory stores employees in memory for tests/dev.
type InMemory struct {
	mu        sync.RWMutex
	employees map[string]*models.Employee
}

// NewInMemory constructs an empty in-memory employee store.
func NewInMemory() *InMemory {
	return &InMemory{employees: make(map[string]*models.Employee)}
}

// Create stores e, assigning an ID when empty.
func (s *InMemory) Create(ctx context.Context, e *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.StatusActive
	}
	if _, exists := s.employees[e.ID]; exists {
		return fmt.Errorf("employee %s already exists: %w", e.ID, sentinel.ErrConflict)
	}
	if s.emailTakenLocked(e.Email, e.ID) {
		return fmt.Errorf("employee email already used: %w", sentinel.ErrConflict)
	}
	s.employees[e.ID] = e.Clone()
	tx.JournalFrom(ctx).OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.employees, e.ID)
	})
	return nil
}

// Update merges changes into the stored employee and returns the result.
func (s *InMemory) Update(ctx context.Context, id string, changes models.Changes) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.employees[id]
	if !ok {
		return nil, fmt.Errorf("employee %s: %w", id, sentinel.ErrNotFound)
	}
	merged := changes.Apply(current)
	if s.emailTakenLocked(merged.Email, id) {
		return nil, fmt.Errorf("employee email already used: %w", sentinel.ErrConflict)
	}
	s.employees[id] = merged
	tx.JournalFrom(ctx).OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.employees[id] = current
	})
	return merged.Clone(), nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.employees[id]
	if !ok {
		return fmt.Errorf("employee %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.employees, id)
	tx.JournalFrom(ctx).OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.employees[id] = current
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.employees[id]; ok {
		return e.Clone(), nil
	}
	return nil, fmt.Errorf("employee %s: %w", id, sentinel.ErrNotFound)
}

// List returns matching employees ordered by name.
func (s *InMemory) List(_ context.Context, filter models.Filter) ([]*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		if filter.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemory) emailTakenLocked(email, exceptID string) bool {
	for id, e := range s.employees {
		if id != exceptID && strings.EqualFold(e.Email, email) {
			return true
		}
	}
	return false
}
