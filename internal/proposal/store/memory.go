// Package store persists employee edit proposals.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"commission/internal/proposal/models"
	"commission/pkg/platform/sentinel"
	"commission/pkg/platform/tx"
)

// Error Contract:
// - Return sentinel.ErrNotFound when the proposal does not exist
// - Execute returns the validate error unchanged and leaves the proposal untouched
//
// InMemory stores proposals in memory for tests/dev.
type InMemory struct {
	mu        sync.RWMutex
	proposals map[string]*models.Proposal
}

func NewInMemory() *InMemory {
	return &InMemory{proposals: make(map[string]*models.Proposal)}
}

// Create stores p, assigning an ID when empty.
func (s *InMemory) Create(ctx context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := s.proposals[p.ID]; exists {
		return fmt.Errorf("proposal %s already exists: %w", p.ID, sentinel.ErrConflict)
	}
	id := p.ID
	s.proposals[id] = p.Clone()
	tx.JournalFrom(ctx).OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.proposals, id)
	})
	return nil
}

// Execute validates and mutates the proposal under the store lock.
func (s *InMemory) Execute(ctx context.Context, id string, validate func(*models.Proposal) error, mutate func(*models.Proposal)) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.proposals[id]
	if !ok {
		return nil, fmt.Errorf("proposal %s: %w", id, sentinel.ErrNotFound)
	}
	if validate != nil {
		if err := validate(current.Clone()); err != nil {
			return nil, err
		}
	}
	next := current.Clone()
	mutate(next)
	s.proposals[id] = next
	tx.JournalFrom(ctx).OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.proposals[id] = current
	})
	return next.Clone(), nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.proposals[id]; ok {
		return p.Clone(), nil
	}
	return nil, fmt.Errorf("proposal %s: %w", id, sentinel.ErrNotFound)
}

// List returns matching proposals, newest submission first.
func (s *InMemory) List(_ context.Context, filter models.Filter) ([]*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		if filter.Matches(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
