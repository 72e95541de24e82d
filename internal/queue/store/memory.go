// Package store persists the audit queue projection.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"commission/internal/queue/models"
	"commission/pkg/platform/sentinel"
	"commission/pkg/platform/tx"
)

// Error Contract:
// - Return sentinel.ErrNotFound when the entry does not exist
// - Upsert replaces any entry with the same ID
//
// InMemory stores queue entries in memory for tests/dev.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]*models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]*models.Entry)}
}

func (s *InMemory) Upsert(ctx context.Context, e *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := e.ID
	prev, existed := s.entries[id]
	s.entries[id] = e.Clone()
	tx.JournalFrom(ctx).OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.entries[id] = prev
		} else {
			delete(s.entries, id)
		}
	})
	return nil
}

func (s *InMemory) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("queue entry %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.entries, id)
	tx.JournalFrom(ctx).OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.entries[id] = prev
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[id]; ok {
		return e.Clone(), nil
	}
	return nil, fmt.Errorf("queue entry %s: %w", id, sentinel.ErrNotFound)
}

// List returns pending entries, newest submission first.
func (s *InMemory) List(_ context.Context, filter models.Filter) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Count returns the number of pending entries.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.Status == models.StatusPending {
			n++
		}
	}
	return n, nil
}

func sortNewestFirst(entries []*models.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].SubmittedAt.Equal(entries[j].SubmittedAt) {
			return entries[i].SubmittedAt.After(entries[j].SubmittedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}
