package store

import (
	"context"
	"sync"

	"commission/internal/activity/models"
	"commission/pkg/platform/tx"
)

// InMemory keeps the activity trail newest first. There is no update or
// delete: an appended entry is only ever removed by rolling back the unit of
// work that appended it.
type InMemory struct {
	mu      sync.RWMutex
	entries []*models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append prepends entry to the trail.
func (s *InMemory) Append(ctx context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := entry.Clone()
	s.entries = append([]*models.Entry{stored}, s.entries...)
	tx.JournalFrom(ctx).OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.entries {
			if e == stored {
				s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
				return
			}
		}
	})
	return nil
}

// List returns matching entries newest first.
func (s *InMemory) List(_ context.Context, filter models.Filter) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}
