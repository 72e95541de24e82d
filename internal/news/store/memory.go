// Package store persists news articles.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"commission/internal/news/models"
	"commission/pkg/platform/sentinel"
	"commission/pkg/platform/tx"
)

// Error Contract:
// - Return sentinel.ErrNotFound when the article does not exist
// - Return sentinel.ErrConflict when creating an article whose ID is taken
// - Execute returns the validate error unchanged and leaves the article untouched
//
// InMemory stores articles in memory for tests/dev.
type InMemory struct {
	mu       sync.RWMutex
	articles map[string]*models.Article
}

func NewInMemory() *InMemory {
	return &InMemory{articles: make(map[string]*models.Article)}
}

// Create stores a, assigning an ID when empty.
func (s *InMemory) Create(ctx context.Context, a *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, exists := s.articles[a.ID]; exists {
		return fmt.Errorf("article %s already exists: %w", a.ID, sentinel.ErrConflict)
	}
	id := a.ID
	s.articles[id] = a.Clone()
	tx.JournalFrom(ctx).OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.articles, id)
	})
	return nil
}

// Execute validates and mutates the article under the store lock.
func (s *InMemory) Execute(ctx context.Context, id string, validate func(*models.Article) error, mutate func(*models.Article)) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.articles[id]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", id, sentinel.ErrNotFound)
	}
	if validate != nil {
		if err := validate(current.Clone()); err != nil {
			return nil, err
		}
	}
	next := current.Clone()
	mutate(next)
	s.articles[id] = next
	tx.JournalFrom(ctx).OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.articles[id] = current
	})
	return next.Clone(), nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.articles[id]; ok {
		return a.Clone(), nil
	}
	return nil, fmt.Errorf("article %s: %w", id, sentinel.ErrNotFound)
}

// List returns matching articles, most recently updated first.
func (s *InMemory) List(_ context.Context, filter models.Filter) ([]*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if filter.Matches(a) {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
