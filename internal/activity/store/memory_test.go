package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"commission/internal/activity/models"
	"commission/pkg/domain"
	"commission/pkg/platform/tx"
)

type ActivityStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *ActivityStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func TestActivityStoreSuite(t *testing.T) {
	suite.Run(t, new(ActivityStoreSuite))
}

func (s *ActivityStoreSuite) entry(action string, at time.Time) *models.Entry {
	return models.NewEntry(domain.Actor{ID: "u-1", Name: "Admin"}, action, models.EntityEmployee, "e-1", "Ada", nil, at)
}

func (s *ActivityStoreSuite) TestNewestFirst() {
	for i, action := range []string{"first", "second", "third"} {
		s.Require().NoError(s.store.Append(s.ctx, s.entry(action, s.now.Add(time.Duration(i)*time.Minute))))
	}

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"third", "second", "first"}, []string{all[0].Action, all[1].Action, all[2].Action})
}

func (s *ActivityStoreSuite) TestEntriesAreImmutable() {
	e := s.entry("created employee", s.now)
	e.Details = map[string]any{models.DetailNotes: "original"}
	s.Require().NoError(s.store.Append(s.ctx, e))

	e.Action = "tampered"
	e.Details[models.DetailNotes] = "tampered"

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	all[0].Action = "tampered again"

	again, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Equal("created employee", again[0].Action)
	s.Equal("original", again[0].Notes())
}

func (s *ActivityStoreSuite) TestNestedDetailsAreImmutable() {
	e := s.entry("approved employee correction", s.now)
	e.Details = map[string]any{"changes": map[string]string{"department": "Y"}}
	s.Require().NoError(s.store.Append(s.ctx, e))
	e.Details["changes"].(map[string]string)["department"] = "tampered before list"

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	all[0].Details["changes"].(map[string]string)["department"] = "tampered after list"

	again, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Equal(map[string]string{"department": "Y"}, again[0].Details["changes"])
}

func (s *ActivityStoreSuite) TestRollbackRemovesAppendedEntry() {
	s.Require().NoError(s.store.Append(s.ctx, s.entry("kept", s.now)))

	errBoom := errors.New("boom")
	err := tx.NewInMemory(0).RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.Append(ctx, s.entry("discarded", s.now)))
		return errBoom
	})
	s.Require().ErrorIs(err, errBoom)

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("kept", all[0].Action)
}

func (s *ActivityStoreSuite) TestFilter() {
	s.Require().NoError(s.store.Append(s.ctx, s.entry("created employee", s.now)))
	news := models.NewEntry(domain.Actor{ID: "u-2", Name: "Media"}, models.ActionSubmittedNews, models.EntityNews, "n-1", "Launch", nil, s.now)
	s.Require().NoError(s.store.Append(s.ctx, news))

	got, err := s.store.List(s.ctx, models.Filter{EntityType: models.EntityNews})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("n-1", got[0].EntityID)
}
