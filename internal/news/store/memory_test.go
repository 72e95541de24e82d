package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"commission/internal/news/models"
	"commission/pkg/domain"
	"commission/pkg/platform/sentinel"
	"commission/pkg/platform/tx"
)

type NewsStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *NewsStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
}

func TestNewsStoreSuite(t *testing.T) {
	suite.Run(t, new(NewsStoreSuite))
}

func (s *NewsStoreSuite) newArticle(title string) *models.Article {
	a, err := models.NewArticle(models.Draft{Title: &title}, domain.Actor{ID: "media-1", Name: "Media"}, s.now)
	s.Require().NoError(err)
	return a
}

func (s *NewsStoreSuite) TestCreateAndFind() {
	a := s.newArticle("Launch")
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.NotEmpty(a.ID)

	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("Launch", found.Title)

	_, err = s.store.FindByID(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Create(s.ctx, found), sentinel.ErrConflict)
}

func (s *NewsStoreSuite) TestExecute() {
	a := s.newArticle("Launch")
	s.Require().NoError(s.store.Create(s.ctx, a))

	s.Run("validation failure leaves article untouched", func() {
		errNope := errors.New("nope")
		_, err := s.store.Execute(s.ctx, a.ID,
			func(*models.Article) error { return errNope },
			func(a *models.Article) { a.Title = "changed" },
		)
		s.ErrorIs(err, errNope)

		found, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal("Launch", found.Title)
	})

	s.Run("mutation is persisted", func() {
		updated, err := s.store.Execute(s.ctx, a.ID, nil, func(a *models.Article) {
			a.ApplySubmit("", s.now)
		})
		s.Require().NoError(err)
		s.Equal(models.StatusPending, updated.Status)

		found, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, found.Status)
	})

	s.Run("unknown article", func() {
		_, err := s.store.Execute(s.ctx, "missing", nil, func(*models.Article) {})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *NewsStoreSuite) TestRollback() {
	a := s.newArticle("Launch")
	s.Require().NoError(s.store.Create(s.ctx, a))

	errBoom := errors.New("boom")
	err := tx.NewInMemory(0).RunInTx(s.ctx, func(ctx context.Context) error {
		_, err := s.store.Execute(ctx, a.ID, nil, func(a *models.Article) { a.Title = "changed" })
		s.Require().NoError(err)
		s.Require().NoError(s.store.Create(ctx, s.newArticle("Ghost")))
		return errBoom
	})
	s.Require().ErrorIs(err, errBoom)

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("Launch", all[0].Title)
}

func (s *NewsStoreSuite) TestListFilter() {
	draft := s.newArticle("Draft")
	s.Require().NoError(s.store.Create(s.ctx, draft))
	pending := s.newArticle("Pending")
	pending.ApplySubmit("", s.now.Add(time.Hour))
	s.Require().NoError(s.store.Create(s.ctx, pending))

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("Pending", all[0].Title, "most recently updated first")

	onlyPending, err := s.store.List(s.ctx, models.Filter{Status: models.StatusPending})
	s.Require().NoError(err)
	s.Require().Len(onlyPending, 1)
	s.Equal(pending.ID, onlyPending[0].ID)
}
