package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	employee "commission/internal/employee/models"
	"commission/internal/proposal/models"
	"commission/pkg/domain"
	"commission/pkg/platform/sentinel"
	"commission/pkg/platform/tx"
)

type ProposalStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *ProposalStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
}

func TestProposalStoreSuite(t *testing.T) {
	suite.Run(t, new(ProposalStoreSuite))
}

func (s *ProposalStoreSuite) newProposal(employeeID string, at time.Time) *models.Proposal {
	current := &employee.Employee{ID: employeeID, Name: "A", Email: employeeID + "@example.gov", Department: "X"}
	p, err := models.NewProposal(current, employee.Changes{employee.FieldDepartment: "Y"}, "r",
		domain.Actor{ID: "audit-1", Name: "Auditor"}, at)
	s.Require().NoError(err)
	return p
}

func (s *ProposalStoreSuite) TestCreateAndResolve() {
	p := s.newProposal("emp-1", s.now)
	s.Require().NoError(s.store.Create(s.ctx, p))
	s.NotEmpty(p.ID)

	resolved, err := s.store.Execute(s.ctx, p.ID,
		func(p *models.Proposal) error { return p.CanResolve() },
		func(p *models.Proposal) {
			p.ApplyResolution(domain.DecisionApprove, domain.Actor{ID: "admin-1"}, "", s.now)
		},
	)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, resolved.Status)

	_, err = s.store.Execute(s.ctx, p.ID,
		func(p *models.Proposal) error { return p.CanResolve() },
		func(*models.Proposal) { s.Fail("mutate must not run after failed validation") },
	)
	s.Require().Error(err)

	_, err = s.store.Execute(s.ctx, "missing", nil, func(*models.Proposal) {})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ProposalStoreSuite) TestRollback() {
	p := s.newProposal("emp-1", s.now)
	errBoom := errors.New("boom")
	err := tx.NewInMemory(0).RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.Create(ctx, p))
		return errBoom
	})
	s.Require().ErrorIs(err, errBoom)

	_, err = s.store.FindByID(s.ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ProposalStoreSuite) TestListNewestFirst() {
	older := s.newProposal("emp-1", s.now)
	newer := s.newProposal("emp-2", s.now.Add(time.Minute))
	s.Require().NoError(s.store.Create(s.ctx, older))
	s.Require().NoError(s.store.Create(s.ctx, newer))

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(newer.ID, all[0].ID)

	forEmp1, err := s.store.List(s.ctx, models.Filter{EmployeeID: "emp-1"})
	s.Require().NoError(err)
	s.Require().Len(forEmp1, 1)
	s.Equal(older.ID, forEmp1[0].ID)
}
