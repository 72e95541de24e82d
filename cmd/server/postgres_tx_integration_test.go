//go:build integration

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	activity "commission/internal/activity/models"
	activitystore "commission/internal/activity/store"
	employee "commission/internal/employee/models"
	employeestore "commission/internal/employee/store"
	newsstore "commission/internal/news/store"
	proposal "commission/internal/proposal/models"
	proposalstore "commission/internal/proposal/store"
	queue "commission/internal/queue/models"
	queuestore "commission/internal/queue/store"
	"commission/internal/workflow"
	"commission/pkg/domain"
	dErrors "commission/pkg/domain-errors"
	"commission/pkg/requestcontext"
	"commission/pkg/testutil/containers"
)

// =============================================================================
// Postgres Unit Of Work Integration Suite
// =============================================================================
// Justification for integration tests: atomicity across the proposal, queue,
// employee and activity tables is only real when every store shares the
// transaction opened by the runner.

type PostgresTxSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	employees *employeestore.PostgresStore
	proposals *proposalstore.PostgresStore
	queue     *queuestore.PostgresStore
	activity  *activitystore.PostgresStore
	runner    *postgresTx
	engine    *workflow.Engine
}

func TestPostgresTxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTxSuite))
}

func (s *PostgresTxSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	db := s.postgres.DB
	s.employees = employeestore.NewPostgres(db)
	s.proposals = proposalstore.NewPostgres(db)
	s.queue = queuestore.NewPostgres(db)
	s.activity = activitystore.NewPostgres(db)
	s.runner = newPostgresTx(db, 0)
	s.engine = workflow.New(workflow.Stores{
		Employees: s.employees,
		News:      newsstore.NewPostgres(db),
		Proposals: s.proposals,
		Queue:     s.queue,
		Activity:  s.activity,
	}, s.runner, workflow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *PostgresTxSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"activity_log", "audit_queue", "edit_proposals", "news_articles", "employees"))
}

func (s *PostgresTxSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Now().UTC().Truncate(time.Microsecond))
}

func (s *PostgresTxSuite) TestRunInTxRollsBackEveryStore() {
	ctx := s.ctx()
	e := &employee.Employee{Name: "Ngozi", Email: "ngozi@example.gov"}

	boom := errors.New("boom")
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.employees.Create(ctx, e); err != nil {
			return err
		}
		entry := activity.NewEntry(domain.Actor{ID: "a"}, activity.ActionCreatedEmployee, activity.EntityEmployee, e.ID, e.Name, nil, requestcontext.Now(ctx))
		if err := s.activity.Append(ctx, entry); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	all, err := s.employees.List(ctx, employee.Filter{})
	s.Require().NoError(err)
	s.Empty(all)
	log, err := s.activity.List(ctx, activity.Filter{})
	s.Require().NoError(err)
	s.Empty(log)
}

func (s *PostgresTxSuite) TestCancelledContextIsTimeout() {
	ctx, cancel := context.WithCancel(s.ctx())
	cancel()
	err := s.runner.RunInTx(ctx, func(context.Context) error { return nil })
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *PostgresTxSuite) TestEmployeeEditRoundTrip() {
	ctx := s.ctx()
	e := &employee.Employee{Name: "emp-1", Email: "emp1@example.gov", Department: "Records"}
	s.Require().NoError(s.employees.Create(ctx, e))

	auditor := domain.Actor{ID: "audit-1", Name: "Grace", Role: domain.RoleAudit}
	admin := domain.Actor{ID: "admin-1", Name: "Ada", Role: domain.RoleAdmin}

	p, err := s.engine.SubmitEmployeeEdit(ctx, e.ID, employee.Changes{employee.FieldDepartment: "Finance"}, "transfer", auditor)
	s.Require().NoError(err)

	entries, err := s.engine.ListAuditQueue(ctx, queue.Filter{})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	payload, ok := entries[0].Payload.(*queue.EmployeeEditPayload)
	s.Require().True(ok)
	s.Equal("Finance", payload.Proposed.Department)

	s.Require().NoError(s.engine.DecideAuditEntry(ctx, p.ID, domain.DecisionApprove, admin, "ok"))

	updated, err := s.employees.FindByID(ctx, e.ID)
	s.Require().NoError(err)
	s.Equal("Finance", updated.Department)

	err = s.engine.DecideAuditEntry(ctx, p.ID, domain.DecisionApprove, admin, "")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	log, err := s.engine.ListActivity(ctx, activity.Filter{})
	s.Require().NoError(err)
	s.Require().Len(log, 2)
	s.Equal(activity.ActionApprovedEmployeeCorrection, log[0].Action)
}

func (s *PostgresTxSuite) TestApproveForDeletedEmployeeRollsBack() {
	ctx := s.ctx()
	e := &employee.Employee{Name: "Obi", Email: "obi@example.gov"}
	s.Require().NoError(s.employees.Create(ctx, e))
	p, err := s.engine.SubmitEmployeeEdit(ctx, e.ID, employee.Changes{employee.FieldPosition: "Lead"}, "", domain.Actor{ID: "audit-1"})
	s.Require().NoError(err)
	s.Require().NoError(s.employees.Delete(ctx, e.ID))

	err = s.engine.DecideEmployeeEdit(ctx, p.ID, domain.DecisionApprove, domain.Actor{ID: "admin-1"}, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)

	stored, err := s.proposals.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(proposal.StatusPending, stored.Status)
	n, err := s.queue.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}
