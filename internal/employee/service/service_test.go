package service

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
	"commission/internal/employee/models"
	"commission/internal/employee/retirement"
	"commission/internal/employee/store"
	"commission/pkg/domain"
	dErrors "commission/pkg/domain-errors"
	"commission/pkg/platform/tx"
	"commission/pkg/requestcontext"
)

// =============================================================================
// Employee Service Test Suite
// =============================================================================
// Justification for unit tests: direct administration must commit the record
// and its activity entry together and map store facts to domain errors.

var admin = domain.Actor{ID: "admin-1", Name: "Ada Admin", Role: domain.RoleAdmin}

type failingActivity struct{}

func (failingActivity) Append(context.Context, *activity.Entry) error {
	return errors.New("activity unavailable")
}

type recordingSink struct {
	published []*activity.Entry
	err       error
}

func (r *recordingSink) Publish(_ context.Context, entries []*activity.Entry) error {
	r.published = append(r.published, entries...)
	return r.err
}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	employees *store.InMemory
	activity  *activitystore.InMemory
	runner    *tx.InMemory
	sink      *recordingSink
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC))
	s.employees = store.NewInMemory()
	s.activity = activitystore.NewInMemory()
	s.runner = tx.NewInMemory(0)
	s.sink = &recordingSink{}
	s.service = New(s.employees, s.activity, s.runner,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithActivitySink(s.sink),
	)
}

func (s *ServiceSuite) actions() []string {
	entries, err := s.activity.List(s.ctx, activity.Filter{})
	s.Require().NoError(err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

func (s *ServiceSuite) TestCreate() {
	s.Run("defaults status and records activity", func() {
		e, err := s.service.Create(s.ctx, models.Employee{Name: " Bola ", Email: "bola@example.gov"}, admin)
		s.Require().NoError(err)
		s.NotEmpty(e.ID)
		s.Equal("Bola", e.Name)
		s.Equal(models.StatusActive, e.Status)
		s.Equal([]string{activity.ActionCreatedEmployee}, s.actions())
		s.Len(s.sink.published, 1)
	})

	s.Run("requires name and email", func() {
		_, err := s.service.Create(s.ctx, models.Employee{Name: "No Email"}, admin)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate email conflicts", func() {
		_, err := s.service.Create(s.ctx, models.Employee{Name: "Other", Email: "BOLA@example.gov"}, admin)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestUpdate() {
	e, err := s.service.Create(s.ctx, models.Employee{Name: "Chi", Email: "chi@example.gov"}, admin)
	s.Require().NoError(err)

	updated, err := s.service.Update(s.ctx, e.ID, models.Changes{models.FieldDepartment: "Finance"}, admin)
	s.Require().NoError(err)
	s.Equal("Finance", updated.Department)
	s.Equal(activity.ActionUpdatedEmployee, s.actions()[0])

	_, err = s.service.Update(s.ctx, e.ID, models.Changes{models.FieldRetirementDate: "soon"}, admin)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Update(s.ctx, e.ID, models.Changes{}, admin)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Update(s.ctx, "missing", models.Changes{models.FieldName: "X"}, admin)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDelete() {
	e, err := s.service.Create(s.ctx, models.Employee{Name: "Dayo", Email: "dayo@example.gov"}, admin)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, e.ID, admin))
	_, err = s.service.Get(s.ctx, e.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal(activity.ActionDeletedEmployee, s.actions()[0])

	err = s.service.Delete(s.ctx, e.ID, admin)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestActivityFailureRollsBack() {
	svc := New(s.employees, failingActivity{}, s.runner)

	_, err := svc.Create(s.ctx, models.Employee{Name: "Eze", Email: "eze@example.gov"}, admin)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	all, err := s.service.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *ServiceSuite) TestMirrorFailureIsNotFatal() {
	s.sink.err = errors.New("broker down")
	_, err := s.service.Create(s.ctx, models.Employee{Name: "Femi", Email: "femi@example.gov"}, admin)
	s.Require().NoError(err)
	s.Equal([]string{activity.ActionCreatedEmployee}, s.actions())
}

func (s *ServiceSuite) TestListAndAlerts() {
	for _, e := range []models.Employee{
		{Name: "Gbenga", Email: "g@example.gov", Department: "Finance", RetirementDate: "2026-01-30"},
		{Name: "Hauwa", Email: "h@example.gov", Department: "Records", RetirementDate: "2026-03-20"},
		{Name: "Ife", Email: "i@example.gov", Department: "Finance"},
	} {
		_, err := s.service.Create(s.ctx, e, admin)
		s.Require().NoError(err)
	}

	finance, err := s.service.List(s.ctx, models.Filter{Department: "Finance"})
	s.Require().NoError(err)
	s.Len(finance, 2)

	alerts, err := s.service.RetirementAlerts(s.ctx, requestcontext.Now(s.ctx), retirement.Filter{})
	s.Require().NoError(err)
	s.Require().Len(alerts, 2)
	s.Equal("Gbenga", alerts[0].Name)
	s.Equal(retirement.PriorityCritical, alerts[0].Priority)
	s.Equal(retirement.PriorityWarning, alerts[1].Priority)

	records, err := s.service.RetirementAlerts(s.ctx, requestcontext.Now(s.ctx), retirement.Filter{Department: "records"})
	s.Require().NoError(err)
	s.Len(records, 1)
}
