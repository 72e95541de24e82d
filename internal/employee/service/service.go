package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	activity "commission/internal/activity/models"
	"commission/internal/employee/models"
	"commission/internal/employee/retirement"
	"commission/pkg/domain"
	dErrors "commission/pkg/domain-errors"
	"commission/pkg/platform/sentinel"
	"commission/pkg/platform/tx"
	"commission/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, e *models.Employee) error
	Update(ctx context.Context, id string, changes models.Changes) (*models.Employee, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Employee, error)
}

type ActivityStore interface {
	Append(ctx context.Context, entry *activity.Entry) error
}

// ActivitySink receives committed activity entries.
type ActivitySink interface {
	Publish(ctx context.Context, entries []*activity.Entry) error
}

// Service is direct employee administration. Every mutation commits together
// with its activity entry.
type Service struct {
	employees Store
	activity  ActivityStore
	runner    tx.Runner
	sink      ActivitySink
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithActivitySink(sink ActivitySink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

func New(employees Store, activity ActivityStore, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		employees: employees,
		activity:  activity,
		runner:    runner,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and stores a new employee.
func (s *Service) Create(ctx context.Context, input models.Employee, actor domain.Actor) (*models.Employee, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	rec, err := models.NewEmployee(input)
	if err != nil {
		return nil, err
	}

	entry, err := s.mutate(ctx, func(ctx context.Context) (*activity.Entry, error) {
		if err := s.employees.Create(ctx, rec); err != nil {
			return nil, err
		}
		return activity.NewEntry(actor, activity.ActionCreatedEmployee, activity.EntityEmployee,
			rec.ID, rec.Name, nil, requestcontext.Now(ctx)), nil
	})
	if err != nil {
		return nil, translate(err)
	}
	s.logAudit(ctx, "employee_created", actor, entry)
	return rec, nil
}

// Update applies changes directly, bypassing review.
func (s *Service) Update(ctx context.Context, id string, changes models.Changes, actor domain.Actor) (*models.Employee, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "employee id is required")
	}
	if len(changes) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "changes are required")
	}
	if err := changes.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Employee
	entry, err := s.mutate(ctx, func(ctx context.Context) (*activity.Entry, error) {
		current, err := s.employees.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := changes.Apply(current).Validate(); err != nil {
			return nil, err
		}
		updated, err = s.employees.Update(ctx, id, changes)
		if err != nil {
			return nil, err
		}
		return activity.NewEntry(actor, activity.ActionUpdatedEmployee, activity.EntityEmployee,
			updated.ID, updated.Name, map[string]any{"changes": changes.Clone()}, requestcontext.Now(ctx)), nil
	})
	if err != nil {
		return nil, translate(err)
	}
	s.logAudit(ctx, "employee_updated", actor, entry)
	return updated, nil
}

// Delete removes the employee. Pending proposals for it stay queued and fail
// with NotFound when approved.
func (s *Service) Delete(ctx context.Context, id string, actor domain.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	entry, err := s.mutate(ctx, func(ctx context.Context) (*activity.Entry, error) {
		current, err := s.employees.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.employees.Delete(ctx, id); err != nil {
			return nil, err
		}
		return activity.NewEntry(actor, activity.ActionDeletedEmployee, activity.EntityEmployee,
			current.ID, current.Name, nil, requestcontext.Now(ctx)), nil
	})
	if err != nil {
		return translate(err)
	}
	s.logAudit(ctx, "employee_deleted", actor, entry)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Employee, error) {
	var e *models.Employee
	err := s.runner.View(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.employees.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Employee, error) {
	var out []*models.Employee
	err := s.runner.View(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.employees.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// RetirementAlerts lists upcoming retirements as of now.
func (s *Service) RetirementAlerts(ctx context.Context, now time.Time, filter retirement.Filter) ([]retirement.Alert, error) {
	employees, err := s.List(ctx, models.Filter{})
	if err != nil {
		return nil, err
	}
	return retirement.Alerts(employees, now, filter), nil
}

// mutate runs fn as one unit of work, appends the entry it returns and
// mirrors it after commit.
func (s *Service) mutate(ctx context.Context, fn func(ctx context.Context) (*activity.Entry, error)) (*activity.Entry, error) {
	var entry *activity.Entry
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		entry, err = fn(ctx)
		if err != nil {
			return err
		}
		if err := s.activity.Append(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append activity")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.sink != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.sink.Publish(pubCtx, []*activity.Entry{entry}); err != nil {
			s.logger.WarnContext(ctx, "failed to mirror activity",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return entry, nil
}

func (s *Service) logAudit(ctx context.Context, event string, actor domain.Actor, entry *activity.Entry) {
	s.logger.InfoContext(ctx, event,
		"log_type", "audit",
		"actor_id", actor.ID,
		"entity_id", entry.EntityID,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func translate(err error) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "employee not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "employee email already in use")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to process employee")
	}
}
