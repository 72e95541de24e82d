// Package workflow is the moderation engine: it moves employee edit
// proposals and news submissions through submit and decide, keeps the audit
// queue in step, and appends the activity trail.
//
// Every mutating operation runs as one unit of work. Decisions additionally
// hold a per-id lock so two reviewers cannot race on the same target; the
// terminal-state check inside the unit of work is the backstop.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	activity "commission/internal/activity/models"
	employee "commission/internal/employee/models"
	news "commission/internal/news/models"
	proposal "commission/internal/proposal/models"
	queue "commission/internal/queue/models"
	"commission/internal/workflow/lock"
	"commission/internal/workflow/metrics"
	"commission/pkg/domain"
	dErrors "commission/pkg/domain-errors"
	"commission/pkg/platform/sentinel"
	"commission/pkg/platform/tx"
	"commission/pkg/requestcontext"
)

type EmployeeStore interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
	Update(ctx context.Context, id string, changes employee.Changes) (*employee.Employee, error)
	List(ctx context.Context, filter employee.Filter) ([]*employee.Employee, error)
}

type NewsStore interface {
	Create(ctx context.Context, a *news.Article) error
	Execute(ctx context.Context, id string, validate func(*news.Article) error, mutate func(*news.Article)) (*news.Article, error)
	FindByID(ctx context.Context, id string) (*news.Article, error)
	List(ctx context.Context, filter news.Filter) ([]*news.Article, error)
}

type ProposalStore interface {
	Create(ctx context.Context, p *proposal.Proposal) error
	Execute(ctx context.Context, id string, validate func(*proposal.Proposal) error, mutate func(*proposal.Proposal)) (*proposal.Proposal, error)
	FindByID(ctx context.Context, id string) (*proposal.Proposal, error)
	List(ctx context.Context, filter proposal.Filter) ([]*proposal.Proposal, error)
}

type QueueStore interface {
	Upsert(ctx context.Context, e *queue.Entry) error
	Remove(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*queue.Entry, error)
	List(ctx context.Context, filter queue.Filter) ([]*queue.Entry, error)
	Count(ctx context.Context) (int, error)
}

type ActivityStore interface {
	Append(ctx context.Context, e *activity.Entry) error
	List(ctx context.Context, filter activity.Filter) ([]*activity.Entry, error)
}

// ActivitySink receives activity entries after their unit of work commits.
type ActivitySink interface {
	Publish(ctx context.Context, entries []*activity.Entry) error
}

// Stores groups the persistence the engine orchestrates.
type Stores struct {
	Employees EmployeeStore
	News      NewsStore
	Proposals ProposalStore
	Queue     QueueStore
	Activity  ActivityStore
}

// Engine orchestrates submit and decide transitions.
type Engine struct {
	employees EmployeeStore
	news      NewsStore
	proposals ProposalStore
	queue     QueueStore
	activity  ActivityStore

	runner      tx.Runner
	locker      lock.Locker
	sink        ActivitySink
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	sinkTimeout time.Duration
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLocker replaces the in-process per-id lock, e.g. with a Redis locker
// shared across instances.
func WithLocker(l lock.Locker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithActivitySink mirrors committed activity entries.
func WithActivitySink(sink ActivitySink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// New constructs an Engine.
func New(stores Stores, runner tx.Runner, opts ...Option) *Engine {
	e := &Engine{
		employees:   stores.Employees,
		news:        stores.News,
		proposals:   stores.Proposals,
		queue:       stores.Queue,
		activity:    stores.Activity,
		runner:      runner,
		locker:      lock.NewSharded(),
		logger:      slog.Default(),
		tracer:      otel.Tracer("commission/workflow"),
		sinkTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// recordFunc appends an activity entry inside the current unit of work.
type recordFunc func(ctx context.Context, entry *activity.Entry) error

// inTx runs fn as one unit of work and mirrors the activity it recorded once
// the unit has committed.
func (e *Engine) inTx(ctx context.Context, fn func(ctx context.Context, record recordFunc) error) error {
	var recorded []*activity.Entry
	err := e.runner.RunInTx(ctx, func(ctx context.Context) error {
		recorded = recorded[:0]
		return fn(ctx, func(ctx context.Context, entry *activity.Entry) error {
			if err := e.activity.Append(ctx, entry); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append activity")
			}
			recorded = append(recorded, entry)
			return nil
		})
	})
	if err != nil {
		return err
	}
	e.mirror(ctx, recorded)
	e.sampleQueueDepth(ctx)
	return nil
}

// view runs a read that never observes a half-applied unit of work.
func (e *Engine) view(ctx context.Context, fn func(ctx context.Context) error) error {
	return e.runner.View(ctx, fn)
}

// mirror is best-effort: the activity store already holds the durable trail.
func (e *Engine) mirror(ctx context.Context, entries []*activity.Entry) {
	if e.sink == nil || len(entries) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.sinkTimeout)
	defer cancel()
	if err := e.sink.Publish(ctx, entries); err != nil {
		e.logger.WarnContext(ctx, "failed to mirror activity",
			"error", err,
			"entries", len(entries),
			"request_id", requestcontext.RequestID(ctx),
		)
		if e.metrics != nil {
			e.metrics.AddMirrorFailures(len(entries))
		}
	}
}

func (e *Engine) sampleQueueDepth(ctx context.Context) {
	if e.metrics == nil {
		return
	}
	n, err := e.queue.Count(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to sample queue depth", "error", err)
		return
	}
	e.metrics.SetQueueDepth(n)
}

// acquire takes the per-id decision lock.
func (e *Engine) acquire(ctx context.Context, kind, id string) (func(), error) {
	unlock, err := e.locker.Lock(ctx, kind+":"+id)
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire lock")
	}
	return unlock, nil
}

// removeQueued drops the queue entry for id if there is one.
func (e *Engine) removeQueued(ctx context.Context, id string) error {
	if err := e.queue.Remove(ctx, id); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove queue entry")
	}
	return nil
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "workflow."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (e *Engine) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if e.logger != nil {
		e.logger.InfoContext(ctx, event, args...)
	}
}

func (e *Engine) observeDecision(entityType string, decision domain.Decision, err error, start time.Time) {
	if e.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	e.metrics.ObserveDecision(entityType, string(decision), outcome, start)
}

// translate maps store sentinels to domain errors. Domain errors pass through.
func translate(err error, subject string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, subject+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, subject+" conflicts with existing data")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, subject+" is in an invalid state")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to process "+subject)
}

// requireID rejects blank identifiers from callers.
func requireID(id, what string) error {
	if strings.TrimSpace(id) == "" {
		return dErrors.New(dErrors.CodeValidation, what+" id is required")
	}
	return nil
}
