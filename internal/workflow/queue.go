package workflow

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	news "commission/internal/news/models"
	queue "commission/internal/queue/models"
	"commission/pkg/domain"
	dErrors "commission/pkg/domain-errors"
	"commission/pkg/platform/sentinel"
)

// ListAuditQueue returns pending work, newest submission first.
func (e *Engine) ListAuditQueue(ctx context.Context, filter queue.Filter) (entries []*queue.Entry, err error) {
	ctx, span := e.startSpan(ctx, "ListAuditQueue")
	defer func() { endSpan(span, err) }()

	err = e.view(ctx, func(ctx context.Context) error {
		entries, err = e.queue.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, translate(err, "audit queue")
	}
	return entries, nil
}

// DecideAuditEntry applies decision to the queued item with entryID by
// dispatching on its payload kind.
func (e *Engine) DecideAuditEntry(ctx context.Context, entryID string, decision domain.Decision, actor domain.Actor, notes string) (err error) {
	ctx, span := e.startSpan(ctx, "DecideAuditEntry",
		attribute.String("entry.id", entryID),
		attribute.String("decision", string(decision)),
	)
	defer func() { endSpan(span, err) }()

	if err := validateDecision(decision, actor); err != nil {
		return err
	}
	if err := requireID(entryID, "audit entry"); err != nil {
		return err
	}

	var entry *queue.Entry
	err = e.view(ctx, func(ctx context.Context) error {
		var err error
		entry, err = e.queue.FindByID(ctx, entryID)
		return err
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return e.missingEntryError(ctx, entryID)
	}
	if err != nil {
		return translate(err, "audit entry")
	}

	err = entry.Dispatch(&decisionDispatcher{
		ctx:      ctx,
		engine:   e,
		entry:    entry,
		decision: decision,
		actor:    actor,
		notes:    notes,
	})
	return translate(err, "audit entry")
}

// missingEntryError distinguishes an id that was never queued from one whose
// decision has already been recorded.
func (e *Engine) missingEntryError(ctx context.Context, entryID string) error {
	var decided bool
	err := e.view(ctx, func(ctx context.Context) error {
		if p, err := e.proposals.FindByID(ctx, entryID); err == nil {
			decided = !p.IsPending()
			return nil
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		if a, err := e.news.FindByID(ctx, entryID); err == nil {
			decided = a.Status != news.StatusPending
			return nil
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return translate(err, "audit entry")
	}
	if decided {
		return dErrors.New(dErrors.CodeConflict, "audit entry already decided")
	}
	return dErrors.New(dErrors.CodeNotFound, "audit entry not found")
}

// decisionDispatcher routes a queue decision to the handler for its kind.
type decisionDispatcher struct {
	ctx      context.Context
	engine   *Engine
	entry    *queue.Entry
	decision domain.Decision
	actor    domain.Actor
	notes    string
}

func (d *decisionDispatcher) VisitEmployeeEdit(*queue.EmployeeEditPayload) error {
	return d.engine.DecideEmployeeEdit(d.ctx, d.entry.ID, d.decision, d.actor, d.notes)
}

func (d *decisionDispatcher) VisitNews(*queue.NewsPayload) error {
	return d.engine.DecideNews(d.ctx, d.entry.EntityID, d.decision, d.actor, d.notes)
}
