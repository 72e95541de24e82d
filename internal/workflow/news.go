package workflow

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	activity "commission/internal/activity/models"
	news "commission/internal/news/models"
	queue "commission/internal/queue/models"
	"commission/pkg/domain"
	"commission/pkg/requestcontext"
)

const lockNews = "news"

// SaveNewsDraft creates a draft when the payload has no ID, otherwise merges
// the payload into the existing article. Saving always returns the article to
// draft, so an article that was pending leaves the audit queue and must be
// resubmitted.
func (e *Engine) SaveNewsDraft(ctx context.Context, draft news.Draft, actor domain.Actor) (article *news.Article, err error) {
	draft.ID = strings.TrimSpace(draft.ID)
	ctx, span := e.startSpan(ctx, "SaveNewsDraft", attribute.String("article.id", draft.ID))
	defer func() { endSpan(span, err) }()

	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if draft.ID == "" {
		return e.createDraft(ctx, draft, actor)
	}
	if err := draft.ValidateUpdate(); err != nil {
		return nil, err
	}

	unlock, err := e.acquire(ctx, lockNews, draft.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := requestcontext.Now(ctx)
	err = e.inTx(ctx, func(ctx context.Context, record recordFunc) error {
		var wasPending bool
		a, err := e.news.Execute(ctx, draft.ID,
			func(a *news.Article) error {
				wasPending = a.Status == news.StatusPending
				return nil
			},
			func(a *news.Article) {
				a.ApplyDraft(draft, now)
			},
		)
		if err != nil {
			return translate(err, "article")
		}
		if wasPending {
			if err := e.removeQueued(ctx, a.ID); err != nil {
				return err
			}
		}
		article = a
		return record(ctx, activity.NewEntry(actor, activity.ActionUpdatedNewsDraft,
			activity.EntityNews, a.ID, a.Title, nil, now))
	})
	if err != nil {
		return nil, err
	}
	e.logAudit(ctx, activity.ActionUpdatedNewsDraft, "actor_id", actor.ID, "entity_id", article.ID)
	return article, nil
}

func (e *Engine) createDraft(ctx context.Context, draft news.Draft, actor domain.Actor) (*news.Article, error) {
	now := requestcontext.Now(ctx)
	article, err := news.NewArticle(draft, actor, now)
	if err != nil {
		return nil, err
	}
	err = e.inTx(ctx, func(ctx context.Context, record recordFunc) error {
		if err := e.news.Create(ctx, article); err != nil {
			return translate(err, "article")
		}
		return record(ctx, activity.NewEntry(actor, activity.ActionCreatedNewsDraft,
			activity.EntityNews, article.ID, article.Title, nil, now))
	})
	if err != nil {
		return nil, err
	}
	e.logAudit(ctx, activity.ActionCreatedNewsDraft, "actor_id", actor.ID, "entity_id", article.ID)
	return article.Clone(), nil
}

// SubmitNews sends an article for review. Resubmitting replaces the article's
// previous queue entry, so an article is queued at most once.
func (e *Engine) SubmitNews(ctx context.Context, articleID string, actor domain.Actor, notes string) (err error) {
	ctx, span := e.startSpan(ctx, "SubmitNews", attribute.String("article.id", articleID))
	defer func() { endSpan(span, err) }()

	if err := actor.Validate(); err != nil {
		return err
	}
	if err := requireID(articleID, "article"); err != nil {
		return err
	}
	unlock, err := e.acquire(ctx, lockNews, articleID)
	if err != nil {
		return err
	}
	defer unlock()

	now := requestcontext.Now(ctx)
	notes = strings.TrimSpace(notes)
	err = e.inTx(ctx, func(ctx context.Context, record recordFunc) error {
		a, err := e.news.Execute(ctx, articleID,
			func(a *news.Article) error {
				return a.CanSubmit()
			},
			func(a *news.Article) {
				a.ApplySubmit(notes, now)
			},
		)
		if err != nil {
			return translate(err, "article")
		}
		if err := e.queue.Upsert(ctx, newsEntry(a, actor, notes, now)); err != nil {
			return translate(err, "audit queue entry")
		}
		return record(ctx, activity.NewEntry(actor, activity.ActionSubmittedNews,
			activity.EntityNews, a.ID, a.Title, notesDetails(notes), now))
	})
	if err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.IncrementSubmission(string(queue.EntityNews))
	}
	e.logAudit(ctx, activity.ActionSubmittedNews, "actor_id", actor.ID, "entity_id", articleID)
	return nil
}

// DecideNews publishes or rejects a pending article. Rejection returns the
// article to draft with the reviewer notes; the last submission time is kept.
func (e *Engine) DecideNews(ctx context.Context, articleID string, decision domain.Decision, actor domain.Actor, notes string) (err error) {
	ctx, span := e.startSpan(ctx, "DecideNews",
		attribute.String("article.id", articleID),
		attribute.String("decision", string(decision)),
	)
	defer func() { endSpan(span, err) }()

	if err := validateDecision(decision, actor); err != nil {
		return err
	}
	if err := requireID(articleID, "article"); err != nil {
		return err
	}
	start := time.Now()
	defer func() { e.observeDecision(string(queue.EntityNews), decision, err, start) }()

	unlock, err := e.acquire(ctx, lockNews, articleID)
	if err != nil {
		return err
	}
	defer unlock()

	now := requestcontext.Now(ctx)
	notes = strings.TrimSpace(notes)
	err = e.inTx(ctx, func(ctx context.Context, record recordFunc) error {
		a, err := e.news.Execute(ctx, articleID,
			func(a *news.Article) error {
				return a.CanDecide()
			},
			func(a *news.Article) {
				if decision == domain.DecisionApprove {
					a.ApplyApprove(actor, notes, now)
				} else {
					a.ApplyReject(notes, now)
				}
			},
		)
		if err != nil {
			return translate(err, "article")
		}
		if err := e.removeQueued(ctx, a.ID); err != nil {
			return err
		}
		action := activity.ActionRejectedNews
		if decision == domain.DecisionApprove {
			action = activity.ActionApprovedNews
		}
		return record(ctx, activity.NewEntry(actor, action, activity.EntityNews, a.ID, a.Title, notesDetails(notes), now))
	})
	if err != nil {
		return err
	}

	e.logAudit(ctx, "news_"+string(decision), "actor_id", actor.ID, "entity_id", articleID)
	return nil
}

func newsEntry(a *news.Article, submitter domain.Actor, notes string, now time.Time) *queue.Entry {
	return &queue.Entry{
		ID:              a.ID,
		EntityType:      queue.EntityNews,
		EntityID:        a.ID,
		EntityName:      a.Title,
		Status:          queue.StatusPending,
		SubmittedAt:     now,
		SubmittedByID:   submitter.ID,
		SubmittedByName: submitter.Name,
		Payload:         &queue.NewsPayload{Article: a.Clone(), Notes: notes},
	}
}

func notesDetails(notes string) map[string]any {
	if notes == "" {
		return nil
	}
	return map[string]any{activity.DetailNotes: notes}
}
