package workflow

import (
	"context"
	"time"

	activity "commission/internal/activity/models"
	employee "commission/internal/employee/models"
	"commission/internal/employee/retirement"
	news "commission/internal/news/models"
	proposal "commission/internal/proposal/models"
)

// ListActivity returns the activity trail newest first.
func (e *Engine) ListActivity(ctx context.Context, filter activity.Filter) (entries []*activity.Entry, err error) {
	err = e.view(ctx, func(ctx context.Context) error {
		entries, err = e.activity.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, translate(err, "activity log")
	}
	return entries, nil
}

// ListProposals returns proposals newest first, including decided ones.
func (e *Engine) ListProposals(ctx context.Context, filter proposal.Filter) (proposals []*proposal.Proposal, err error) {
	err = e.view(ctx, func(ctx context.Context) error {
		proposals, err = e.proposals.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, translate(err, "proposals")
	}
	return proposals, nil
}

func (e *Engine) GetArticle(ctx context.Context, id string) (article *news.Article, err error) {
	if err := requireID(id, "article"); err != nil {
		return nil, err
	}
	err = e.view(ctx, func(ctx context.Context) error {
		article, err = e.news.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, "article")
	}
	return article, nil
}

func (e *Engine) ListArticles(ctx context.Context, filter news.Filter) (articles []*news.Article, err error) {
	err = e.view(ctx, func(ctx context.Context) error {
		articles, err = e.news.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, translate(err, "articles")
	}
	return articles, nil
}

// Notifications summarizes what needs attention on the dashboard.
type Notifications struct {
	CriticalAlerts int `json:"criticalAlerts"`
	PendingAudits  int `json:"pendingAudits"`
}

// Notifications counts critical retirement alerts at now and pending audit
// entries, read from one consistent snapshot.
func (e *Engine) Notifications(ctx context.Context, now time.Time) (n Notifications, err error) {
	err = e.view(ctx, func(ctx context.Context) error {
		employees, err := e.employees.List(ctx, employee.Filter{})
		if err != nil {
			return err
		}
		n.CriticalAlerts = len(retirement.Alerts(employees, now, retirement.Filter{Priority: retirement.PriorityCritical}))
		n.PendingAudits, err = e.queue.Count(ctx)
		return err
	})
	if err != nil {
		return Notifications{}, translate(err, "notifications")
	}
	return n, nil
}
