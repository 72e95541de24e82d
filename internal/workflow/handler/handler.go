package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	activity "commission/internal/activity/models"
	employee "commission/internal/employee/models"
	news "commission/internal/news/models"
	proposal "commission/internal/proposal/models"
	queue "commission/internal/queue/models"
	"commission/internal/workflow"
	"commission/pkg/domain"
	"commission/pkg/platform/httputil"
	authmw "commission/pkg/platform/middleware/auth"
	"commission/pkg/requestcontext"
)

// Engine defines the workflow operations exposed over HTTP.
type Engine interface {
	SubmitEmployeeEdit(ctx context.Context, employeeID string, changes employee.Changes, reason string, actor domain.Actor) (*proposal.Proposal, error)
	DecideEmployeeEdit(ctx context.Context, proposalID string, decision domain.Decision, actor domain.Actor, notes string) error
	SaveNewsDraft(ctx context.Context, draft news.Draft, actor domain.Actor) (*news.Article, error)
	SubmitNews(ctx context.Context, articleID string, actor domain.Actor, notes string) error
	DecideNews(ctx context.Context, articleID string, decision domain.Decision, actor domain.Actor, notes string) error
	ListAuditQueue(ctx context.Context, filter queue.Filter) ([]*queue.Entry, error)
	DecideAuditEntry(ctx context.Context, entryID string, decision domain.Decision, actor domain.Actor, notes string) error
	ListActivity(ctx context.Context, filter activity.Filter) ([]*activity.Entry, error)
	ListProposals(ctx context.Context, filter proposal.Filter) ([]*proposal.Proposal, error)
	GetArticle(ctx context.Context, id string) (*news.Article, error)
	ListArticles(ctx context.Context, filter news.Filter) ([]*news.Article, error)
	Notifications(ctx context.Context, now time.Time) (workflow.Notifications, error)
}

// Handler wires workflow endpoints to the engine.
type Handler struct {
	engine Engine
	logger *slog.Logger
}

func New(engine Engine, logger *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// Register mounts workflow endpoints on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	reviewers := authmw.RequireRole(h.logger, domain.RoleSuper, domain.RoleAdmin)
	auditors := authmw.RequireRole(h.logger, domain.RoleSuper, domain.RoleAdmin, domain.RoleAudit)
	authors := authmw.RequireRole(h.logger, domain.RoleSuper, domain.RoleAdmin, domain.RoleMedia)

	r.With(auditors).Post("/employee-edits", h.HandleSubmitEdit)
	r.With(auditors).Get("/employee-edits", h.HandleListEdits)

	r.Get("/news", h.HandleListNews)
	r.Get("/news/{id}", h.HandleGetNews)
	r.With(authors).Post("/news", h.HandleCreateDraft)
	r.With(authors).Put("/news/{id}", h.HandleUpdateDraft)
	r.With(authors).Post("/news/{id}/submit", h.HandleSubmitNews)
	r.With(reviewers).Post("/news/{id}/approve", h.decideNews(domain.DecisionApprove))
	r.With(reviewers).Post("/news/{id}/reject", h.decideNews(domain.DecisionReject))

	r.With(auditors).Get("/audit-queue", h.HandleListQueue)
	r.With(reviewers).Post("/audit-queue/{id}/approve", h.decideEntry(domain.DecisionApprove))
	r.With(reviewers).Post("/audit-queue/{id}/reject", h.decideEntry(domain.DecisionReject))

	r.With(reviewers).Get("/activity-log", h.HandleListActivity)
	r.Get("/dashboard/notifications", h.HandleNotifications)
}

// HandleSubmitEdit handles POST /employee-edits.
func (h *Handler) HandleSubmitEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SubmitEditRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.engine.SubmitEmployeeEdit(ctx, req.EmployeeID, req.ParsedChanges(), req.Reason, requestcontext.Actor(ctx))
	if err != nil {
		h.fail(w, r, "employee edit submission failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

// HandleListEdits handles GET /employee-edits.
func (h *Handler) HandleListEdits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := parseProposalStatus(q.Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	proposals, err := h.engine.ListProposals(r.Context(), proposal.Filter{
		EmployeeID: q.Get("employeeId"),
		Status:     status,
	})
	if err != nil {
		h.fail(w, r, "list employee edits failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposals)
}

// HandleListNews handles GET /news.
func (h *Handler) HandleListNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := parseNewsStatus(q.Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	articles, err := h.engine.ListArticles(r.Context(), news.Filter{
		Status:   status,
		AuthorID: q.Get("authorId"),
		Category: q.Get("category"),
	})
	if err != nil {
		h.fail(w, r, "list news failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, articles)
}

// HandleGetNews handles GET /news/{id}.
func (h *Handler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	article, err := h.engine.GetArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get news failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, article)
}

// HandleCreateDraft handles POST /news.
func (h *Handler) HandleCreateDraft(w http.ResponseWriter, r *http.Request) {
	h.saveDraft(w, r, "", http.StatusCreated)
}

// HandleUpdateDraft handles PUT /news/{id}.
func (h *Handler) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	h.saveDraft(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request, id string, status int) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DraftRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	article, err := h.engine.SaveNewsDraft(ctx, req.ToDraft(id), requestcontext.Actor(ctx))
	if err != nil {
		h.fail(w, r, "save news draft failed", err)
		return
	}
	httputil.WriteJSON(w, status, article)
}

// HandleSubmitNews handles POST /news/{id}/submit.
func (h *Handler) HandleSubmitNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := h.decodeNotes(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.engine.SubmitNews(ctx, id, requestcontext.Actor(ctx), req.Notes); err != nil {
		h.fail(w, r, "submit news failed", err)
		return
	}
	h.writeArticle(w, r, id)
}

func (h *Handler) decideNews(decision domain.Decision) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, ok := h.decodeNotes(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		if err := h.engine.DecideNews(ctx, id, decision, requestcontext.Actor(ctx), req.Notes); err != nil {
			h.fail(w, r, "news decision failed", err)
			return
		}
		h.writeArticle(w, r, id)
	}
}

// HandleListQueue handles GET /audit-queue.
func (h *Handler) HandleListQueue(w http.ResponseWriter, r *http.Request) {
	entityType, err := parseQueueType(r.URL.Query().Get("entityType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.engine.ListAuditQueue(r.Context(), queue.Filter{EntityType: entityType})
	if err != nil {
		h.fail(w, r, "list audit queue failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) decideEntry(decision domain.Decision) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, ok := h.decodeNotes(w, r)
		if !ok {
			return
		}
		if err := h.engine.DecideAuditEntry(ctx, chi.URLParam(r, "id"), decision, requestcontext.Actor(ctx), req.Notes); err != nil {
			h.fail(w, r, "audit decision failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListActivity handles GET /activity-log.
func (h *Handler) HandleListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entityType, err := parseActivityType(q.Get("entityType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	from, err := parseBound(q.Get("from"), false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := parseBound(q.Get("to"), true)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.engine.ListActivity(r.Context(), activity.Filter{
		Actor:      q.Get("actor"),
		EntityType: entityType,
		Search:     q.Get("q"),
		From:       from,
		To:         to,
	})
	if err != nil {
		h.fail(w, r, "list activity failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// HandleNotifications handles GET /dashboard/notifications.
func (h *Handler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.engine.Notifications(ctx, requestcontext.Now(ctx))
	if err != nil {
		h.fail(w, r, "notifications failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

// decodeNotes accepts an empty body as no notes.
func (h *Handler) decodeNotes(w http.ResponseWriter, r *http.Request) (*NotesRequest, bool) {
	if r.ContentLength == 0 {
		return &NotesRequest{}, true
	}
	ctx := r.Context()
	return httputil.DecodeAndPrepare[NotesRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
}

func (h *Handler) writeArticle(w http.ResponseWriter, r *http.Request, id string) {
	article, err := h.engine.GetArticle(r.Context(), id)
	if err != nil {
		h.fail(w, r, "reload news failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"actor_id", requestcontext.Actor(ctx).ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
