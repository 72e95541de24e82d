package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"commission/internal/employee/models"
	"commission/internal/employee/retirement"
	"commission/pkg/domain"
	"commission/pkg/platform/httputil"
	authmw "commission/pkg/platform/middleware/auth"
	"commission/pkg/requestcontext"
)

// Service defines the interface for employee administration.
type Service interface {
	Create(ctx context.Context, input models.Employee, actor domain.Actor) (*models.Employee, error)
	Update(ctx context.Context, id string, changes models.Changes, actor domain.Actor) (*models.Employee, error)
	Delete(ctx context.Context, id string, actor domain.Actor) error
	Get(ctx context.Context, id string) (*models.Employee, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Employee, error)
	RetirementAlerts(ctx context.Context, now time.Time, filter retirement.Filter) ([]retirement.Alert, error)
}

// Handler wires employee endpoints to the employee service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts employee endpoints on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	readers := authmw.RequireRole(h.logger, domain.RoleSuper, domain.RoleAdmin, domain.RoleAudit)
	writers := authmw.RequireRole(h.logger, domain.RoleSuper, domain.RoleAdmin)

	r.With(readers).Get("/employees", h.HandleList)
	r.With(readers).Get("/employees/{id}", h.HandleGet)
	r.With(writers).Post("/employees", h.HandleCreate)
	r.With(writers).Put("/employees/{id}", h.HandleUpdate)
	r.With(writers).Delete("/employees/{id}", h.HandleDelete)
	r.With(readers).Get("/retirement-alerts", h.HandleRetirementAlerts)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employees, err := h.service.List(r.Context(), models.Filter{
		Department: q.Get("department"),
		Status:     q.Get("status"),
		Search:     q.Get("q"),
	})
	if err != nil {
		h.fail(w, r, "list employees failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employees)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get employee failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateEmployeeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	e, err := h.service.Create(ctx, req.ToModel(), requestcontext.Actor(ctx))
	if err != nil {
		h.fail(w, r, "create employee failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpdateEmployeeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	e, err := h.service.Update(ctx, chi.URLParam(r, "id"), req.ParsedChanges(), requestcontext.Actor(ctx))
	if err != nil {
		h.fail(w, r, "update employee failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, chi.URLParam(r, "id"), requestcontext.Actor(ctx)); err != nil {
		h.fail(w, r, "delete employee failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRetirementAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	priority, err := retirement.ParsePriority(q.Get("priority"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	alerts, err := h.service.RetirementAlerts(ctx, requestcontext.Now(ctx), retirement.Filter{
		Priority:   priority,
		Department: q.Get("department"),
	})
	if err != nil {
		h.fail(w, r, "retirement alerts failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alerts)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
