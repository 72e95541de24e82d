package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	activitystore "commission/internal/activity/store"
	"commission/internal/employee/models"
	"commission/internal/employee/retirement"
	"commission/internal/employee/service"
	"commission/internal/employee/store"
	"commission/pkg/domain"
	"commission/pkg/platform/tx"
	"commission/pkg/requestcontext"
	"commission/pkg/testutil"
)

func newRouter(t *testing.T) (http.Handler, *service.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), activitystore.NewInMemory(), tx.NewInMemory(0), service.WithLogger(logger))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, svc
}

func TestEmployeeRoutes(t *testing.T) {
	router, svc := newRouter(t)
	admin := domain.Actor{ID: "admin-1", Name: "Ada", Role: domain.RoleAdmin}

	testutil.Given(t, "an admin creating an employee", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/employees", map[string]string{
			"name":  "Kemi",
			"email": "kemi@example.gov",
		})
		rr := testutil.DoRequest(router, testutil.WithActor(req, admin))

		testutil.Then(t, "it is stored as active", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusCreated)
			created := testutil.UnmarshalResponse[models.Employee](t, rr)
			assert.Equal(t, models.StatusActive, created.Status)
			assert.NotEmpty(t, created.ID)
		})
	})

	testutil.Given(t, "a media user", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/employees", map[string]string{"name": "X", "email": "x@example.gov"})
		rr := testutil.DoRequest(router, testutil.WithRole(req, domain.RoleMedia))

		testutil.Then(t, "employee writes are forbidden", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
		})
	})

	testutil.Given(t, "an auditor", func(t *testing.T) {
		testutil.When(t, "listing employees", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.WithRole(testutil.NewRequest(t, http.MethodGet, "/employees"), domain.RoleAudit))
			testutil.AssertStatusOK(t, rr)
		})
		testutil.When(t, "deleting an employee", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.WithRole(testutil.NewRequest(t, http.MethodDelete, "/employees/any"), domain.RoleAudit))
			testutil.AssertStatus(t, rr, http.StatusForbidden)
		})
	})

	t.Run("update with unknown field is a validation error", func(t *testing.T) {
		e, err := svc.Create(context.Background(), models.Employee{Name: "Lola", Email: "lola@example.gov"}, admin)
		require.NoError(t, err)

		req := testutil.NewJSONRequest(t, http.MethodPut, "/employees/"+e.ID, map[string]any{
			"changes": map[string]string{"salary": "1"},
		})
		rr := testutil.DoRequest(router, testutil.WithActor(req, admin))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("missing employee is not found", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/employees/missing"), admin))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("retirement alerts", func(t *testing.T) {
		now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		_, err := svc.Create(context.Background(), models.Employee{Name: "Musa", Email: "musa@example.gov", RetirementDate: "2026-06-20"}, admin)
		require.NoError(t, err)

		req := testutil.NewRequest(t, http.MethodGet, "/retirement-alerts?priority=critical")
		req = req.WithContext(requestcontext.WithTime(req.Context(), now))
		rr := testutil.DoRequest(router, testutil.WithActor(req, admin))

		testutil.AssertStatusOK(t, rr)
		alerts := testutil.UnmarshalResponse[[]retirement.Alert](t, rr)
		require.Len(t, *alerts, 1)
		assert.Equal(t, 19, (*alerts)[0].DaysRemaining)

		bad := testutil.DoRequest(router, testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/retirement-alerts?priority=urgent"), admin))
		testutil.AssertStatus(t, bad, http.StatusBadRequest)
	})
}
