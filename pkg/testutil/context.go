package testutil

import (
	"net/http"

	"commission/pkg/domain"
	"commission/pkg/requestcontext"
)

// WithActor adds an authenticated actor to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithRole is WithActor for a synthetic actor holding role.
func WithRole(req *http.Request, role domain.Role) *http.Request {
	return WithActor(req, domain.Actor{
		ID:   "test-" + string(role),
		Name: "Test " + string(role),
		Role: role,
	})
}
