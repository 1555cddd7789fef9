package testutil

import (
	"net/http"
	"time"

	"nonconf/internal/policy"
	id "nonconf/pkg/domain"
	"nonconf/pkg/requestcontext"
)

// WithActor injects an authenticated actor into the request context, the way
// the auth middleware would for a valid bearer token.
func WithActor(req *http.Request, actor policy.Actor) *http.Request {
	return req.WithContext(policy.WithActor(req.Context(), actor))
}

// WithUser injects a plain actor with no capabilities.
func WithUser(req *http.Request, userID id.UserID) *http.Request {
	return WithActor(req, policy.Actor{ID: userID})
}

// WithAdmin injects an actor holding the admin capability.
func WithAdmin(req *http.Request, userID id.UserID) *http.Request {
	return WithActor(req, policy.Actor{
		ID:           userID,
		Capabilities: []policy.Capability{policy.CapabilityAdmin},
	})
}

// WithRequestTime pins the request-scoped time, as the requesttime middleware
// does in production.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
