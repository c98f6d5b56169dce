package testutil

import (
	"context"
	"net/http"

	"alertcast/internal/platform/middleware"
)

// WithPrincipal adds a caller principal to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithPrincipal(req *http.Request, principal string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyPrincipal, principal)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
