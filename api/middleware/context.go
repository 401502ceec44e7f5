package middleware

import (
	"context"

	"github.com/aquamesh/aquaview-backend/internal/authz"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// PrincipalFromContext returns the authenticated caller, or the zero
// principal when the request was not authenticated.
func PrincipalFromContext(ctx context.Context) authz.Principal {
	if ctx == nil {
		return authz.Principal{}
	}
	if p, ok := ctx.Value(ctxPrincipal).(authz.Principal); ok {
		return p
	}
	return authz.Principal{}
}

// UserIDFromContext returns the caller's subject.
func UserIDFromContext(ctx context.Context) string {
	return PrincipalFromContext(ctx).Subject
}

// WithPrincipal injects the caller into the context.
func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}
