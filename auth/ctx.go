package auth

import (
	"context"
)

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// RequestIdentity is the per-request authenticated principal handed to
// downstream handlers. It is immutable and scoped to a single request's
// context; nothing here is shared between requests.
type RequestIdentity struct {
	UserID int64
	Role   UserRole
}

// WithIdentity sets the RequestIdentity in the given context
func WithIdentity(ctx context.Context, identity RequestIdentity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFrom finds the identity from the context.
func IdentityFrom(ctx context.Context) (RequestIdentity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(RequestIdentity)
	return raw, ok
}

// IsAdmin reports whether the context carries an admin identity.
func IsAdmin(ctx context.Context) bool {
	identity, ok := IdentityFrom(ctx)
	return ok && identity.Role == RoleAdmin
}
