// Package auth carries the authenticated user's id through request contexts.
package auth

import "context"

type userIDKey struct{}

// WithUserID returns a copy of ctx carrying userID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the user id stored by WithUserID
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(userIDKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// ContextAuth resolves the current user from the request context
type ContextAuth struct{}

func (ContextAuth) CurrentUserID(ctx context.Context) (string, bool) {
	return UserIDFromContext(ctx)
}
