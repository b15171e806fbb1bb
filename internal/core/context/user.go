// Package context provides typed access to request-scoped values.
package context

import "context"

// UserContext carries the authenticated operator for the request.
type UserContext struct {
	UserID string
	Email  string
}

type userKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the UserContext or nil when unauthenticated.
func GetUser(ctx context.Context) *UserContext {
	if u, ok := ctx.Value(userKey{}).(*UserContext); ok {
		return u
	}
	return nil
}

// GetUserID returns the authenticated user id or "".
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}
