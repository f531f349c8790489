// Package appctx carries per-request values: the authenticated user and
// the request/trace identifiers.
package appctx

import (
	"context"
)

type ctxKey int

const (
	userKey ctxKey = iota
	traceKey
)

// User is the authenticated caller as presented by the auth provider.
// Credentials and token issuance live outside this service; only the
// verified identity crosses into the domain layer.
type User struct {
	UserID string
	Email  string
}

// Trace holds request correlation identifiers.
type Trace struct {
	RequestID string
	TraceID   string
}

// WithUser stores the user in context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// GetUser retrieves the user from context, or nil.
func GetUser(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}

// UserID returns the user id from context, or "".
func UserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// WithTrace stores trace identifiers in context.
func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, traceKey, t)
}

// GetTrace retrieves trace identifiers from context, or nil.
func GetTrace(ctx context.Context) *Trace {
	t, _ := ctx.Value(traceKey).(*Trace)
	return t
}
