package api

import "context"

type contextKey int

const ctxKeySubject contextKey = 0

// ContextWithSubject stores the authenticated user ID on the context.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ctxKeySubject, subject)
}

// SubjectFromContext returns the authenticated user ID set by the auth
// middleware, or "" when the request was not authenticated.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(ctxKeySubject).(string)
	return subject
}
