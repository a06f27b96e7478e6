package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// subjectContextKey is the context key for the authenticated token subject.
	subjectContextKey contextKey = "token_subject"
)

// ContextWithSubject adds the authenticated username to the context.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}

// SubjectFromContext retrieves the authenticated username from the context.
// Returns an empty string if the request was not authenticated.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectContextKey).(string)
	return subject
}
