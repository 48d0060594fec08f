package httpapi

import "context"

type subjectKey struct{}

type tokenKey struct{}

func WithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subjectID)
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey{}).(string)
	return v, ok && v != ""
}

// WithSessionToken stores the bearer token that authenticated the request.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func SessionTokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenKey{}).(string)
	return v, ok && v != ""
}
