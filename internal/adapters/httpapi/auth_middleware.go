package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/weddingpass/pass-api/internal/app/auth"
)

// SessionVerifier resolves a bearer token to a live admin session.
type SessionVerifier interface {
	Session(ctx context.Context, token string) (auth.Session, error)
}

// NewAuthMiddleware enforces Authorization: Bearer <token> backed by a live session.
//
// On success, it stores the admin user id and the token in request context.
func NewAuthMiddleware(v SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(w, r)
			if !ok {
				return
			}

			sess, err := v.Session(r.Context(), raw)
			if err != nil {
				if ae := (*auth.Error)(nil); errors.As(err, &ae) && ae.Status == http.StatusUnauthorized {
					writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session", nil)
					return
				}
				writeError(w, r, http.StatusBadGateway, "GATEWAY_ERROR", "session store unavailable", nil)
				return
			}

			ctx := WithSessionToken(WithSubject(r.Context(), string(sess.UserID)), raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing Authorization header", nil)
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "malformed Authorization header", nil)
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
	if raw == "" {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
		return "", false
	}
	return raw, true
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It accepts an explicit subject via X-Debug-Subject and stores it in request context.
// If the header is absent, it falls back to defaultSubject (if provided).
// Do NOT use this in production deployments.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject (set X-Debug-Subject)", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), sub)))
		})
	}
}
