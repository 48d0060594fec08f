package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{sessionAuth: true})
	rec := api.do(t, http.MethodGet, "/api/reservations", nil, nil)

	er := requireErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	if !er.Error.RequestID.IsSpecified() || er.Error.RequestID.IsNull() {
		t.Fatalf("expected requestId to be set")
	}
	if rid, err := er.Error.RequestID.Get(); err != nil || rid == "" {
		t.Fatalf("expected requestId to be a non-empty string")
	}
}

func TestAuthMiddleware_MalformedHeader_401(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{sessionAuth: true})
	rec := api.do(t, http.MethodGet, "/api/reservations", nil, map[string]string{"Authorization": "Basic abc"})
	requireErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")

	rec = api.do(t, http.MethodGet, "/api/reservations", nil, map[string]string{"Authorization": "Bearer not-a-token"})
	requireErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAuth_SignInSessionSignOut(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{sessionAuth: true})

	rec := api.do(t, http.MethodPost, "/api/auth/sign-in", map[string]any{"email": testAdminEmail, "password": "nope"}, nil)
	requireErrorCode(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")

	rec = api.do(t, http.MethodPost, "/api/auth/sign-in", map[string]any{"email": "Planner@Example.com", "password": testAdminPassword}, nil)
	requireStatus(t, rec, http.StatusOK)
	signIn := decodeJSON[signInResponse](t, rec)
	if signIn.Token == "" || signIn.Session.Email != testAdminEmail || signIn.Session.ExpiresAt == nil {
		t.Fatalf("unexpected sign-in response: %+v", signIn)
	}
	bearer := map[string]string{"Authorization": "Bearer " + signIn.Token}

	rec = api.do(t, http.MethodGet, "/api/auth/session", nil, bearer)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[sessionDTO](t, rec); got.UserID != signIn.Session.UserID {
		t.Fatalf("session userId: got %q want %q", got.UserID, signIn.Session.UserID)
	}

	rec = api.do(t, http.MethodGet, "/api/reservations", nil, bearer)
	requireStatus(t, rec, http.StatusOK)

	rec = api.do(t, http.MethodPost, "/api/auth/sign-out", nil, bearer)
	requireStatus(t, rec, http.StatusNoContent)

	rec = api.do(t, http.MethodGet, "/api/reservations", nil, bearer)
	requireErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAuth_ExpiredSession_401(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{sessionAuth: true})
	rec := api.do(t, http.MethodPost, "/api/auth/sign-in", map[string]any{"email": testAdminEmail, "password": testAdminPassword}, nil)
	requireStatus(t, rec, http.StatusOK)
	token := decodeJSON[signInResponse](t, rec).Token

	api.clk.Advance(2 * time.Hour)
	rec = api.do(t, http.MethodGet, "/api/reservations", nil, map[string]string{"Authorization": "Bearer " + token})
	requireErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestDevAuth_SubjectHeader(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{})
	rec := api.do(t, http.MethodGet, "/api/auth/session", nil, map[string]string{"X-Debug-Subject": "door-staff"})
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[sessionDTO](t, rec); got.UserID != "door-staff" || got.ExpiresAt != nil {
		t.Fatalf("unexpected dev session: %+v", got)
	}

	rec = api.do(t, http.MethodGet, "/api/auth/session", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[sessionDTO](t, rec); got.UserID != "admin-1" {
		t.Fatalf("default dev subject: got %q", got.UserID)
	}

	rec = api.do(t, http.MethodPost, "/api/auth/sign-in", map[string]any{"email": testAdminEmail, "password": testAdminPassword}, nil)
	requireErrorCode(t, rec, http.StatusNotFound, "SIGN_IN_DISABLED")
}

func TestDevAuth_NoSubject_401(t *testing.T) {
	t.Parallel()

	called := false
	h := middleware.RequestID(NewDevAuthMiddleware("")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reservations", nil))

	requireErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	if called {
		t.Fatalf("next handler must not run without a subject")
	}
}
