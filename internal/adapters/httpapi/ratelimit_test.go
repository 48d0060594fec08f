package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_PerClient(t *testing.T) {
	t.Parallel()

	l := NewRateLimiter(1, 2)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("burst of 2 must be allowed")
	}
	if l.Allow("a") {
		t.Fatalf("third request in the same instant must be rejected")
	}
	if !l.Allow("b") {
		t.Fatalf("other clients have their own bucket")
	}
	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatalf("bucket must refill after a second")
	}
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	t.Parallel()

	l := NewRateLimiter(1, 1)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(11 * time.Minute)
	l.Allow("b")

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.visitors["a"]; ok {
		t.Fatalf("idle visitor should have been swept")
	}
	if len(l.visitors) != 1 {
		t.Fatalf("visitors=%d, want 1", len(l.visitors))
	}
}

func TestRateLimiter_PublicRoutesOnly(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{limiter: NewRateLimiter(0.001, 2)})

	for i := 0; i < 2; i++ {
		requireStatus(t, api.do(t, http.MethodGet, "/api/event", nil, nil), http.StatusOK)
	}
	rec := api.do(t, http.MethodGet, "/api/event", nil, nil)
	requireErrorCode(t, rec, http.StatusTooManyRequests, "RATE_LIMITED")
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	for i := 0; i < 3; i++ {
		requireStatus(t, api.do(t, http.MethodGet, "/api/reservations", nil, nil), http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/event", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	other := httptest.NewRecorder()
	api.h.ServeHTTP(other, req)
	requireStatus(t, other, http.StatusOK)
}
