package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memclock "github.com/weddingpass/pass-api/internal/adapters/memory/clock"
	memevents "github.com/weddingpass/pass-api/internal/adapters/memory/events"
	memidempotency "github.com/weddingpass/pass-api/internal/adapters/memory/idempotency"
	memmessagerepo "github.com/weddingpass/pass-api/internal/adapters/memory/messagerepo"
	memreservationrepo "github.com/weddingpass/pass-api/internal/adapters/memory/reservationrepo"
	memsessionstore "github.com/weddingpass/pass-api/internal/adapters/memory/sessionstore"
	"github.com/weddingpass/pass-api/internal/app/auth"
	"github.com/weddingpass/pass-api/internal/app/messages"
	"github.com/weddingpass/pass-api/internal/app/reservations"
	"github.com/weddingpass/pass-api/internal/domain"
	"github.com/weddingpass/pass-api/internal/platform/auth/passwords"
	"github.com/weddingpass/pass-api/internal/platform/auth/tokens"
)

const (
	testAdminEmail    = "planner@example.com"
	testAdminPassword = "correct horse"
	testSigningKey    = "0123456789abcdef0123456789abcdef"
)

type testAPI struct {
	h   http.Handler
	clk *memclock.ManualClock
	rec *memevents.Recorder
}

type testOptions struct {
	maxCapacity  int
	wallDisabled bool
	sessionAuth  bool
	limiter      *RateLimiter
}

func newTestAPI(t *testing.T, opts testOptions) *testAPI {
	t.Helper()

	if opts.maxCapacity == 0 {
		opts.maxCapacity = 150
	}
	clk := memclock.NewManualClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	rec := memevents.NewRecorder(0)
	event := domain.Event{
		MaxCapacity:        opts.maxCapacity,
		CoupleNames:        "Ana & Luis",
		Date:               time.Date(2026, 9, 12, 17, 0, 0, 0, time.UTC),
		VenueName:          "Hacienda",
		AppBaseURL:         "https://wedding.example",
		MessageWallEnabled: !opts.wallDisabled,
	}

	resSvc := reservations.NewService(memreservationrepo.NewRepo(), clk, event, rec, nil)
	msgSvc := messages.NewService(memmessagerepo.NewRepo(), clk, rec, nil)

	var (
		authSvc *auth.Service
		authMW  func(http.Handler) http.Handler
	)
	if opts.sessionAuth {
		hash, err := passwords.Hash(testAdminPassword, 4)
		if err != nil {
			t.Fatalf("Hash err=%v", err)
		}
		tm := tokens.NewManager(testSigningKey, "pass-api-test", time.Hour, clk)
		authSvc = auth.NewService([]auth.Admin{{Email: testAdminEmail, PasswordHash: hash}}, tm, memsessionstore.NewStore(clk), clk, rec, nil)
		authMW = NewAuthMiddleware(authSvc)
	} else {
		authMW = NewDevAuthMiddleware("admin-1")
	}

	api := NewServer(resSvc, msgSvc, authSvc, memidempotency.NewStore(), clk, nil)
	h := NewRouterWithOptions(api, RouterOptions{AuthMiddleware: authMW, RateLimiter: opts.limiter})
	return &testAPI{h: h, clk: clk, rec: rec}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rec.Body.String())
	}
	return v
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, want, rec.Body.String())
	}
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) errorResponse {
	t.Helper()
	requireStatus(t, rec, status)
	er := decodeJSON[errorResponse](t, rec)
	if er.Error.Code != code {
		t.Fatalf("code: got %q want %q", er.Error.Code, code)
	}
	return er
}

func (a *testAPI) createReservation(t *testing.T, body map[string]any) reservationDTO {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/reservations", body, nil)
	requireStatus(t, rec, http.StatusCreated)
	return decodeJSON[reservationResponse](t, rec).Reservation
}
