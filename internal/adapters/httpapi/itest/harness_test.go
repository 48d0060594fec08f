package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/weddingpass/pass-api/internal/adapters/httpapi"
	memclock "github.com/weddingpass/pass-api/internal/adapters/memory/clock"
	memevents "github.com/weddingpass/pass-api/internal/adapters/memory/events"
	memidempotency "github.com/weddingpass/pass-api/internal/adapters/memory/idempotency"
	memmessagerepo "github.com/weddingpass/pass-api/internal/adapters/memory/messagerepo"
	memreservationrepo "github.com/weddingpass/pass-api/internal/adapters/memory/reservationrepo"
	pgidempotency "github.com/weddingpass/pass-api/internal/adapters/postgres/idempotency"
	pgmessagerepo "github.com/weddingpass/pass-api/internal/adapters/postgres/messagerepo"
	pgreservationrepo "github.com/weddingpass/pass-api/internal/adapters/postgres/reservationrepo"
	postgres_testutil "github.com/weddingpass/pass-api/internal/adapters/postgres/testutil"
	sqliteidempotency "github.com/weddingpass/pass-api/internal/adapters/sqlite/idempotency"
	sqlitemessagerepo "github.com/weddingpass/pass-api/internal/adapters/sqlite/messagerepo"
	sqlitereservationrepo "github.com/weddingpass/pass-api/internal/adapters/sqlite/reservationrepo"
	"github.com/weddingpass/pass-api/internal/adapters/sqlite/sqlitetest"
	"github.com/weddingpass/pass-api/internal/app/messages"
	"github.com/weddingpass/pass-api/internal/app/reservations"
	"github.com/weddingpass/pass-api/internal/domain"
	idempotencyport "github.com/weddingpass/pass-api/internal/ports/out/idempotency"
	messagerepoport "github.com/weddingpass/pass-api/internal/ports/out/messagerepo"
	reservationrepoport "github.com/weddingpass/pass-api/internal/ports/out/reservationrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendSQLite   backend = "sqlite"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "":
		return []backend{backendMemory, backendSQLite}
	case "memory":
		return []backend{backendMemory}
	case "sqlite":
		return []backend{backendSQLite}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendSQLite, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|sqlite|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	events  *memevents.Recorder
}

func newTestServer(t *testing.T, b backend, maxCapacity int) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))

	var (
		reservationRepo reservationrepoport.Repository
		messageRepo     messagerepoport.Repository
		idemStore       idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		postgres_testutil.Truncate(t, pool, "guest_messages", "reservations", "idempotency_keys")
		reservationRepo = pgreservationrepo.NewRepo(pool)
		messageRepo = pgmessagerepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	case backendSQLite:
		db := sqlitetest.OpenMigrated(t)
		reservationRepo = sqlitereservationrepo.NewRepo(db)
		messageRepo = sqlitemessagerepo.NewRepo(db)
		idemStore = sqliteidempotency.NewStore(db)
	case backendMemory:
		reservationRepo = memreservationrepo.NewRepo()
		messageRepo = memmessagerepo.NewRepo()
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	event := domain.Event{
		MaxCapacity:        maxCapacity,
		CoupleNames:        "Ana & Luis",
		Date:               time.Date(2026, 9, 12, 17, 0, 0, 0, time.UTC),
		VenueName:          "Hacienda",
		AppBaseURL:         "https://wedding.example",
		MessageWallEnabled: true,
	}
	rec := memevents.NewRecorder(0)
	resSvc := reservations.NewService(reservationRepo, clk, event, rec, nil)
	msgSvc := messages.NewService(messageRepo, clk, rec, nil)
	api := httpapi.NewServer(resSvc, msgSvc, nil, idemStore, clk, nil)

	// Empty default subject: admin requests MUST provide X-Debug-Subject.
	authMW := httpapi.NewDevAuthMiddleware("")
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{AuthMiddleware: authMW})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		events:  rec,
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
