package auth

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	memclock "github.com/weddingpass/pass-api/internal/adapters/memory/clock"
	memevents "github.com/weddingpass/pass-api/internal/adapters/memory/events"
	memsessionstore "github.com/weddingpass/pass-api/internal/adapters/memory/sessionstore"
	"github.com/weddingpass/pass-api/internal/platform/auth/passwords"
	"github.com/weddingpass/pass-api/internal/platform/auth/tokens"
	"github.com/weddingpass/pass-api/internal/ports/out/events"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T) (*Service, *memclock.ManualClock, *memevents.Recorder) {
	t.Helper()
	hash, err := passwords.Hash("s3cret", 4)
	if err != nil {
		t.Fatalf("Hash err=%v", err)
	}
	clk := memclock.NewManualClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	rec := memevents.NewRecorder(0)
	tm := tokens.NewManager(testKey, "pass-api", time.Hour, clk)
	svc := NewService([]Admin{{Email: "Planner@Example.com", PasswordHash: hash}}, tm, memsessionstore.NewStore(clk), clk, rec, nil)
	return svc, clk, rec
}

func requireError(t *testing.T, err error, code string) {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 401 || ae.Code != code {
		t.Fatalf("err=%v (type=%T), want %s", err, err, code)
	}
}

func TestService_SignInSessionSignOut(t *testing.T) {
	t.Parallel()

	svc, clk, rec := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignIn(ctx, " planner@example.com ", "s3cret")
	if err != nil {
		t.Fatalf("SignIn err=%v", err)
	}
	if sess.Email != "planner@example.com" || sess.UserID != UserIDForEmail("PLANNER@example.com") {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if !sess.ExpiresAt.Equal(clk.Now().Add(time.Hour)) {
		t.Fatalf("ExpiresAt=%v", sess.ExpiresAt)
	}

	got, err := svc.Session(ctx, sess.Token)
	if err != nil || got.UserID != sess.UserID {
		t.Fatalf("Session=%+v err=%v", got, err)
	}

	if err := svc.SignOut(ctx, sess.Token); err != nil {
		t.Fatalf("SignOut err=%v", err)
	}
	if err := svc.SignOut(ctx, sess.Token); err != nil {
		t.Fatalf("SignOut again err=%v", err)
	}
	_, err = svc.Session(ctx, sess.Token)
	requireError(t, err, "UNAUTHORIZED")

	want := []events.Type{events.SessionSignedIn, events.SessionSignedOut}
	if got := rec.Types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events=%v want=%v", got, want)
	}
}

func TestService_SignIn_InvalidCredentials(t *testing.T) {
	t.Parallel()

	svc, _, rec := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "planner@example.com", "wrong")
	requireError(t, err, "INVALID_CREDENTIALS")
	_, err = svc.SignIn(ctx, "nobody@example.com", "s3cret")
	requireError(t, err, "INVALID_CREDENTIALS")

	if n := len(rec.Events()); n != 0 {
		t.Fatalf("events=%d, want 0", n)
	}
}

func TestService_Session_Expired(t *testing.T) {
	t.Parallel()

	svc, clk, _ := newTestService(t)
	ctx := context.Background()
	sess, err := svc.SignIn(ctx, "planner@example.com", "s3cret")
	if err != nil {
		t.Fatalf("SignIn err=%v", err)
	}
	clk.Advance(2 * time.Hour)
	_, err = svc.Session(ctx, sess.Token)
	requireError(t, err, "UNAUTHORIZED")

	_, err = svc.Session(ctx, "not-a-token")
	requireError(t, err, "UNAUTHORIZED")
}

func TestNewService_DummyHashMatchesAdminCost(t *testing.T) {
	t.Parallel()

	hash, err := passwords.Hash("s3cret", 5)
	if err != nil {
		t.Fatalf("Hash err=%v", err)
	}
	clk := memclock.NewManualClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	tm := tokens.NewManager(testKey, "pass-api", time.Hour, clk)
	admins := []Admin{{Email: "broken@example.com", PasswordHash: "not-a-hash"}, {Email: "planner@example.com", PasswordHash: hash}}
	svc := NewService(admins, tm, memsessionstore.NewStore(clk), clk, nil, nil)

	if c, err := passwords.Cost(svc.dummyHash); err != nil || c != 5 {
		t.Fatalf("dummy cost=%d err=%v, want 5", c, err)
	}
	if c := dummyCost(nil); c != passwords.DefaultCost {
		t.Fatalf("dummyCost(nil)=%d, want %d", c, passwords.DefaultCost)
	}
}
