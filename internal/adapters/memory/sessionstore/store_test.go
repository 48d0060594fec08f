package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/weddingpass/pass-api/internal/adapters/contracttest"
	"github.com/weddingpass/pass-api/internal/adapters/memory/clock"
	sessionstoreport "github.com/weddingpass/pass-api/internal/ports/out/sessionstore"
)

func TestContract_SessionStore(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	contracttest.RunSessionStore(t, func(t *testing.T) (sessionstoreport.Store, func()) {
		t.Helper()
		return NewStore(clock.NewManualClock(now)), nil
	}, now)
}

func TestStore_ExpiredSessionIsGone(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewManualClock(now)
	store := NewStore(clk)
	ctx := context.Background()

	if err := store.Put(ctx, sessionstoreport.Session{ID: "s-1", Subject: "admin", ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("Put err=%v", err)
	}
	if _, ok, _ := store.Get(ctx, "s-1"); !ok {
		t.Fatalf("expected live session")
	}
	clk.Advance(time.Minute)
	if _, ok, _ := store.Get(ctx, "s-1"); ok {
		t.Fatalf("expected expired session to be dropped")
	}
}
