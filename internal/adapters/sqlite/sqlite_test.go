package sqlite

import (
	"context"
	"testing"
	"time"
)

func TestTimeLayout_SortsLexically(t *testing.T) {
	t.Parallel()

	early := time.Date(2026, 6, 1, 9, 0, 0, 5, time.UTC)
	late := time.Date(2026, 6, 1, 9, 0, 0, 400_000_000, time.UTC)
	a, b := FormatTime(early), FormatTime(late)
	if !(a < b) {
		t.Fatalf("expected %q < %q", a, b)
	}
	got, err := ParseTime(a)
	if err != nil || !got.Equal(early) {
		t.Fatalf("ParseTime(%q)=%v err=%v", a, got, err)
	}
}

func TestOpenAndMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open err=%v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("Migrate #%d err=%v", i+1, err)
		}
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO reservations (id, code, guest_name, number_of_guests, created_at, updated_at) VALUES ('a', 'WED-0001', 'A', 1, 'x', 'x')`); err != nil {
		t.Fatalf("insert err=%v", err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO reservations (id, code, guest_name, number_of_guests, created_at, updated_at) VALUES ('b', 'WED-0001', 'B', 1, 'x', 'x')`)
	if !IsUniqueViolation(err, "reservations.code") {
		t.Fatalf("expected unique violation on code, got %v", err)
	}
}
