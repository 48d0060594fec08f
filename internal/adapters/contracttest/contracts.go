package contracttest

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/weddingpass/pass-api/internal/domain"
	idempotencyport "github.com/weddingpass/pass-api/internal/ports/out/idempotency"
	messagerepoport "github.com/weddingpass/pass-api/internal/ports/out/messagerepo"
	reservationrepoport "github.com/weddingpass/pass-api/internal/ports/out/reservationrepo"
	sessionstoreport "github.com/weddingpass/pass-api/internal/ports/out/sessionstore"
)

type CleanupFunc = func()

type ReservationRepoFactory func(t *testing.T) (reservationrepoport.Repository, CleanupFunc)
type MessageRepoFactory func(t *testing.T) (messagerepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)
type SessionStoreFactory func(t *testing.T) (sessionstoreport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      "k-1",
		Subject:  domain.SubjectID("sub-1"),
		Method:   "POST",
		Route:    "/api/reservations",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}
	rec := idempotencyport.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"code":"WED-0001"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"code":"WED-0001"}` || got.ContentType != "application/json" || got.StatusCode != 201 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"code":"WED-0002"}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"code":"WED-0002"}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}

func newReservation(code string, guests int, createdAt time.Time) reservationrepoport.Reservation {
	return reservationrepoport.Reservation{
		ID:                 domain.ReservationID(uuid.NewString()),
		Code:               code,
		GuestName:          "Guest " + code,
		NumberOfGuests:     guests,
		MainGuestAttending: true,
		Status:             domain.ReservationStatusPending,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
}

func decodeAccompanists(t *testing.T, b []byte) []domain.Accompanist {
	t.Helper()
	var out []domain.Accompanist
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode accompanists %q: %v", string(b), err)
	}
	return out
}

func RunReservationRepo(t *testing.T, newRepo ReservationRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	base := time.Unix(1000, 0).UTC()
	const capacity = 10

	a := newReservation("WED-1111", 4, base)
	a.GuestName = "Alice Johnson"
	group := "Bride Family"
	a.Group = &group
	table := "7"
	a.Table = &table
	a.AccompanistNames = []string{"Ana", "Luis", "Marta"}
	accs := []domain.Accompanist{{Name: "Ana", WillAttend: true}, {Name: "Luis", WillAttend: false}}
	raw, err := json.Marshal(accs)
	if err != nil {
		t.Fatalf("marshal accompanists: %v", err)
	}
	a.Accompanists = raw
	if err := repo.Create(ctx, a, capacity); err != nil {
		t.Fatalf("Create a: %v", err)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Code != a.Code || got.GuestName != a.GuestName || got.NumberOfGuests != 4 || !got.MainGuestAttending {
		t.Fatalf("unexpected reservation: %#v", got)
	}
	if got.Group == nil || *got.Group != group || got.Table == nil || *got.Table != table || got.Notes != nil {
		t.Fatalf("unexpected optional fields: table=%v group=%v notes=%v", got.Table, got.Group, got.Notes)
	}
	if !reflect.DeepEqual(got.AccompanistNames, a.AccompanistNames) {
		t.Fatalf("AccompanistNames=%v, want %v", got.AccompanistNames, a.AccompanistNames)
	}
	if !reflect.DeepEqual(decodeAccompanists(t, got.Accompanists), accs) {
		t.Fatalf("Accompanists=%s, want %s", got.Accompanists, raw)
	}
	if !got.CreatedAt.Equal(base) || got.CheckedInAt != nil {
		t.Fatalf("unexpected timestamps: created=%v checkedIn=%v", got.CreatedAt, got.CheckedInAt)
	}

	if _, err := repo.GetByID(ctx, domain.ReservationID(uuid.NewString())); !errors.Is(err, reservationrepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}
	if byCode, err := repo.GetByCode(ctx, "WED-1111"); err != nil || byCode.ID != a.ID {
		t.Fatalf("GetByCode: id=%v err=%v", byCode.ID, err)
	}
	if _, err := repo.GetByCode(ctx, "WED-9999"); !errors.Is(err, reservationrepoport.ErrNotFound) {
		t.Fatalf("GetByCode(missing) err=%v, want ErrNotFound", err)
	}

	// Code uniqueness.
	dup := newReservation("WED-1111", 1, base.Add(time.Second))
	if err := repo.Create(ctx, dup, capacity); !errors.Is(err, reservationrepoport.ErrCodeTaken) {
		t.Fatalf("Create duplicate code err=%v, want ErrCodeTaken", err)
	}

	// Capacity: 4 used, 6 left.
	b := newReservation("WED-2222", 6, base.Add(2*time.Second))
	b.GuestName = "Bob"
	over := newReservation("WED-3333", 7, base.Add(2*time.Second))
	if err := repo.Create(ctx, over, capacity); !errors.Is(err, reservationrepoport.ErrCapacityExceeded) {
		t.Fatalf("Create over capacity err=%v, want ErrCapacityExceeded", err)
	}
	if err := repo.Create(ctx, b, capacity); err != nil {
		t.Fatalf("Create b at capacity: %v", err)
	}
	if err := repo.Create(ctx, newReservation("WED-4444", 1, base.Add(3*time.Second)), capacity); !errors.Is(err, reservationrepoport.ErrCapacityExceeded) {
		t.Fatalf("Create when full err=%v, want ErrCapacityExceeded", err)
	}

	// Guarded update excludes the row being updated from the running total.
	b.NumberOfGuests = 5
	limit := capacity
	if err := repo.Update(ctx, b, &limit); err != nil {
		t.Fatalf("Update b shrink: %v", err)
	}
	b.NumberOfGuests = 7
	if err := repo.Update(ctx, b, &limit); !errors.Is(err, reservationrepoport.ErrCapacityExceeded) {
		t.Fatalf("Update b grow err=%v, want ErrCapacityExceeded", err)
	}
	b.NumberOfGuests = 5
	notes := "Vegan, no nuts"
	b.Notes = &notes
	b.Status = domain.ReservationStatusConfirmed
	b.UpdatedAt = base.Add(time.Hour)
	if err := repo.Update(ctx, b, nil); err != nil {
		t.Fatalf("Update b unguarded: %v", err)
	}
	gotB, err := repo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID b: %v", err)
	}
	if gotB.Status != domain.ReservationStatusConfirmed || gotB.Notes == nil || *gotB.Notes != notes || gotB.NumberOfGuests != 5 {
		t.Fatalf("unexpected updated b: %#v", gotB)
	}
	if err := repo.Update(ctx, newReservation("WED-5555", 1, base), nil); !errors.Is(err, reservationrepoport.ErrNotFound) {
		t.Fatalf("Update(missing) err=%v, want ErrNotFound", err)
	}

	// Ordering: newest first.
	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != b.ID || all[1].ID != a.ID {
		t.Fatalf("unexpected list ordering: %#v", all)
	}

	// Search: OR over guest name, code and group; case-insensitive.
	for _, tc := range []struct {
		q    string
		want []domain.ReservationID
	}{
		{q: "alice", want: []domain.ReservationID{a.ID}},
		{q: "wed-22", want: []domain.ReservationID{b.ID}},
		{q: "bride fam", want: []domain.ReservationID{a.ID}},
		{q: "WED-", want: []domain.ReservationID{b.ID, a.ID}},
		{q: "nobody", want: nil},
	} {
		res, err := repo.Search(ctx, tc.q)
		if err != nil {
			t.Fatalf("Search(%q): %v", tc.q, err)
		}
		var ids []domain.ReservationID
		for _, r := range res {
			ids = append(ids, r.ID)
		}
		if !reflect.DeepEqual(ids, tc.want) {
			t.Fatalf("Search(%q)=%v, want %v", tc.q, ids, tc.want)
		}
	}

	pending, err := repo.ListByStatus(ctx, domain.ReservationStatusPending)
	if err != nil || len(pending) != 1 || pending[0].ID != a.ID {
		t.Fatalf("ListByStatus(pending)=%v err=%v", pending, err)
	}

	att, err := repo.ListAttendance(ctx)
	if err != nil {
		t.Fatalf("ListAttendance: %v", err)
	}
	total := 0
	for _, x := range att {
		total += x.NumberOfGuests
	}
	if len(att) != 2 || total != 9 {
		t.Fatalf("ListAttendance len=%d total=%d, want 2/9", len(att), total)
	}

	// Check-in is one-shot.
	at := base.Add(2 * time.Hour)
	checked, err := repo.MarkCheckedIn(ctx, a.ID, at)
	if err != nil {
		t.Fatalf("MarkCheckedIn: %v", err)
	}
	if checked.Status != domain.ReservationStatusCheckedIn || checked.CheckedInAt == nil || !checked.CheckedInAt.Equal(at) {
		t.Fatalf("unexpected checked-in reservation: %#v", checked)
	}
	if _, err := repo.MarkCheckedIn(ctx, a.ID, at.Add(time.Minute)); !errors.Is(err, reservationrepoport.ErrAlreadyCheckedIn) {
		t.Fatalf("second MarkCheckedIn err=%v, want ErrAlreadyCheckedIn", err)
	}
	if _, err := repo.MarkCheckedIn(ctx, domain.ReservationID(uuid.NewString()), at); !errors.Is(err, reservationrepoport.ErrNotFound) {
		t.Fatalf("MarkCheckedIn(missing) err=%v, want ErrNotFound", err)
	}

	// A record read before the check-in cannot move it back out of checked-in.
	stale := a
	stale.GuestName = "Alice J."
	stale.UpdatedAt = at.Add(time.Minute)
	if err := repo.Update(ctx, stale, nil); !errors.Is(err, reservationrepoport.ErrAlreadyCheckedIn) {
		t.Fatalf("Update(stale pending) err=%v, want ErrAlreadyCheckedIn", err)
	}
	got, err = repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID after stale update: %v", err)
	}
	if got.Status != domain.ReservationStatusCheckedIn || got.CheckedInAt == nil || !got.CheckedInAt.Equal(at) || got.GuestName != a.GuestName {
		t.Fatalf("checked-in reservation was overwritten: %#v", got)
	}
	checked.GuestName = "Alice J."
	if err := repo.Update(ctx, checked, nil); err != nil {
		t.Fatalf("Update checked-in record: %v", err)
	}
	if got, _ = repo.GetByID(ctx, a.ID); got.GuestName != "Alice J." || got.Status != domain.ReservationStatusCheckedIn {
		t.Fatalf("unexpected checked-in update: %#v", got)
	}

	// Delete is permanent and idempotent; it frees capacity and the code.
	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete b: %v", err)
	}
	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete b again: %v", err)
	}
	if _, err := repo.GetByID(ctx, b.ID); !errors.Is(err, reservationrepoport.ErrNotFound) {
		t.Fatalf("GetByID(deleted) err=%v, want ErrNotFound", err)
	}
	if err := repo.Create(ctx, newReservation("WED-2222", 6, base.Add(3*time.Hour)), capacity); err != nil {
		t.Fatalf("Create after delete: %v", err)
	}
}

func newMessage(reservationID domain.ReservationID, text string, createdAt time.Time) messagerepoport.Message {
	return messagerepoport.Message{
		ID:            domain.MessageID(uuid.NewString()),
		ReservationID: reservationID,
		GuestName:     "Guest",
		Message:       text,
		MessageType:   domain.MessageTypeWishes,
		IsPublic:      true,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func RunMessageRepo(t *testing.T, newRepo MessageRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	base := time.Unix(5000, 0).UTC()
	r1 := domain.ReservationID(uuid.NewString())
	r2 := domain.ReservationID(uuid.NewString())

	m1 := newMessage(r1, "Congratulations!", base)
	m2 := newMessage(r1, "Private advice", base.Add(time.Minute))
	m2.IsPublic = false
	m2.MessageType = domain.MessageTypeAdvice
	m3 := newMessage(r2, "Remember the beach?", base.Add(2*time.Minute))
	m3.MessageType = domain.MessageTypeMemory

	for _, m := range []messagerepoport.Message{m1, m2, m3} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create %s: %v", m.Message, err)
		}
	}
	if err := repo.Create(ctx, m1); !errors.Is(err, messagerepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByID(ctx, m2.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Message != "Private advice" || got.IsPublic || got.IsBlocked || got.MessageType != domain.MessageTypeAdvice || got.ReservationID != r1 {
		t.Fatalf("unexpected message: %#v", got)
	}
	if _, err := repo.GetByID(ctx, domain.MessageID(uuid.NewString())); !errors.Is(err, messagerepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}

	all, err := repo.List(ctx)
	if err != nil || len(all) != 3 || all[0].ID != m3.ID || all[2].ID != m1.ID {
		t.Fatalf("List=%v err=%v, want newest first", all, err)
	}
	byRes, err := repo.ListByReservation(ctx, r1)
	if err != nil || len(byRes) != 2 {
		t.Fatalf("ListByReservation=%v err=%v", byRes, err)
	}

	pub, err := repo.ListPublic(ctx)
	if err != nil || len(pub) != 2 {
		t.Fatalf("ListPublic=%v err=%v, want 2", pub, err)
	}

	// Toggling blocked removes and restores the message from the public wall.
	toggled, err := repo.ToggleBlocked(ctx, m1.ID, base.Add(time.Hour))
	if err != nil || !toggled.IsBlocked {
		t.Fatalf("ToggleBlocked: %#v err=%v", toggled, err)
	}
	pub, _ = repo.ListPublic(ctx)
	if len(pub) != 1 || pub[0].ID != m3.ID {
		t.Fatalf("ListPublic after block=%v", pub)
	}
	toggled, err = repo.ToggleBlocked(ctx, m1.ID, base.Add(2*time.Hour))
	if err != nil || toggled.IsBlocked {
		t.Fatalf("ToggleBlocked back: %#v err=%v", toggled, err)
	}
	pub, _ = repo.ListPublic(ctx)
	if len(pub) != 2 {
		t.Fatalf("ListPublic after unblock len=%d, want 2", len(pub))
	}
	if _, err := repo.ToggleBlocked(ctx, domain.MessageID(uuid.NewString()), base); !errors.Is(err, messagerepoport.ErrNotFound) {
		t.Fatalf("ToggleBlocked(missing) err=%v, want ErrNotFound", err)
	}

	m3.Message = "Remember the beach? Always."
	m3.IsPublic = false
	m3.UpdatedAt = base.Add(3 * time.Hour)
	if err := repo.Update(ctx, m3); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(ctx, m3.ID)
	if got.Message != m3.Message || got.IsPublic {
		t.Fatalf("unexpected updated message: %#v", got)
	}

	// Update leaves the blocked flag to ToggleBlocked, even when the caller holds a stale copy.
	if _, err := repo.ToggleBlocked(ctx, m3.ID, base.Add(4*time.Hour)); err != nil {
		t.Fatalf("ToggleBlocked m3: %v", err)
	}
	m3.IsPublic = true
	m3.IsBlocked = false
	m3.Message = "Edited after the block"
	m3.UpdatedAt = base.Add(5 * time.Hour)
	if err := repo.Update(ctx, m3); err != nil {
		t.Fatalf("Update stale m3: %v", err)
	}
	got, _ = repo.GetByID(ctx, m3.ID)
	if !got.IsBlocked || got.Message != "Edited after the block" || !got.IsPublic {
		t.Fatalf("unexpected message after stale update: %#v", got)
	}
	pub, _ = repo.ListPublic(ctx)
	for _, m := range pub {
		if m.ID == m3.ID {
			t.Fatalf("blocked message back on public wall: %#v", pub)
		}
	}

	if err := repo.Update(ctx, newMessage(r2, "x", base)); !errors.Is(err, messagerepoport.ErrNotFound) {
		t.Fatalf("Update(missing) err=%v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, m2.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, m2.ID); err != nil {
		t.Fatalf("Delete again: %v", err)
	}
	all, _ = repo.List(ctx)
	if len(all) != 2 {
		t.Fatalf("List after delete len=%d, want 2", len(all))
	}
}

func RunSessionStore(t *testing.T, newStore SessionStoreFactory, now time.Time) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	sess := sessionstoreport.Session{
		ID:        uuid.NewString(),
		Subject:   domain.SubjectID(uuid.NewString()),
		Email:     "admin@example.com",
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, sess.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Subject != sess.Subject || got.Email != sess.Email || !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Fatalf("Get=%+v, want %+v", got, sess)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := store.Get(ctx, sess.ID); err != nil || ok {
		t.Fatalf("Get after delete: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.Get(ctx, "unknown"); err != nil || ok {
		t.Fatalf("Get unknown: ok=%v err=%v", ok, err)
	}
}
