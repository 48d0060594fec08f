package httpapi

import (
	"bytes"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

var codePattern = regexp.MustCompile(`^[A-Z]{3}-\d{4}$`)

func TestReservations_CreateGetList(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{})
	res := api.createReservation(t, map[string]any{
		"guestName":        "  Alice   Smith ",
		"numberOfGuests":   2,
		"accompanistNames": []string{"Bob"},
		"table":            "T1",
	})
	if !codePattern.MatchString(res.Code) {
		t.Fatalf("code %q does not match pattern", res.Code)
	}
	if res.GuestName != "Alice Smith" || res.Status != "pending" || !res.MainGuestAttending || res.Accompanists != nil {
		t.Fatalf("unexpected reservation: %+v", res)
	}
	if res.PassURL != "https://wedding.example/check-in?code="+res.Code {
		t.Fatalf("passUrl=%q", res.PassURL)
	}

	rec := api.do(t, http.MethodGet, "/api/reservations/"+res.ID, nil, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[reservationResponse](t, rec).Reservation; got.Code != res.Code {
		t.Fatalf("GetByID code=%q", got.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/reservations/code/"+strings.ToLower(res.Code), nil, nil)
	requireStatus(t, rec, http.StatusOK)

	rec = api.do(t, http.MethodGet, "/api/reservations/"+uuid.NewString(), nil, nil)
	requireErrorCode(t, rec, http.StatusNotFound, "RESERVATION_NOT_FOUND")

	rec = api.do(t, http.MethodGet, "/api/reservations/not-a-uuid", nil, nil)
	requireErrorCode(t, rec, http.StatusBadRequest, "INVALID_PARAMETER")

	api.clk.Advance(1)
	api.createReservation(t, map[string]any{"guestName": "Carol", "numberOfGuests": 1})

	rec = api.do(t, http.MethodGet, "/api/reservations", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	list := decodeJSON[reservationsResponse](t, rec).Reservations
	if len(list) != 2 || list[0].GuestName != "Carol" {
		t.Fatalf("list=%+v", list)
	}

	rec = api.do(t, http.MethodGet, "/api/reservations?q=alice", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[reservationsResponse](t, rec).Reservations; len(got) != 1 || got[0].ID != res.ID {
		t.Fatalf("search=%+v", got)
	}

	rec = api.do(t, http.MethodGet, "/api/reservations?status=confirmed", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[reservationsResponse](t, rec).Reservations; len(got) != 0 {
		t.Fatalf("status filter=%+v", got)
	}

	rec = api.do(t, http.MethodGet, "/api/reservations?status=bogus", nil, nil)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestReservations_Create_Validation(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{})

	rec := api.do(t, http.MethodPost, "/api/reservations", map[string]any{"guestName": "", "numberOfGuests": 1}, nil)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	rec = api.do(t, http.MethodPost, "/api/reservations", map[string]any{"guestName": "Dan", "numberOfGuests": 11}, nil)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	rec = api.do(t, http.MethodPost, "/api/reservations", "{", nil)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestReservations_CapacityExceeded(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{maxCapacity: 5})
	api.createReservation(t, map[string]any{"guestName": "Big Family", "numberOfGuests": 4})

	rec := api.do(t, http.MethodPost, "/api/reservations", map[string]any{"guestName": "Late", "numberOfGuests": 2}, nil)
	er := requireErrorCode(t, rec, http.StatusConflict, "CAPACITY_EXCEEDED")
	details, err := er.Error.Details.Get()
	if err != nil {
		t.Fatalf("expected details: %v", err)
	}
	if details["availableSpots"] != float64(1) {
		t.Fatalf("availableSpots=%v", details["availableSpots"])
	}

	api.createReservation(t, map[string]any{"guestName": "Solo", "numberOfGuests": 1})
}

func TestReservations_Create_IdempotencyReplay(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{})
	body := map[string]any{"guestName": "Eve", "numberOfGuests": 1}
	key := map[string]string{"Idempotency-Key": "k-1"}

	first := api.do(t, http.MethodPost, "/api/reservations", body, key)
	requireStatus(t, first, http.StatusCreated)
	second := api.do(t, http.MethodPost, "/api/reservations", body, key)
	requireStatus(t, second, http.StatusCreated)
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Fatalf("replay body differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay header")
	}

	rec := api.do(t, http.MethodPost, "/api/reservations", map[string]any{"guestName": "Eve", "numberOfGuests": 2}, key)
	requireErrorCode(t, rec, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")

	rec = api.do(t, http.MethodGet, "/api/reservations", nil, nil)
	if got := decodeJSON[reservationsResponse](t, rec).Reservations; len(got) != 1 {
		t.Fatalf("reservations=%d, want 1", len(got))
	}
}

func TestReservations_UpdateCheckInDelete(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{})
	res := api.createReservation(t, map[string]any{"guestName": "Frank", "numberOfGuests": 2, "notes": "vegan"})
	path := "/api/reservations/" + res.ID

	rec := api.do(t, http.MethodPatch, path, map[string]any{"guestName": nil}, nil)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	rec = api.do(t, http.MethodPatch, path, map[string]any{"notes": nil, "table": "T9", "numberOfGuests": 3}, nil)
	requireStatus(t, rec, http.StatusOK)
	updated := decodeJSON[reservationResponse](t, rec).Reservation
	if updated.Notes != nil || updated.Table == nil || *updated.Table != "T9" || updated.NumberOfGuests != 3 || updated.Code != res.Code {
		t.Fatalf("unexpected update: %+v", updated)
	}

	rec = api.do(t, http.MethodPost, path+"/check-in", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	checked := decodeJSON[reservationResponse](t, rec).Reservation
	if checked.Status != "checked-in" || checked.CheckedInAt == nil {
		t.Fatalf("unexpected check-in: %+v", checked)
	}

	rec = api.do(t, http.MethodPost, path+"/check-in", nil, nil)
	requireErrorCode(t, rec, http.StatusConflict, "ALREADY_CHECKED_IN")

	rec = api.do(t, http.MethodPatch, path, map[string]any{"status": "pending"}, nil)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "INVALID_STATUS_TRANSITION")

	rec = api.do(t, http.MethodDelete, path, nil, nil)
	requireStatus(t, rec, http.StatusNoContent)
	rec = api.do(t, http.MethodDelete, path, nil, nil)
	requireStatus(t, rec, http.StatusNoContent)
	rec = api.do(t, http.MethodGet, path, nil, nil)
	requireErrorCode(t, rec, http.StatusNotFound, "RESERVATION_NOT_FOUND")
}

func TestReservations_CheckInByScan(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{})
	res := api.createReservation(t, map[string]any{"guestName": "Gina", "numberOfGuests": 1})

	rec := api.do(t, http.MethodPost, "/api/check-in", map[string]any{"scanned": res.PassURL}, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[reservationResponse](t, rec).Reservation; got.ID != res.ID || got.Status != "checked-in" {
		t.Fatalf("unexpected scan result: %+v", got)
	}

	rec = api.do(t, http.MethodPost, "/api/check-in", map[string]any{"scanned": res.Code}, nil)
	requireErrorCode(t, rec, http.StatusConflict, "ALREADY_CHECKED_IN")

	rec = api.do(t, http.MethodPost, "/api/check-in", map[string]any{"scanned": "ZZZ-0000"}, nil)
	requireErrorCode(t, rec, http.StatusNotFound, "RESERVATION_NOT_FOUND")
}

func TestReservations_Stats(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{maxCapacity: 20})
	a := api.createReservation(t, map[string]any{"guestName": "Hal", "numberOfGuests": 3})
	api.createReservation(t, map[string]any{"guestName": "Ivy", "numberOfGuests": 2})

	rec := api.do(t, http.MethodPost, "/api/pass/"+a.Code+"/confirm", map[string]any{
		"mainGuestAttending": true,
		"accompanists":       []map[string]any{{"name": "Jo", "willAttend": true}, {"name": "Kim", "willAttend": false}},
	}, nil)
	requireStatus(t, rec, http.StatusOK)

	rec = api.do(t, http.MethodGet, "/api/reservations/stats", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	st := decodeJSON[reservationStatsDTO](t, rec)
	want := reservationStatsDTO{
		TotalReservations:     2,
		TotalGuests:           5,
		ConfirmedAttendees:    2,
		AvailableSpots:        15,
		MaxCapacity:           20,
		PendingReservations:   1,
		ConfirmedReservations: 1,
	}
	if st != want {
		t.Fatalf("stats: got %+v want %+v", st, want)
	}
}

func TestReservations_Export(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{})
	api.createReservation(t, map[string]any{"guestName": "Smith, John", "numberOfGuests": 2, "accompanistNames": []string{"Jane"}})

	rec := api.do(t, http.MethodGet, "/api/reservations/export", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Fatalf("content type=%q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="reservations-2026-06-01.csv"` {
		t.Fatalf("content disposition=%q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "\uFEFFCode,Guest Name,") || !strings.Contains(body, `"Smith, John"`) {
		t.Fatalf("unexpected csv: %q", body)
	}

	rec = api.do(t, http.MethodGet, "/api/reservations/export?format=xlsx", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader err=%v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Reservations")
	if err != nil || len(rows) != 2 || rows[1][1] != "Smith, John" {
		t.Fatalf("rows=%v err=%v", rows, err)
	}

	rec = api.do(t, http.MethodGet, "/api/reservations/export?format=pdf", nil, nil)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}
