package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/weddingpass/pass-api/internal/ports/out/events"
)

func TestPass_GetAndConfirm(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{})
	res := api.createReservation(t, map[string]any{"guestName": "Lena", "numberOfGuests": 2, "notes": "admin only"})

	rec := api.do(t, http.MethodGet, "/api/event", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[eventDTO](t, rec); got.CoupleNames != "Ana & Luis" || !got.MessageWallEnabled {
		t.Fatalf("event=%+v", got)
	}

	rec = api.do(t, http.MethodGet, "/api/pass/"+res.Code, nil, nil)
	requireStatus(t, rec, http.StatusOK)
	pass := decodeJSON[passResponse](t, rec)
	if pass.Reservation.GuestName != "Lena" || pass.PassURL != res.PassURL || pass.Event.VenueName != "Hacienda" {
		t.Fatalf("pass=%+v", pass)
	}
	if strings.Contains(rec.Body.String(), "admin only") {
		t.Fatalf("pass view leaked admin notes: %s", rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, "/api/pass/ZZZ-0000", nil, nil)
	requireErrorCode(t, rec, http.StatusNotFound, "RESERVATION_NOT_FOUND")

	rec = api.do(t, http.MethodPost, "/api/pass/"+res.Code+"/confirm", map[string]any{
		"mainGuestAttending": true,
		"accompanists":       []map[string]any{{"name": "A", "willAttend": true}, {"name": "B", "willAttend": true}},
	}, nil)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	rec = api.do(t, http.MethodPost, "/api/pass/"+res.Code+"/confirm", map[string]any{
		"mainGuestAttending": false,
		"accompanists":       []map[string]any{{"name": "Max", "willAttend": true}},
	}, nil)
	requireStatus(t, rec, http.StatusOK)
	pass = decodeJSON[passResponse](t, rec)
	if pass.Reservation.Status != "confirmed" || pass.Reservation.MainGuestAttending || len(pass.Reservation.Accompanists) != 1 {
		t.Fatalf("confirmed pass=%+v", pass.Reservation)
	}

	types := api.rec.Types()
	if types[len(types)-1] != events.ReservationConfirmed {
		t.Fatalf("events=%v", types)
	}
}

func TestPass_MessagesAndWall(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{})
	res := api.createReservation(t, map[string]any{"guestName": "Mia", "numberOfGuests": 1})
	path := "/api/pass/" + res.Code + "/messages"

	rec := api.do(t, http.MethodPost, path, map[string]any{"message": "Congratulations!"}, nil)
	requireStatus(t, rec, http.StatusCreated)
	m := decodeJSON[messageResponse](t, rec).Message
	if m.GuestName != "Mia" || m.ReservationID != res.ID || m.MessageType != "wishes" || !m.IsPublic || m.IsBlocked {
		t.Fatalf("message=%+v", m)
	}

	api.clk.Advance(1)
	private := false
	rec = api.do(t, http.MethodPost, path, map[string]any{"message": "for the couple only", "isPublic": private, "messageType": "advice"}, nil)
	requireStatus(t, rec, http.StatusCreated)

	rec = api.do(t, http.MethodPost, path, map[string]any{"message": "   "}, nil)
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	rec = api.do(t, http.MethodGet, "/api/messages/public", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	wall := decodeJSON[publicMessagesResponse](t, rec).Messages
	if len(wall) != 1 || wall[0].ID != m.ID {
		t.Fatalf("wall=%+v", wall)
	}

	rec = api.do(t, http.MethodPost, "/api/messages/"+m.ID+"/toggle-blocked", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[messageResponse](t, rec).Message; !got.IsBlocked {
		t.Fatalf("expected blocked message")
	}
	rec = api.do(t, http.MethodGet, "/api/messages/public", nil, nil)
	if wall := decodeJSON[publicMessagesResponse](t, rec).Messages; len(wall) != 0 {
		t.Fatalf("wall after block=%+v", wall)
	}

	rec = api.do(t, http.MethodGet, "/api/reservations/"+res.ID+"/messages", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[messagesResponse](t, rec).Messages; len(got) != 2 {
		t.Fatalf("reservation messages=%d", len(got))
	}
}

func TestPass_Message_IdempotencyReplay(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{})
	res := api.createReservation(t, map[string]any{"guestName": "Nia", "numberOfGuests": 1})
	path := "/api/pass/" + res.Code + "/messages"
	key := map[string]string{"Idempotency-Key": "msg-1"}

	first := api.do(t, http.MethodPost, path, map[string]any{"message": "Hi"}, key)
	requireStatus(t, first, http.StatusCreated)
	second := api.do(t, http.MethodPost, path, map[string]any{"message": "Hi"}, key)
	requireStatus(t, second, http.StatusCreated)
	if decodeJSON[messageResponse](t, first).Message.ID != decodeJSON[messageResponse](t, second).Message.ID {
		t.Fatalf("replay created a second message")
	}
}

func TestPass_WallDisabled(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testOptions{wallDisabled: true})
	res := api.createReservation(t, map[string]any{"guestName": "Omar", "numberOfGuests": 1})

	rec := api.do(t, http.MethodPost, "/api/pass/"+res.Code+"/messages", map[string]any{"message": "Hi"}, nil)
	requireErrorCode(t, rec, http.StatusForbidden, "MESSAGE_WALL_DISABLED")

	rec = api.do(t, http.MethodGet, "/api/messages/public", nil, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeJSON[publicMessagesResponse](t, rec).Messages; len(got) != 0 {
		t.Fatalf("wall=%+v", got)
	}
}
