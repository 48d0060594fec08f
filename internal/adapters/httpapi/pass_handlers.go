package httpapi

import (
	"net/http"
	"strings"

	"github.com/weddingpass/pass-api/internal/app/messages"
	"github.com/weddingpass/pass-api/internal/app/reservations"
	"github.com/weddingpass/pass-api/internal/domain"
)

// Public routes used by invitees holding a pass code.

func (s *Server) GetEvent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, eventFromDomain(s.Reservations.Event()))
}

func (s *Server) GetPass(w http.ResponseWriter, r *http.Request) {
	code, ok := pathString(w, r, "code")
	if !ok {
		return
	}
	res, found, err := s.Reservations.GetByCode(r.Context(), code)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "RESERVATION_NOT_FOUND", "reservation not found", map[string]any{"code": domain.NormalizeCode(code)})
		return
	}
	writeJSON(w, http.StatusOK, s.passFromDomain(res))
}

func (s *Server) ConfirmPass(w http.ResponseWriter, r *http.Request) {
	code, ok := pathString(w, r, "code")
	if !ok {
		return
	}
	var body confirmRequest
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := s.Reservations.Confirm(r.Context(), code, reservations.ConfirmInput{
		MainGuestAttending: body.MainGuestAttending,
		Accompanists:       body.Accompanists,
	})
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, s.passFromDomain(res))
}

// CreatePassMessage posts a message linked to the pass's reservation. The guest name
// defaults to the reservation's main guest.
func (s *Server) CreatePassMessage(w http.ResponseWriter, r *http.Request) {
	if !s.Reservations.Event().MessageWallEnabled {
		writeError(w, r, http.StatusForbidden, "MESSAGE_WALL_DISABLED", "the message wall is disabled", nil)
		return
	}
	code, ok := pathString(w, r, "code")
	if !ok {
		return
	}
	var body createPassMessageRequest
	if !decodeBody(w, r, &body) {
		return
	}

	res, found, err := s.Reservations.GetByCode(r.Context(), code)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "RESERVATION_NOT_FOUND", "reservation not found", map[string]any{"code": domain.NormalizeCode(code)})
		return
	}

	idem, err := s.newIdempotentCall(r, domain.SubjectID("pass:"+res.Code), "/api/pass/{code}/messages", body)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	if idem.replay(w, r) {
		return
	}

	name := res.GuestName
	if body.GuestName != nil && strings.TrimSpace(*body.GuestName) != "" {
		name = *body.GuestName
	}
	m, err := s.Messages.Create(r.Context(), messages.CreateInput{
		ReservationID: res.ID,
		GuestName:     name,
		Message:       body.Message,
		MessageType:   domain.MessageType(body.MessageType),
		IsPublic:      body.IsPublic,
	})
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	resp := messageResponse{Message: messageFromDomain(m)}
	idem.store(r, http.StatusCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// ListPublicMessages serves the message wall. A disabled wall is empty.
func (s *Server) ListPublicMessages(w http.ResponseWriter, r *http.Request) {
	out := publicMessagesResponse{Messages: []publicMessageDTO{}}
	if !s.Reservations.Event().MessageWallEnabled {
		writeJSON(w, http.StatusOK, out)
		return
	}
	ms, err := s.Messages.GetPublicMessages(r.Context())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	for _, m := range ms {
		out.Messages = append(out.Messages, publicMessageDTO{
			ID:          string(m.ID),
			GuestName:   m.GuestName,
			Message:     m.Message,
			MessageType: string(m.MessageType),
			CreatedAt:   m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
