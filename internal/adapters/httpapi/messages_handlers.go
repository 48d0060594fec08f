package httpapi

import (
	"net/http"

	"github.com/weddingpass/pass-api/internal/domain"
)

func (s *Server) ListMessages(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Messages.GetAll(r.Context())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messagesFromDomain(ms))
}

func (s *Server) ListReservationMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	ms, err := s.Messages.GetByReservationID(r.Context(), domain.ReservationID(id.String()))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messagesFromDomain(ms))
}

func (s *Server) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	m, found, err := s.Messages.GetByID(r.Context(), domain.MessageID(id.String()))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "MESSAGE_NOT_FOUND", "message not found", map[string]any{"id": id.String()})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: messageFromDomain(m)})
}

func (s *Server) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body updateMessageRequest
	if !decodeBody(w, r, &body) {
		return
	}
	in, bad := body.toInput()
	if bad != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid message update", bad)
		return
	}
	m, err := s.Messages.Update(r.Context(), domain.MessageID(id.String()), in)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: messageFromDomain(m)})
}

func (s *Server) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Messages.Delete(r.Context(), domain.MessageID(id.String())); err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ToggleMessageBlocked(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	m, err := s.Messages.ToggleBlocked(r.Context(), domain.MessageID(id.String()))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: messageFromDomain(m)})
}

func (s *Server) GetMessageStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Messages.GetStats(r.Context())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageStatsDTO{
		Total:   st.Total,
		Public:  st.Public,
		Private: st.Private,
		Blocked: st.Blocked,
		Active:  st.Active,
	})
}
