package httpapi

import (
	"net/http"
)

func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	if s.Auth == nil {
		writeError(w, r, http.StatusNotFound, "SIGN_IN_DISABLED", "sign-in is disabled in dev auth mode", nil)
		return
	}
	var body signInRequest
	if !decodeBody(w, r, &body) {
		return
	}
	sess, err := s.Auth.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, signInResponse{Token: sess.Token, Session: sessionFromApp(sess)})
}

// GetSession reports the caller's session. Dev subjects have no email or expiry.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	token, ok := SessionTokenFromContext(r.Context())
	if s.Auth == nil || !ok {
		sub, _ := SubjectFromContext(r.Context())
		writeJSON(w, http.StatusOK, sessionDTO{UserID: sub})
		return
	}
	sess, err := s.Auth.Session(r.Context(), token)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionFromApp(sess))
}

func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	token, ok := SessionTokenFromContext(r.Context())
	if s.Auth != nil && ok {
		if err := s.Auth.SignOut(r.Context(), token); err != nil {
			writeAppError(w, r, s.log, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
