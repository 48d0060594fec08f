package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/weddingpass/pass-api/internal/app/auth"
	"github.com/weddingpass/pass-api/internal/app/messages"
	"github.com/weddingpass/pass-api/internal/app/reservations"
)

type errorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er errorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestID = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAppError maps application errors to the error envelope. Anything unrecognised is a 500.
func writeAppError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if re := (*reservations.Error)(nil); errors.As(err, &re) {
		if re.Status >= http.StatusInternalServerError {
			log.Error("reservation store failure", zap.String("code", re.Code), zap.Error(err))
		}
		writeError(w, r, re.Status, re.Code, re.Message, re.Details)
		return
	}
	if me := (*messages.Error)(nil); errors.As(err, &me) {
		if me.Status >= http.StatusInternalServerError {
			log.Error("message store failure", zap.String("code", me.Code), zap.Error(err))
		}
		writeError(w, r, me.Status, me.Code, me.Message, me.Details)
		return
	}
	if ae := (*auth.Error)(nil); errors.As(err, &ae) {
		if ae.Status >= http.StatusInternalServerError {
			log.Error("session store failure", zap.Error(err))
		}
		writeError(w, r, ae.Status, ae.Code, ae.Message, nil)
		return
	}
	log.Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
