package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const maxBodyBytes = 1 << 20

// pathUUID binds a uuid path parameter. It writes a 400 and returns false on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (openapi_types.UUID, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "invalid path parameter", map[string]any{name: err.Error()})
		return openapi_types.UUID{}, false
	}
	return id, true
}

func pathString(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "invalid path parameter", map[string]any{name: err.Error()})
		return "", false
	}
	return v, true
}

// queryString binds an optional query parameter; nil means absent.
func queryString(w http.ResponseWriter, r *http.Request, name string) (*string, bool) {
	var v *string
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "invalid query parameter", map[string]any{name: err.Error()})
		return nil, false
	}
	return v, true
}

// decodeBody reads a JSON body into dst. It writes a 422 and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "missing request body"
		}
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg, nil)
		return false
	}
	return true
}
