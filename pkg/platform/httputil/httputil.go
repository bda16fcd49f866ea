// Package httputil holds the JSON encoding helpers shared by handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	dErrors "votacao/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteError translates err into a status and envelope. Internal errors
// never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	msg := ""
	if de, ok := dErrors.Is(err); ok {
		code = de.Code
		msg = de.Message
	}
	status := dErrors.ToHTTPStatus(code)
	if status == http.StatusInternalServerError {
		code = dErrors.CodeInternal
		msg = ""
	}
	WriteJSON(w, status, ErrorResponse{Error: string(code), Description: msg})
}

// DecodeJSON decodes a bounded request body into v. An empty body is allowed
// when allowEmpty is set and leaves v untouched.
func DecodeJSON(r *http.Request, v any, allowEmpty bool) error {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return dErrors.New(dErrors.CodeBadRequest, "invalid value for field "+typeErr.Field)
		}
		return dErrors.New(dErrors.CodeBadRequest, "invalid JSON: "+strings.TrimPrefix(err.Error(), "json: "))
	}
	return nil
}
