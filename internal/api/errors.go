package api

import (
	"encoding/json"
	"net/http"
)

// Error is the body of every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Field names the rejected input ("from", "to", "region") on
	// validation errors when it is known.
	Field string `json:"field,omitempty"`
}

// Error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeInternal    = "internal_error"
	ErrCodeValidation  = "validation_error"
	ErrCodeUnavailable = "unavailable"
)

// codeStatus maps each error code to its HTTP status.
var codeStatus = map[string]int{
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeUnavailable: http.StatusServiceUnavailable,
	ErrCodeInternal:    http.StatusInternalServerError,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // the client may already be gone
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes e, filling Status from Code.
func writeError(w http.ResponseWriter, e Error) {
	if e.Status == 0 {
		e.Status = codeStatus[e.Code]
	}
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	writeJSON(w, e.Status, e)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, Error{Code: ErrCodeBadRequest, Message: message})
}

// writeValidation rejects an unknown unit or region. field may be empty.
func writeValidation(w http.ResponseWriter, field string, err error) {
	writeError(w, Error{Code: ErrCodeValidation, Message: err.Error(), Field: field})
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, Error{Code: ErrCodeNotFound, Message: message})
}

func writeUnavailable(w http.ResponseWriter, message string) {
	writeError(w, Error{Code: ErrCodeUnavailable, Message: message})
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, Error{Code: ErrCodeInternal, Message: message})
}
