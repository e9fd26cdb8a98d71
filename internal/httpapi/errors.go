package httpapi

import (
	"encoding/json"
	"net/http"

	"studiod/internal/installer"
	"studiod/internal/session"
	"studiod/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeResult writes the {success, message} envelope.
func writeResult(w http.ResponseWriter, status int, ok bool, msg string) {
	writeJSON(w, status, types.ResultResponse{Success: ok, Message: msg})
}

// statusForError maps well-known domain errors to HTTP status codes.
// Unknown errors map to 200 so the panel shows the message inline.
func statusForError(err error) int {
	switch {
	case installer.IsAlreadyInProgress(err):
		return http.StatusConflict
	case installer.IsNoComponentsSelected(err), session.IsEmptyName(err), session.IsInvalidName(err):
		return http.StatusBadRequest
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusOK
}

// rejectionReason labels a rejected request for metrics.
func rejectionReason(err error) string {
	switch {
	case installer.IsAlreadyInProgress(err):
		return "already_in_progress"
	case installer.IsNoComponentsSelected(err):
		return "no_components"
	case session.IsEmptyName(err):
		return "empty_name"
	case session.IsInvalidName(err):
		return "invalid_name"
	}
	return ""
}
