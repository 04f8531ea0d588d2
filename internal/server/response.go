package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zmachine-ai/zmachine-web/internal/game"
	"github.com/zmachine-ai/zmachine-web/internal/interp"
	"github.com/zmachine-ai/zmachine-web/internal/session"
	"github.com/zmachine-ai/zmachine-web/internal/store"
)

// ErrorResponse is the API error envelope. Clients receive a structured
// message, never a stack trace or a filesystem path.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error message.
type ErrorDetail struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Error: message}})
}

// writeServiceError maps session-service errors onto status codes:
// validation failures are the client's fault, interpreter failures and
// timeouts are server errors with their curated messages. Anything else
// (filesystem errors, wrapped syscall errors) gets a generic body, because
// its text can carry server paths.
func writeServiceError(w http.ResponseWriter, err error) {
	var ierr *interp.InterpreterError
	var terr *interp.TimeoutError
	switch {
	case errors.Is(err, game.ErrUnknownGame):
		writeError(w, http.StatusBadRequest, "Invalid game selection")
	case errors.Is(err, session.ErrEmptyCommand):
		writeError(w, http.StatusBadRequest, "Command cannot be empty")
	case errors.Is(err, session.ErrMissingSession):
		writeError(w, http.StatusBadRequest, "Session ID is required")
	case errors.Is(err, store.ErrInvalidSession):
		writeError(w, http.StatusBadRequest, "Invalid session ID")
	case errors.As(err, &ierr):
		writeError(w, http.StatusInternalServerError, ierr.Message)
	case errors.As(err, &terr):
		writeError(w, http.StatusInternalServerError, terr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
