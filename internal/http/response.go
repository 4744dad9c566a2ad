package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tracker/internal/auth"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps domain errors onto the API status taxonomy: invalid input
// is 422, missing records 404, bad credentials 401, duplicate accounts 409.
// Anything unmapped is a 500 and logged with its request id.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		writeErrorStatus(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeErrorStatus(w, http.StatusNotFound, "entry not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeErrorStatus(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, store.ErrEmailTaken):
		writeErrorStatus(w, http.StatusConflict, "email already registered")
	default:
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldRequestID, r.Context().Value(requestIDKey),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeErrorStatus(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrEmptyDescription,
		core.ErrDescriptionTooLong,
		core.ErrEmptyOwner,
		core.ErrInvalidCategory,
		core.ErrZeroDate,
		auth.ErrMissingFields,
		auth.ErrInvalidEmail,
		auth.ErrWeakPassword,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
