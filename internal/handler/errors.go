package handler

import (
	"errors"
	"net/http"

	"github.com/ticketgrid/ticketgrid/internal/model"
)

// Machine-readable error codes carried in the JSON envelope so clients can
// branch without parsing messages.
const (
	codeInvalidRequest           = "invalid_request"
	codeNotFound                 = "not_found"
	codeEventNotBookable         = "event_not_bookable"
	codeEventSoldOut             = "event_sold_out"
	codeInsufficientAvailability = "insufficient_availability"
	codePerRequestLimit          = "per_request_limit_exceeded"
	codePerUserLimit             = "per_user_limit_exceeded"
	codeUnauthorized             = "unauthorized"
	codeAlreadyFinalized         = "already_finalized"
	codeInvalidStatusTransition  = "invalid_status_transition"
	codeInvalidTransition        = "invalid_transition"
	codeConcurrencyConflict      = "concurrency_conflict"
	codeStorageUnavailable       = "storage_unavailable"
	codeInternalError            = "internal_error"
)

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code})
}

func writeBadBody(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body: "+err.Error())
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// The message is the error text itself; InsufficientAvailability keeps the
// remaining count in it so clients can offer a reduced quantity.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, model.ErrEventNotBookable):
		writeError(w, http.StatusUnprocessableEntity, codeEventNotBookable, err.Error())
	case errors.Is(err, model.ErrEventSoldOut):
		writeError(w, http.StatusConflict, codeEventSoldOut, err.Error())
	case errors.Is(err, model.ErrInsufficientAvailability):
		writeError(w, http.StatusConflict, codeInsufficientAvailability, err.Error())
	case errors.Is(err, model.ErrPerRequestLimitExceeded):
		writeError(w, http.StatusConflict, codePerRequestLimit, err.Error())
	case errors.Is(err, model.ErrPerUserLimitExceeded):
		writeError(w, http.StatusConflict, codePerUserLimit, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		writeError(w, http.StatusForbidden, codeUnauthorized, err.Error())
	case errors.Is(err, model.ErrAlreadyFinalized):
		writeError(w, http.StatusConflict, codeAlreadyFinalized, err.Error())
	case errors.Is(err, model.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, codeInvalidStatusTransition, err.Error())
	case errors.Is(err, model.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, model.ErrConcurrencyConflict):
		writeError(w, http.StatusConflict, codeConcurrencyConflict, err.Error())
	case errors.Is(err, model.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeStorageUnavailable, "storage unavailable, try again later")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
