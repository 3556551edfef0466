package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"devbook/backend/internal/service/auth"
	"devbook/backend/internal/service/availability"
	"devbook/backend/internal/service/reservations"
	"devbook/backend/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		payload = map[string]any{}
	}
	payload["success"] = status < 400
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeServiceError maps service and store errors to HTTP statuses. Anything
// unrecognized is a 500: the real error goes to the log, the caller gets a
// generic message.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot not found")
	case errors.Is(err, store.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, store.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, store.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot is no longer available")
	case errors.Is(err, store.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email is already registered")
	case errors.Is(err, store.ErrNotBookingOwner):
		writeError(w, http.StatusForbidden, "booking belongs to another user")
	case errors.Is(err, store.ErrAlreadyCancelled):
		writeError(w, http.StatusBadRequest, "booking is already cancelled")
	case errors.Is(err, store.ErrBookingNotCancelled):
		writeError(w, http.StatusBadRequest, "booking must be cancelled first")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("request failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	var rErr *reservations.ValidationError
	var aErr *availability.ValidationError
	var uErr *auth.ValidationError
	return errors.As(err, &rErr) || errors.As(err, &aErr) || errors.As(err, &uErr)
}
