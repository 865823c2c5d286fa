package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ewhitmore/campuspay/internal/store"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps the store's sentinel errors to HTTP statuses.
// Anything unrecognized is a 500 with a generic message.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, store.ErrInsufficientBalance):
		writeError(w, http.StatusPaymentRequired, "insufficient wallet balance")
	case errors.Is(err, store.ErrDailyLimitExceeded):
		writeError(w, http.StatusPaymentRequired, "daily spending limit exceeded")
	case errors.Is(err, store.ErrInsufficientQuantity):
		writeError(w, http.StatusConflict, "not enough stock available")
	case errors.Is(err, store.ErrInvalidState):
		writeError(w, http.StatusConflict, "operation not allowed in current state")
	case errors.Is(err, store.ErrExpired):
		writeError(w, http.StatusGone, "token has expired")
	case errors.Is(err, store.ErrRegistrationClosed):
		writeError(w, http.StatusConflict, "registration deadline has passed")
	case errors.Is(err, store.ErrEventFull):
		writeError(w, http.StatusConflict, "event is full")
	case errors.Is(err, store.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already registered for this event")
	case errors.Is(err, store.ErrNotRegistered):
		writeError(w, http.StatusNotFound, "not registered for this event")
	case errors.Is(err, store.ErrTooLateToCancel):
		writeError(w, http.StatusConflict, "too close to the event to cancel")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
