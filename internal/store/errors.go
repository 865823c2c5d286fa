package store

import "errors"

// Guard failures surfaced to callers. All are synchronous outcomes of a
// single operation; none are retried by the store.
var (
	// Wallet
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDailyLimitExceeded  = errors.New("daily spending limit exceeded")

	// Inventory
	ErrInsufficientQuantity = errors.New("insufficient quantity available")

	// Token lifecycle
	ErrInvalidState = errors.New("invalid state for requested transition")
	ErrExpired      = errors.New("token has expired")

	// Event registration
	ErrRegistrationClosed = errors.New("registration deadline has passed")
	ErrEventFull          = errors.New("event is full")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrNotRegistered      = errors.New("not registered for this event")
	ErrTooLateToCancel    = errors.New("cannot cancel within 24 hours of event")
)
