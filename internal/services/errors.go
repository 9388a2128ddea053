package services

import "errors"

// ErrorKind classifies engine failures so handlers can map them onto
// boundary status codes without string matching.
type ErrorKind string

const (
	ErrNotFound              ErrorKind = "not_found"
	ErrInvalidState          ErrorKind = "invalid_state"
	ErrAlreadyClosed         ErrorKind = "already_closed"
	ErrInsufficientBattery   ErrorKind = "insufficient_battery"
	ErrInvalidBattery        ErrorKind = "invalid_battery"
	ErrInvalidInput          ErrorKind = "invalid_input"
	ErrHasActiveTrip         ErrorKind = "has_active_trip"
	ErrHasPendingMaintenance ErrorKind = "has_pending_maintenance"
	ErrStoreUnavailable      ErrorKind = "store_unavailable"
)

// Error is a structured engine failure: a kind plus a human message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the ErrorKind from err, or "" when err is not an engine
// error (store failures bubble up untyped).
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
