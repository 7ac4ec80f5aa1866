// Package apperror defines the domain error taxonomy shared by services,
// repositories and handlers.
//
// Every failed business check raises exactly one of these conditions; the
// HTTP layer maps them to status codes with errors.Is, so services stay
// transport-agnostic. All of them are expected, recoverable-by-caller
// conditions; none is process-fatal.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers the NotFound family: user, device or reservation absent.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is raised when the requester's identity does not match
	// the required owner/creator, and when a directory call fails during a
	// profile operation (all upstream fetch failures collapse to this).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation marks malformed input (bad pagination values, empty fields).
	ErrValidation = errors.New("validation error")
	// ErrCollision: the requested date range overlaps an active reservation.
	ErrCollision = errors.New("reservation collision")
	// ErrWrongStatus: the reservation is not in a state that allows the
	// requested transition.
	ErrWrongStatus = errors.New("reservation wrong status")
	// ErrActiveReservations: the device cannot be deleted while it has
	// active reservations.
	ErrActiveReservations = errors.New("device has active reservations")
)

// AppError carries a sentinel plus human- and machine-readable detail.
type AppError struct {
	Err     error  // sentinel, checked via errors.Is
	Message string // human-readable description
	Field   string // optional: input field causing a validation error
	Code    string // optional: machine-readable code surfaced in the HTTP body
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// UserNotFound reports an absent user, looked up by username.
func UserNotFound(username string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("user not found with username %s", username),
	}
}

// DeviceNotFound reports an absent device.
func DeviceNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("device not found with id %s", id),
	}
}

// ReservationNotFound reports an absent reservation.
func ReservationNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("reservation not found with id %s", id),
	}
}

// Unauthorized reports an identity/ownership mismatch.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// ValidationFailed reports malformed input on a named field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// ReservationCollision reports a date-range overlap with an active reservation.
func ReservationCollision() *AppError {
	return &AppError{
		Err:     ErrCollision,
		Message: "reservation date collision",
	}
}

// ReservationWrongStatus reports an illegal status transition attempt.
func ReservationWrongStatus(current string) *AppError {
	return &AppError{
		Err:     ErrWrongStatus,
		Message: fmt.Sprintf("reservation status %s does not allow this transition", current),
	}
}

// DeviceWithActiveReservations refuses device deletion while active
// reservations exist. The Code is part of the external API contract;
// clients branch on it.
func DeviceWithActiveReservations(id string) *AppError {
	return &AppError{
		Err:     ErrActiveReservations,
		Message: fmt.Sprintf("device %s has some active reservations", id),
		Code:    "DEVICE_WITH_ACTIVE_RESERVATIONS",
	}
}
