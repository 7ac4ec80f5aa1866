// Package handler translates HTTP to service calls and domain errors back to
// status codes. Handlers stay thin: parsing, the call, the response.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/apperror"
)

// ErrorResponse is the error shape returned by every API endpoint. Code is
// machine-readable and only present for errors clients branch on.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// writeJSON sends a JSON response with the given status code. Headers must
// be complete before the first body write.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status. This is the read-path
// mapping where a missing entity is a 404.
func writeError(w http.ResponseWriter, err error) {
	writeMappedError(w, err, http.StatusNotFound)
}

// writeMutationError is the write-path mapping: a mutation that references a
// missing user, device or reservation is a bad request, not a 404: the URL
// the client hit exists, the payload is what is wrong.
func writeMutationError(w http.ResponseWriter, err error) {
	writeMappedError(w, err, http.StatusBadRequest)
}

func writeMappedError(w http.ResponseWriter, err error, notFoundStatus int) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Unknown error: never leak internals to the client.
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrCollision):
		status = http.StatusBadRequest
		errorType = "reservation_collision"
	case errors.Is(err, apperror.ErrWrongStatus):
		status = http.StatusBadRequest
		errorType = "wrong_status"
	case errors.Is(err, apperror.ErrActiveReservations):
		status = http.StatusBadRequest
		errorType = "active_reservations"
	case errors.Is(err, apperror.ErrNotFound):
		status = notFoundStatus
		errorType = "not_found"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Code:    appErr.Code,
	})
}
