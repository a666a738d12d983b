package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrInternal
	ErrSlotConflict
	ErrInvalidTransition
	ErrNotEvaluable
	ErrNotificationDelivery
)

// StatusCode maps the error code to an HTTP status for the error middleware.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrNotEvaluable:
		return http.StatusBadRequest
	case ErrSlotConflict, ErrInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// SlotConflict is returned when the storage-level uniqueness guard rejects a
// booking or queue-number insert. Callers should re-query availability and
// retry with a different slot; the conflict is never retried server-side.
func SlotConflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrSlotConflict,
		Message: message,
		Err:     err,
	}
}

// InvalidTransition is returned for any appointment or queue state change
// outside the allowed edge set.
func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("illegal transition from %s to %s", from, to),
	}
}

// NotEvaluable is returned when no reference-range bucket resolves for an
// observation. The observation is still stored, flagged for manual review.
func NotEvaluable(parameter string) *AppError {
	return &AppError{
		Code:    ErrNotEvaluable,
		Message: fmt.Sprintf("no reference range resolves for %s", parameter),
	}
}

// NotificationDelivery wraps a failed hand-off to the notification
// collaborator. Logged, never propagated to the clinical write path.
func NotificationDelivery(err error) *AppError {
	return &AppError{
		Code:    ErrNotificationDelivery,
		Message: "notification delivery failed",
		Err:     err,
	}
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
