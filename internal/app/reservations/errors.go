package reservations

import (
	"errors"
	"net/http"
)

// Kind classifies reservation failures independently of transport.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindCapacityExceeded
	KindNotFound
	KindDuplicateCode
	KindAlreadyCheckedIn
	KindGateway
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Details map[string]any

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// Unwrap exposes the underlying store failure for gateway errors.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// IsKind reports whether err is a reservations *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func validationError(message string, details map[string]any) *Error {
	return &Error{
		Kind:    KindValidation,
		Status:  http.StatusUnprocessableEntity,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Details: details,
	}
}

func invalidTransitionError(from, to string) *Error {
	return &Error{
		Kind:    KindValidation,
		Status:  http.StatusUnprocessableEntity,
		Code:    "INVALID_STATUS_TRANSITION",
		Message: "checked-in reservations cannot change status",
		Details: map[string]any{"from": from, "to": to},
	}
}

func capacityExceededError(requested, available, maxCapacity int) *Error {
	return &Error{
		Kind:    KindCapacityExceeded,
		Status:  http.StatusConflict,
		Code:    "CAPACITY_EXCEEDED",
		Message: "not enough spots left for this reservation",
		Details: map[string]any{
			"requested":      requested,
			"availableSpots": available,
			"maxCapacity":    maxCapacity,
		},
	}
}

func notFoundError(key, value string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Code:    "RESERVATION_NOT_FOUND",
		Message: "reservation not found",
		Details: map[string]any{key: value},
	}
}

func duplicateCodeError(attempts int) *Error {
	return &Error{
		Kind:    KindDuplicateCode,
		Status:  http.StatusServiceUnavailable,
		Code:    "CODE_SPACE_EXHAUSTED",
		Message: "could not allocate a unique invitation code",
		Details: map[string]any{"attempts": attempts},
	}
}

func alreadyCheckedInError(code string) *Error {
	return &Error{
		Kind:    KindAlreadyCheckedIn,
		Status:  http.StatusConflict,
		Code:    "ALREADY_CHECKED_IN",
		Message: "reservation is already checked in",
		Details: map[string]any{"code": code},
	}
}

func gatewayError(cause error) *Error {
	return &Error{
		Kind:    KindGateway,
		Status:  http.StatusBadGateway,
		Code:    "GATEWAY_ERROR",
		Message: cause.Error(),
		cause:   cause,
	}
}
