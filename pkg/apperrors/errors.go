// Package apperrors defines the error kinds raised by the workflow core.
// Each kind carries a stable code and an HTTP status so the REST layer can
// translate errors without inspecting messages.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is implemented by every typed error in this package.
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// NotFoundError indicates a referenced resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }
func (e *NotFoundError) Code() string    { return "NOT_FOUND" }

// NewNotFound creates a NotFoundError for a resource/id pair.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AccessDeniedError indicates the actor is not allowed to touch the resource:
// either a company mismatch without the privileged override role, or a
// non-privileged actor attempting cross-company routing.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("access denied: %s", e.Reason)
	}
	return "access denied"
}

func (e *AccessDeniedError) HTTPStatus() int { return http.StatusForbidden }
func (e *AccessDeniedError) Code() string    { return "ACCESS_DENIED" }

// NewAccessDenied creates an AccessDeniedError with a reason.
func NewAccessDenied(reason string) *AccessDeniedError {
	return &AccessDeniedError{Reason: reason}
}

// ValidationError indicates required input is missing or unresolvable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }
func (e *ValidationError) Code() string    { return "VALIDATION_ERROR" }

// NewValidation creates a ValidationError for a field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidStateError indicates the operation is not permitted in the
// resource's current lifecycle state.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Message)
}

func (e *InvalidStateError) HTTPStatus() int { return http.StatusConflict }
func (e *InvalidStateError) Code() string    { return "INVALID_STATE" }

// NewInvalidState creates an InvalidStateError.
func NewInvalidState(message string) *InvalidStateError {
	return &InvalidStateError{Message: message}
}

// GetHTTPStatus maps an error to its HTTP status, defaulting to 500 for
// errors raised outside this package.
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetCode maps an error to its stable code, defaulting to INTERNAL_ERROR.
func GetCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "INTERNAL_ERROR"
}
