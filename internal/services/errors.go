package services

import (
	"errors"
	"fmt"

	"github.com/lagoonresort/reservation-backend/internal/database"
)

// ErrorKind classifies a service failure for the HTTP layer
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindInternal     ErrorKind = "internal"
)

// ServiceError is the error type every service returns
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ValidationError reports bad input (400)
func ValidationError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity (404)
func NotFoundError(entity string, id interface{}) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", entity, id)}
}

// ConflictError reports a uniqueness or state clash (409)
func ConflictError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// UnauthorizedError reports missing or bad credentials (401)
func UnauthorizedError(message string) *ServiceError {
	return &ServiceError{Kind: KindUnauthorized, Message: message}
}

// ForbiddenError reports a caller that may not perform the action (403)
func ForbiddenError(message string) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Message: message}
}

// InternalError wraps an unexpected failure (500). The message is logged, not returned to clients.
func InternalError(message string, err error) *ServiceError {
	return &ServiceError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// fromRepository translates repository sentinels for an entity
func fromRepository(entity, action string, err error) error {
	switch {
	case errors.Is(err, database.ErrDuplicate):
		return ConflictError("%s already exists", entity)
	case errors.Is(err, database.ErrReferenced):
		return ConflictError("%s is still referenced by other records", entity)
	case errors.Is(err, database.ErrOverlap):
		return ConflictError("room is already booked for the selected dates")
	}
	return InternalError(fmt.Sprintf("failed to %s %s", action, entity), err)
}
