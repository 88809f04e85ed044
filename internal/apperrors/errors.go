// Package apperrors defines the error taxonomy shared by services and
// handlers. Every expected failure is a tagged type so handlers can map it to
// a stable HTTP status without string matching.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/taihuy1/task-managemet-thesis/internal/models"
)

// NotFoundError covers both a missing record and a record the caller does not
// own, so unauthorized callers cannot probe for existence.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// InvalidTransitionError is raised for any status change outside the
// lifecycle table, including one lost to a concurrent writer.
type InvalidTransitionError struct {
	From models.TaskStatus
	To   models.TaskStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// AccessDeniedError means the caller is authenticated but the role or
// relationship required by the operation is missing.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	if e.Reason == "" {
		return "access denied"
	}
	return e.Reason
}

// ValidationError reports malformed input on a specific field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// ConflictError reports a state conflict, e.g. a duplicate email at
// registration.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// HTTPStatus maps a taxonomy error to its response code. Anything outside the
// taxonomy is an internal error.
func HTTPStatus(err error) int {
	var (
		nf *NotFoundError
		it *InvalidTransitionError
		ad *AccessDeniedError
		ve *ValidationError
		ce *ConflictError
	)
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &it):
		return http.StatusConflict
	case errors.As(err, &ad):
		return http.StatusForbidden
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ce):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// IsExpected reports whether err belongs to the taxonomy (caller error)
// rather than an internal failure.
func IsExpected(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
