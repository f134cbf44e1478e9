package apperror

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ValidationError reports every violated field of a request at once.
// Keys are field names (e.g. "start", "end", "attendeesCount", "resource").
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.FieldErrors))
	for k := range e.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.FieldErrors[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

// NewValidationError copies fields so later edits by the caller do not leak in.
func NewValidationError(fields map[string]string) *ValidationError {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return &ValidationError{FieldErrors: cp}
}

// PermissionError means the actor lacks the role or ownership an operation needs.
type PermissionError struct {
	Operation string
	Required  string
	Actual    string
	Reason    string
}

func (e *PermissionError) Error() string {
	if e.Reason != "" {
		return "permission denied: " + e.Reason
	}
	return fmt.Sprintf("permission denied: %s requires %s, actor is %s", e.Operation, e.Required, e.Actual)
}

func (e *PermissionError) HTTPStatus() int { return http.StatusForbidden }

// ConflictError names the active bookings overlapping the requested window.
type ConflictError struct {
	BookingIDs []string
}

func (e *ConflictError) Error() string {
	if len(e.BookingIDs) == 0 {
		return "time slot conflicts with an existing booking"
	}
	return "time slot conflicts with booking(s) " + strings.Join(e.BookingIDs, ", ")
}

func (e *ConflictError) HTTPStatus() int { return http.StatusConflict }

// PolicyError is a business rule rejecting an otherwise well-formed request.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

func (e *PolicyError) HTTPStatus() int { return http.StatusUnprocessableEntity }

// InvalidStateError is an operation attempted on an item in an incompatible
// state. Entity defaults to "booking".
type InvalidStateError struct {
	Entity    string
	Current   string
	Attempted string
}

func (e *InvalidStateError) Error() string {
	entity := e.Entity
	if entity == "" {
		entity = "booking"
	}
	return fmt.Sprintf("cannot %s a %s that is %s", e.Attempted, entity, e.Current)
}

func (e *InvalidStateError) HTTPStatus() int { return http.StatusConflict }
