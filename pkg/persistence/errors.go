// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrStoreUnavailable indicates the backing store could not be reached.
	// Callers may retry; the previous in-memory snapshot stays valid.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRequestNotFound indicates no workflow request exists for the id.
	ErrRequestNotFound = errors.New("workflow request not found")

	// ErrRequestAlreadyResolved indicates the request left PENDING before
	// this resolution attempt; the transition was not applied again.
	ErrRequestAlreadyResolved = errors.New("workflow request already resolved")

	// ErrEntityNotFound indicates the target entity has no recorded state.
	ErrEntityNotFound = errors.New("entity state not found")

	// ErrRuleNotFound indicates no rule record exists for the code.
	ErrRuleNotFound = errors.New("rule not found")
)

// RequestError wraps workflow-request errors with operation context.
type RequestError struct {
	Op        string // operation being performed (e.g. "GetByID", "Resolve")
	RequestID string
	Err       error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s operation failed for request %s: %v", e.Op, e.RequestID, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRequestError creates a new request error with context.
func NewRequestError(op, requestID string, err error) *RequestError {
	return &RequestError{Op: op, RequestID: requestID, Err: err}
}

// EntityError wraps entity-state errors with operation context.
type EntityError struct {
	Op         string
	EntityType string
	EntityID   string
	Err        error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.EntityType, e.EntityID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

func (e *EntityError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsStoreUnavailable checks if an error indicates an unreachable store.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsRequestNotFound checks if an error indicates a missing workflow request.
func IsRequestNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound)
}

// IsRequestAlreadyResolved checks if an error indicates a lost resolution race.
func IsRequestAlreadyResolved(err error) bool {
	return errors.Is(err, ErrRequestAlreadyResolved)
}

// IsEntityNotFound checks if an error indicates missing entity state.
func IsEntityNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}
