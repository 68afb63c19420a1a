// Package workflow provides standardized error types for the approval
// workflow engine.
package workflow

import (
	"errors"
	"fmt"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
)

// Business logic errors. These indicate terminal client errors (4xx class)
// and are never retried automatically.
var (
	// Validation errors (400).
	ErrEntityTypeRequired = errors.New("entity type is required")
	ErrEntityIDRequired   = errors.New("entity id is required")
	ErrToStateRequired    = errors.New("target state is required")
	ErrRequesterRequired  = errors.New("requester id is required")
	ErrApproverRequired   = errors.New("approver id is required")

	// Authorization errors (403).
	ErrRoleNotAllowed = errors.New("role is not allowed to resolve this request")

	// State conflicts (409).
	ErrAlreadyResolved = persistence.ErrRequestAlreadyResolved

	// Missing targets (404).
	ErrRequestNotFound = persistence.ErrRequestNotFound
	ErrEntityNotFound  = persistence.ErrEntityNotFound
)

// EngineError wraps workflow engine errors with operation context.
type EngineError struct {
	Op        string
	RequestID string
	Err       error
}

func (e *EngineError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: request %s: %v", e.Op, e.RequestID, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func (e *EngineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEntityTypeRequired) ||
		errors.Is(err, ErrEntityIDRequired) ||
		errors.Is(err, ErrToStateRequired) ||
		errors.Is(err, ErrRequesterRequired) ||
		errors.Is(err, ErrApproverRequired)
}

// IsForbidden checks if an error should map to HTTP 403.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrRoleNotAllowed)
}

// IsConflict checks if an error should map to HTTP 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyResolved)
}

// IsNotFound checks if an error should map to HTTP 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) || errors.Is(err, ErrEntityNotFound)
}
