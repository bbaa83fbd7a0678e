// Package services provides the workflow lifecycle operations and their
// standardized error types.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrTriggerTypeRequired  = errors.New("workflow trigger type is required")

	// State errors (409 Conflict).
	ErrInvalidTransition  = errors.New("invalid workflow status transition")
	ErrCannotModifyActive = errors.New("cannot modify a non-draft workflow")
	ErrCannotDeleteActive = errors.New("only draft workflows can be deleted")

	// ErrWorkflowArchived indicates a trigger attempt on an archived
	// workflow. Archived workflows refuse new triggers; the state is terminal.
	ErrWorkflowArchived = errors.New("workflow is archived")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrTriggerTypeRequired)
}

// IsConflictError checks if an error is a state conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrCannotModifyActive) ||
		errors.Is(err, ErrCannotDeleteActive)
}

// IsInvalidState checks if an error indicates a trigger attempt on a
// workflow whose lifecycle state refuses it.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrWorkflowArchived)
}
