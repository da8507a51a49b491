package lifecycle

import (
	"errors"
	"fmt"

	"github.com/kendall-kelly/repair-shop-api/models"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrCollaborator      = errors.New("collaborator error")
)

// Error is a lifecycle failure of a given kind
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is matches the error's kind
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError reports a missing or malformed field
func ValidationError(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports a target status that is unreachable from the current one
func InvalidTransition(from, to models.RepairStatus) error {
	return &Error{
		Kind:    ErrInvalidTransition,
		Message: fmt.Sprintf("cannot move a repair request from %s to %s", from, to),
	}
}

// Unauthorized reports an actor whose role or identity does not permit the action
func Unauthorized(format string, args ...any) error {
	return &Error{Kind: ErrUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing or ambiguous record
func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

// Conflict reports a write that lost against a concurrent change or a uniqueness rule
func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// CollaboratorError wraps a failure of the data store or another external system
func CollaboratorError(operation string, err error) error {
	return &Error{Kind: ErrCollaborator, Message: "failed to " + operation, Err: err}
}

// Code returns the API error code for err
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrUnauthorized):
		return "FORBIDDEN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	}
	return "DATABASE_ERROR"
}

// Message returns the text that is safe to show to API clients.
// Collaborator causes are kept out of responses and only logged.
func Message(err error) string {
	var lifecycleErr *Error
	if errors.As(err, &lifecycleErr) {
		return lifecycleErr.Message
	}
	return "Internal error"
}
