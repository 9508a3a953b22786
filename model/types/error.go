package types

import (
	"fmt"

	"github.com/viant/changegate/oplog"
)

// The engine rejects every invalid action with one of the typed errors below
// so that callers can render an actionable message and map the failure to a
// transport status without string matching. Use errors.As to detect them.

// ValidationError indicates a failed precondition: missing backup, untested
// change, empty approval chain, malformed payload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError indicates the actor may not perform the action: not the
// active-step approver, or not a DBA-role actor.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return "unauthorized: " + e.Message
}

// NewAuthorizationError creates an AuthorizationError with a formatted message.
func NewAuthorizationError(format string, args ...interface{}) error {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError indicates a transition attempted from an incompatible or
// stale status; the request state was not mutated.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Message
}

// NewConflictError creates a ConflictError with a formatted message.
func NewConflictError(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates an unknown request or file identifier.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// NewNotFoundError creates a NotFoundError for the given entity kind and id.
func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// RemoteOperationError indicates a remote compile/deploy/backup/DB call
// failed or timed out. It always carries the partial operation log collected
// up to the failure.
type RemoteOperationError struct {
	Op  string
	Log []oplog.Entry
	Err error
}

func (e *RemoteOperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s failed", e.Op)
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

// NewRemoteOperationError wraps err together with the partial log of op.
func NewRemoteOperationError(op string, log []oplog.Entry, err error) error {
	return &RemoteOperationError{Op: op, Log: log, Err: err}
}
