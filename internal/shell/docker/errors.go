package docker

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrConnectionFailed    = errors.New("docker connection failed")
	ErrCommandFailed       = errors.New("docker command failed")
	ErrNetworkCreateFailed = errors.New("network create failed")
	ErrPruneFailed         = errors.New("image prune failed")
	ErrTimeout             = errors.New("operation timed out")
)

// RuntimeError wraps runtime boundary failures with context. Message holds
// any captured stderr text so the caller can log diagnostics without
// re-running the command.
type RuntimeError struct {
	Op      string // Operation that failed
	Entity  string // Entity type (container, network, image, compose)
	ID      string // Entity ID or name if applicable
	Message string
	Err     error
}

func (e *RuntimeError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %s", e.Op, e.Entity, e.ID, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(op, entity, id, message string, err error) *RuntimeError {
	return &RuntimeError{
		Op:      op,
		Entity:  entity,
		ID:      id,
		Message: message,
		Err:     err,
	}
}
