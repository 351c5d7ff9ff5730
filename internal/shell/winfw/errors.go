// Package winfw queries the host firewall policy through PowerShell and
// decodes the result into typed firewall records.
package winfw

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrQueryFailed     = errors.New("host policy query failed")
	ErrMalformedOutput = errors.New("malformed policy query output")
)

// QueryError wraps policy query failures. Any QueryError fails the policy
// gate closed: the run must stop before touching containers.
type QueryError struct {
	Op      string
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError creates a new QueryError.
func NewQueryError(op, message string, err error) *QueryError {
	return &QueryError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
