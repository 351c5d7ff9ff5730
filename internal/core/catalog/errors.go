// Package catalog resolves the declared service set of each compose project.
package catalog

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrDescriptorNotFound  = errors.New("compose descriptor not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrMalformedDescriptor = errors.New("malformed compose descriptor")
	ErrDescriptorRead      = errors.New("failed to read compose descriptor")
)

// CatalogError wraps descriptor errors with project context. Every cause is
// one of the sentinel errors above so callers can discriminate without
// string matching.
type CatalogError struct {
	Project string
	Path    string
	Message string
	Err     error
}

func (e *CatalogError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("project %s: %s: %s", e.Project, e.Path, e.Message)
	}
	return fmt.Sprintf("project %s: %s", e.Project, e.Message)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// NewCatalogError creates a new CatalogError.
func NewCatalogError(project, path, message string, err error) *CatalogError {
	return &CatalogError{
		Project: project,
		Path:    path,
		Message: message,
		Err:     err,
	}
}
