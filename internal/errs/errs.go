// Package errs defines the error taxonomy shared across the stores, the
// session hub, and the use case layer. Store internals are always wrapped
// before they cross a package boundary so callers never match on driver
// error details.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSiteNotFound is returned by the site directory when no record exists
// for the requested site id.
var ErrSiteNotFound = errors.New("site not found")

// ErrInternal is the generic failure returned to callers when the real
// cause has been logged and must not leak outward.
var ErrInternal = errors.New("internal error")

// ValidationIssue describes a single field-level validation failure.
type ValidationIssue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RequiredIssue builds the issue reported for a missing required field.
func RequiredIssue(field string) ValidationIssue {
	return ValidationIssue{
		Field:   field,
		Code:    "required",
		Message: fmt.Sprintf("%s is required", field),
	}
}

// ValidationError aggregates every validation issue found in one pass.
// It always carries the full set of issues, never just the first.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0].Message
	}
	fields := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		fields = append(fields, issue.Field)
	}
	return fmt.Sprintf("validation failed (%d issues: %s)", len(e.Issues), strings.Join(fields, ", "))
}

// StoreError wraps an underlying store failure with the operation name and
// the affected entity id. The wrapped error is available for logging via
// Unwrap but must never be surfaced verbatim to external callers.
type StoreError struct {
	Op       string
	EntityID string
	Err      error
}

func (e *StoreError) Error() string {
	if e.EntityID == "" {
		return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.EntityID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ProtocolError describes malformed input on the chat channel. It is always
// recoverable, scoped to a single connection, and never tears down the hub.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return e.Reason }
