package model

import (
	"errors"
	"fmt"
)

// ValidationError reports structurally invalid input: a malformed
// constraint or schedule, or a cyclic dependency graph. It is the only
// error class surfaced synchronously from the top-level API; per-unit
// evaluation failures are recorded as result data instead.
type ValidationError struct {
	Rule   string // the violated rule, e.g. "cyclic_dependency"
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Rule, e.Detail)
}

// NewValidationError builds a ValidationError naming the violated rule
func NewValidationError(rule, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrConstraintNotFound is returned for lookups of unknown constraint IDs
	ErrConstraintNotFound = errors.New("constraint not found")

	// ErrCacheUnavailable marks a cache read/write failure. Evaluation
	// degrades to direct compute; this error is logged, never returned to
	// the caller.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrResolutionNotApplicable marks a candidate fix that cannot be
	// applied to the schedule (no alternative venue, no valid date). The
	// planner drops such candidates from the ranked list.
	ErrResolutionNotApplicable = errors.New("resolution not applicable")
)
