package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classifying failures across the pipeline. Wrap tags an
// error with one of these so callers can route on errors.Is without
// parsing messages.
var (
	// ErrConnector covers an unreachable or malformed agency source.
	// Recoverable by retrying the whole run later; never retried mid-run.
	ErrConnector = errors.New("connector error")
	// ErrStore covers persistence-tier failures; aborts the current
	// run or query and is surfaced, not swallowed.
	ErrStore = errors.New("store error")
	// ErrValidation covers malformed caller or source input.
	ErrValidation = errors.New("validation error")
	// ErrAmbiguousInput marks a request carrying no usable identifier.
	ErrAmbiguousInput = errors.New("no usable identifier in request")
	// ErrStepExecution marks a failed workflow step.
	ErrStepExecution = errors.New("step execution error")
	// ErrNotFound marks a missing required resource. The ordinary
	// "no recalls matched" case is a result value, never this error.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks an operation that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrTransient is the fallback marker for unclassified failures.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Message strips the sentinel prefix from a wrapped error, yielding the
// human-readable remainder for run records and workflow responses.
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	for _, marker := range []error{
		ErrConnector, ErrStore, ErrValidation, ErrAmbiguousInput,
		ErrStepExecution, ErrNotFound, ErrTimeout, ErrTransient,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(text, prefix) {
			return strings.TrimPrefix(text, prefix)
		}
	}
	return text
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
