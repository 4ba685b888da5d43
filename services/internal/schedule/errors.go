package schedule

import (
	"fmt"
)

// ParseError reports a header or field that could not be coerced. It aborts
// the run.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("parse header: column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("parse line %d: column %q value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReferenceLookupError reports that a reference list could not be loaded.
type ReferenceLookupError struct {
	List string
	Err  error
}

func (e *ReferenceLookupError) Error() string {
	return fmt.Sprintf("reference lookup %s: %v", e.List, e.Err)
}

func (e *ReferenceLookupError) Unwrap() error { return e.Err }

// DiagnosticKind classifies a non-fatal condition.
type DiagnosticKind string

const (
	ResolutionWarning DiagnosticKind = "resolution_warning"
	DuplicateSkipped  DiagnosticKind = "duplicate_skipped"
	WriteFailure      DiagnosticKind = "write_failure"
)

// Diagnostic is a non-fatal note collected during a run.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Line    int            `json:"line,omitempty"`
	Table   string         `json:"table,omitempty"`
	Message string         `json:"message"`
}
