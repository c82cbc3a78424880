package types

import (
	"errors"
	"fmt"
)

// ErrScoringFailure is wrapped by metric routines that cannot evaluate their input
var ErrScoringFailure = errors.New("scoring failure")

// SchemaError reports a required column that is absent or holds unusable values.
// It is fatal to the call that returns it.
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("table %q: missing required column %q", e.Table, e.Column)
	}
	return fmt.Sprintf("table %q: column %q: %s", e.Table, e.Column, e.Reason)
}

// IsSchemaError reports whether err wraps a *SchemaError
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// DiagnosticKind classifies a non-fatal condition met while processing a session
type DiagnosticKind string

const (
	EmptyInput          DiagnosticKind = "empty_input"
	AlignmentGap        DiagnosticKind = "alignment_gap"
	ScoringFailed       DiagnosticKind = "scoring_failure"
	MissingTimeColumn   DiagnosticKind = "missing_time_column"
	EmptyAfterAlignment DiagnosticKind = "empty_after_alignment"
	UnrecognizedGroup   DiagnosticKind = "unrecognized_group"
)

// Diagnostic records a degraded-but-handled condition for one session
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Session SessionKey     `json:"session"`
	Detail  string         `json:"detail,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("%s: %s", d.Session, d.Kind)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Session, d.Kind, d.Detail)
}
