package trace

import (
	"errors"
	"fmt"
)

// Structural errors abort processing of a single instance.
var (
	ErrEmptyTrace     = errors.New("trace has no nodes")
	ErrNodeOutOfRange = errors.New("node id outside index table")
	ErrNodeAbsent     = errors.New("node id not present in log")
	ErrNoIncumbent    = errors.New("no improving incumbent")
)

// TraceError provides structured error information for trace operations.
type TraceError struct {
	Op       string // Operation that failed (e.g., "index", "label")
	Instance string // Instance the trace was built from
	NodeID   int
	HasNode  bool
	Context  string
	Cause    error
}

// Error implements the error interface.
func (e *TraceError) Error() string {
	msg := e.Op
	if e.Instance != "" {
		msg += " " + e.Instance
	}
	if e.HasNode {
		msg += fmt.Sprintf(" node %d", e.NodeID)
	}
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return fmt.Sprintf("%s: %v", msg, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *TraceError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building TraceErrors.
type ErrorBuilder struct {
	err TraceError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: TraceError{Op: op}}
}

// Instance sets the instance name.
func (b *ErrorBuilder) Instance(name string) *ErrorBuilder {
	b.err.Instance = name
	return b
}

// Node sets the node id.
func (b *ErrorBuilder) Node(id int) *ErrorBuilder {
	b.err.NodeID = id
	b.err.HasNode = true
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(format string, args ...any) *ErrorBuilder {
	b.err.Context = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	e := b.err
	return &e
}

// IsStructural reports whether err should abort the current instance.
func IsStructural(err error) bool {
	return errors.Is(err, ErrEmptyTrace) ||
		errors.Is(err, ErrNodeOutOfRange) ||
		errors.Is(err, ErrNodeAbsent)
}
