// Package vfserrors provides the structured error kinds used throughout the
// S3 virtual filesystem adapter.
package vfserrors

import (
	"fmt"
	"time"
)

// Kind identifies the class of failure a VFSError represents. The retry
// decorator classifies errors exclusively by Kind.
type Kind string

const (
	InvalidArgument    Kind = "INVALID_ARGUMENT"
	NotFound           Kind = "NOT_FOUND"
	OutOfRange         Kind = "OUT_OF_RANGE"
	FailedPrecondition Kind = "FAILED_PRECONDITION"
	Internal           Kind = "INTERNAL"
	Unavailable        Kind = "UNAVAILABLE"
	DeadlineExceeded   Kind = "DEADLINE_EXCEEDED"
	Unknown            Kind = "UNKNOWN"
	Aborted            Kind = "ABORTED"
)

// VFSError is the error type returned by every component of the adapter.
type VFSError struct {
	Kind      Kind
	Message   string
	Component string
	Operation string
	Cause     error
	Timestamp time.Time
}

func (e *VFSError) Error() string {
	if e.Component != "" && e.Operation != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Kind, e.Message)
	}
	if e.Component != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *VFSError) Unwrap() error {
	return e.Cause
}

// Is reports equality by Kind, so errors.Is(err, vfserrors.New(vfserrors.NotFound, ""))
// matches any NotFound error regardless of message.
func (e *VFSError) Is(target error) bool {
	t, ok := target.(*VFSError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a VFSError of the given kind.
func New(kind Kind, message string) *VFSError {
	return &VFSError{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) *VFSError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap constructs a VFSError of the given kind with an underlying cause.
func Wrap(kind Kind, cause error, message string) *VFSError {
	e := New(kind, message)
	e.Cause = cause
	return e
}

func (e *VFSError) WithComponent(component string) *VFSError {
	e.Component = component
	return e
}

func (e *VFSError) WithOperation(operation string) *VFSError {
	e.Operation = operation
	return e
}

// KindOf extracts the Kind of err, defaulting to Unknown when err is nil-safe
// but not a *VFSError (e.g. an unmapped SDK error slipped through).
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if ve, ok := err.(*VFSError); ok {
		return ve.Kind
	}
	return Unknown
}

// IsKind reports whether KindOf(err) is kind, so a plain non-VFSError error
// matches Unknown.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
