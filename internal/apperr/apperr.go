// Package apperr defines the shared error taxonomy used at every component
// boundary: Validation, NotFound, RateLimited, Upstream, Transient,
// ModelFailure and Cancelled. Components return typed errors instead of
// panicking so the orchestrator can fold a failure into its reasoning trace
// without losing which component and which kind of failure produced it.
package apperr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error taxonomy from the error-handling design.
type Kind string

const (
	Validation   Kind = "validation"
	NotFound     Kind = "not_found"
	RateLimited  Kind = "rate_limited"
	Upstream     Kind = "upstream"
	Transient    Kind = "transient"
	ModelFailure Kind = "model_failure"
	Cancelled    Kind = "cancelled"
)

// Error is the typed error carried across component boundaries.
type Error struct {
	Kind      Kind
	Component string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Component, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Component, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error attributed to component.
func New(component string, kind Kind, message string) *Error {
	return &Error{Component: component, Kind: kind, Message: message}
}

// Wrap attributes cause to component/kind with an additional message.
func Wrap(component string, kind Kind, message string, cause error) *Error {
	return &Error{Component: component, Kind: kind, Message: message, Cause: cause}
}

// Is reports whether the first *Error found in err's chain has the given
// Kind; an inner *Error wrapped by another *Error is not consulted.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Retryable reports whether the failure is worth retrying at the caller's
// boundary (upstream timeouts/5xx and transient store errors are; validation,
// not-found and rate-limit are not).
func Retryable(err error) bool {
	k := KindOf(err)
	return k == Upstream || k == Transient
}
