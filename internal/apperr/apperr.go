// Package apperr provides the unified error taxonomy shared by both
// protocol surfaces (TAXII 2.1 JSON and TAXII 1.x XML).
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error categories produced by the domain and
// service layers. Transport adapters map a Kind to a protocol-specific
// response; no other error shape should cross the service/adapter boundary.
type Kind string

const (
	// InvalidInput marks malformed identifiers, timestamps, UUIDs, URLs,
	// hashes, CIDRs, or JSON.
	InvalidInput Kind = "invalid_input"
	// ConstraintViolation marks a failed STIX object constraint (spec.md §4.1).
	ConstraintViolation Kind = "constraint_violation"
	// NotFound marks a missing entity, or a caller lacking read access to a
	// non-public resource (never distinguished from the client's perspective).
	NotFound Kind = "not_found"
	// Unauthorized marks missing or invalid authentication.
	Unauthorized Kind = "unauthorized"
	// Forbidden marks an authenticated caller lacking permission.
	Forbidden Kind = "forbidden"
	// Conflict marks duplicate registration, a version-chain violation, or an
	// attempt to change an immutable property.
	Conflict Kind = "conflict"
	// Unsupported marks a media type / accept / protocol / version mismatch.
	Unsupported Kind = "unsupported"
	// TooLarge marks a request exceeding the configured size limit.
	TooLarge Kind = "too_large"
	// Internal marks a storage or serialization failure. The underlying
	// error is never surfaced to the client.
	Internal Kind = "internal"
	// Transient marks a lock-acquisition or pool-timeout failure. No code in
	// this module produces it or retries an operation that failed with it.
	Transient Kind = "transient"
)

// Error is the error type produced by domain and service code.
type Error struct {
	Kind    Kind
	Message string
	// Detail is additional context safe to show to an authenticated,
	// legitimate caller (e.g. which property failed a constraint). It is
	// never included for Internal/Transient errors.
	Detail string
	// cause is wrapped but never rendered to a client.
	cause error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of the error with Detail set.
func (e *Error) WithDetail(detail string) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

// Wrap wraps a lower-level error as an Error of the given kind, preserving it
// for errors.Is/errors.As but never for client-facing rendering.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the Kind of err, defaulting to Internal if err is not an
// *Error (or wraps one).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if err == nil {
		return ""
	}
	return Internal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
