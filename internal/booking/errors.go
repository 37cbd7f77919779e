// Package booking implements the reservation capacity and conflict engine:
// pure interval/capacity arithmetic, the reservation state machine, the
// orchestrating service and the background expiration sweeper. Persistence
// is reached through the narrow Store interface defined in store.go so the
// engine can be exercised against an in-memory store in tests.
package booking

import (
    "errors"
    "fmt"
)

// Kind classifies a business failure so the API layer can map it to a
// machine-readable reason code and status without string matching.
type Kind string

const (
    // KindValidation marks malformed input: a bad window, a non-positive
    // deposit amount, an ineligible customer.
    KindValidation Kind = "validation"
    // KindNotFound marks a missing reservation, model, unit or customer.
    // A tenant mismatch is reported as not-found for isolation.
    KindNotFound Kind = "not_found"
    // KindConflict marks an overlapping booking for a specific unit.
    KindConflict Kind = "conflict"
    // KindCapacity marks an exhausted guaranteed or regular ceiling.
    KindCapacity Kind = "capacity_exceeded"
    // KindIllegalState marks a transition attempted from a state that
    // forbids it.
    KindIllegalState Kind = "illegal_state"
    // KindInternal marks wrapped infrastructure failures. Store errors are
    // never surfaced verbatim; they are wrapped into this kind.
    KindInternal Kind = "internal"
)

// Error is the typed error returned by every service operation. It carries
// the taxonomy kind, a human-readable message and an optional cause.
type Error struct {
    Kind Kind
    Msg  string
    Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
    if e.Err != nil {
        return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
    }
    return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// Validationf builds a validation error.
func Validationf(format string, args ...interface{}) *Error {
    return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...interface{}) *Error {
    return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflictf builds a conflict error.
func Conflictf(format string, args ...interface{}) *Error {
    return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Capacityf builds a capacity-exceeded error.
func Capacityf(format string, args ...interface{}) *Error {
    return &Error{Kind: KindCapacity, Msg: fmt.Sprintf(format, args...)}
}

// IllegalStatef builds an illegal-state error.
func IllegalStatef(format string, args ...interface{}) *Error {
    return &Error{Kind: KindIllegalState, Msg: fmt.Sprintf(format, args...)}
}

// Internal wraps an infrastructure error so callers never see raw store
// failures.
func Internal(msg string, err error) *Error {
    return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf extracts the taxonomy kind from an error chain. Errors that do not
// carry a *Error are classified as internal.
func KindOf(err error) Kind {
    var be *Error
    if errors.As(err, &be) {
        return be.Kind
    }
    return KindInternal
}
