package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so callers can branch on semantics
// instead of matching message strings.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindInvalidArgument      Kind = "invalid_argument"
	KindInvalidRunState      Kind = "invalid_run_state"
	KindDualControlViolation Kind = "dual_control_violation"
	KindAlreadyDecided       Kind = "already_decided"
	KindNoPriceFound         Kind = "no_price_found"
	KindDependencyUnavailable Kind = "dependency_unavailable"
	KindInternal             Kind = "internal"
)

// Error is the stable, caller-facing error shape for this core: a
// machine-readable Kind plus a human message, optionally wrapping a
// lower-level cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, &Error{Kind: KindNotFound}) match on Kind alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func NotFound(msg string) *Error                { return newErr(KindNotFound, msg, nil) }
func InvalidArgument(msg string) *Error          { return newErr(KindInvalidArgument, msg, nil) }
func InvalidRunState(msg string) *Error          { return newErr(KindInvalidRunState, msg, nil) }
func DualControlViolation(msg string) *Error     { return newErr(KindDualControlViolation, msg, nil) }
func AlreadyDecided(msg string) *Error           { return newErr(KindAlreadyDecided, msg, nil) }
func NoPriceFound(msg string) *Error             { return newErr(KindNoPriceFound, msg, nil) }
func DependencyUnavailable(msg string, cause error) *Error {
	return newErr(KindDependencyUnavailable, msg, cause)
}
func Internal(msg string) *Error { return newErr(KindInternal, msg, nil) }

// KindOf extracts the Kind of err, returning KindInternal for errors
// that did not originate in this package (programmer error, by
// definition, should be rare and loud).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
