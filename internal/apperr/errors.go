// Package apperr carries the typed error taxonomy shared by the store and
// API layers. Classification is structural: callers branch on the Kind,
// never on message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind tags an error with its taxonomy class.
type Kind int

const (
	// KindUnexpected is a store/transaction/rendering failure. Surfaced to
	// callers with a generic message only.
	KindUnexpected Kind = iota
	// KindValidation is malformed or out-of-range input.
	KindValidation
	// KindNotFound means a referenced entity is absent.
	KindNotFound
	// KindConflict is a uniqueness violation.
	KindConflict
	// KindForbidden is an authorization denial. Never conflated with
	// KindNotFound.
	KindForbidden
	// KindUnauthorized is a failed or missing credential.
	KindUnauthorized
)

// Error is a kinded application error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict returns a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden returns a KindForbidden error.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorized returns a KindUnauthorized error.
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

// Unexpected wraps an underlying failure as a KindUnexpected error. The
// wrapped cause is logged server-side, not returned to clients.
func Unexpected(msg string, err error) *Error {
	return &Error{Kind: KindUnexpected, Msg: msg, Err: err}
}

// KindOf reports the taxonomy class of err. Errors without a tag are
// treated as unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// IsNotFound reports whether err is tagged KindNotFound.
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsConflict reports whether err is tagged KindConflict.
func IsConflict(err error) bool { return is(err, KindConflict) }

// IsValidation reports whether err is tagged KindValidation.
func IsValidation(err error) bool { return is(err, KindValidation) }

// IsForbidden reports whether err is tagged KindForbidden.
func IsForbidden(err error) bool { return is(err, KindForbidden) }

func is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
