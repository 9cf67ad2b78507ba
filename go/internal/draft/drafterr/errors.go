// Package drafterr defines the error kinds every draft operation reports.
package drafterr

import (
	"errors"
	"fmt"
)

// Kind classifies a draft failure.
type Kind string

const (
	KindNotFound       Kind = "NOT_FOUND"
	KindUnauthorized   Kind = "UNAUTHORIZED"
	KindInvalidState   Kind = "INVALID_STATE"
	KindOutOfTurn      Kind = "NOT_YOUR_TURN"
	KindAlreadyDrafted Kind = "ALREADY_DRAFTED"
	KindValidation     Kind = "VALIDATION_ERROR"
	KindConflict       Kind = "CONFLICT"
	KindInternal       Kind = "ERROR"
)

// Sentinels for errors.Is checks against a kind.
var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrUnauthorized   = &Error{Kind: KindUnauthorized}
	ErrInvalidState   = &Error{Kind: KindInvalidState}
	ErrOutOfTurn      = &Error{Kind: KindOutOfTurn}
	ErrAlreadyDrafted = &Error{Kind: KindAlreadyDrafted}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrConflict       = &Error{Kind: KindConflict}
)

// Error is a classified draft error. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the package sentinels work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error     { return newf(KindNotFound, format, args...) }
func Unauthorized(format string, args ...any) error { return newf(KindUnauthorized, format, args...) }
func InvalidState(format string, args ...any) error { return newf(KindInvalidState, format, args...) }
func OutOfTurn(format string, args ...any) error    { return newf(KindOutOfTurn, format, args...) }
func AlreadyDrafted(format string, args ...any) error {
	return newf(KindAlreadyDrafted, format, args...)
}
func Conflict(format string, args ...any) error { return newf(KindConflict, format, args...) }

// Validation reports malformed input.
func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

// KindOf returns the kind carried by err, or KindInternal if it has none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Message returns the client-facing text for err. Unclassified errors are
// reduced to a generic message so internals do not leak.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		if de.Message != "" {
			return de.Message
		}
		return string(de.Kind)
	}
	return "internal error"
}
