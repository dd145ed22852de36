package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so the transport boundary can pick a
// status code without matching on messages.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is the single domain error type: a closed kind, a user facing
// message and optional field level details. It may wrap a cause.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with field details attached
func (e *Error) WithDetails(details map[string]string) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap keeps the cause available for errors.Is/errors.As checks
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func BadRequest(message string) *Error   { return New(KindBadRequest, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Internal(message string) *Error     { return New(KindInternal, message) }

// KindOf reports the kind of the first *Error in the chain.
// Plain errors classify as internal.
func KindOf(err error) Kind {
	var apperr *Error
	if errors.As(err, &apperr) {
		return apperr.Kind
	}
	return KindInternal
}

// MessageOf reports the user facing message of the first *Error in the
// chain. Plain errors have no safe message to expose.
func MessageOf(err error) string {
	var apperr *Error
	if errors.As(err, &apperr) {
		return apperr.Message
	}
	return "internal error"
}

// DetailsOf reports field details of the first *Error in the chain, if any
func DetailsOf(err error) map[string]string {
	var apperr *Error
	if errors.As(err, &apperr) {
		return apperr.Details
	}
	return nil
}

// IsKind reports whether the error classifies as the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
