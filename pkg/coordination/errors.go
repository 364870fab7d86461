package coordination

import (
	"errors"
	"fmt"
)

// Kind classifies coordination errors. Errors cross public API boundaries as
// tagged values; callers branch on Kind rather than string matching.
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindInvalidState        Kind = "INVALID_STATE"
	KindAccessDenied        Kind = "ACCESS_DENIED"
	KindBadInput            Kind = "BAD_INPUT"
	KindProviderUnavailable Kind = "PROVIDER_UNAVAILABLE"
	KindUpstreamError       Kind = "UPSTREAM_ERROR"
	KindCancelled           Kind = "CANCELLED"
	KindMaxIterations       Kind = "MAX_ITERATIONS"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by Kind so callers can use errors.Is with a bare kind error.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrKind returns the Kind carried by err, or an empty Kind for foreign errors.
func ErrKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsNotFound(err error) bool     { return ErrKind(err) == KindNotFound }
func IsInvalidState(err error) bool { return ErrKind(err) == KindInvalidState }
func IsAccessDenied(err error) bool { return ErrKind(err) == KindAccessDenied }
