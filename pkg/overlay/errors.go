package overlay

import (
	"errors"
	"fmt"
)

// Kind identifies the class of an error surfaced by this package.
type Kind string

const (
	// KindUnknownBoardSeries means the hardware model matched no known series.
	KindUnknownBoardSeries Kind = "unknown-board-series"
	// KindMissingDependency means an external tool or package is not installed.
	KindMissingDependency Kind = "missing-dependency"
	// KindOverlayNotFound means the resolved .dtbo is absent from the overlay directory.
	KindOverlayNotFound Kind = "overlay-not-found"
	// KindUserAbort means the operator declined a confirmation prompt.
	KindUserAbort Kind = "user-abort"
	// KindUnsupportedType means the overlay input type is neither dts nor dtbo.
	KindUnsupportedType Kind = "unsupported-type"
	// KindMalformedConfig means the boot configuration has no place to register the overlay.
	KindMalformedConfig Kind = "malformed-config"
)

// Error wraps an underlying error with a Kind so callers can branch on it
// with errors.Is against the package sentinels.
type Error struct {
	Kind     Kind
	Resource string
	Err      error
}

// Sentinels for errors.Is. They carry no cause and match any *Error of the
// same Kind.
var (
	ErrUnknownBoardSeries = &Error{Kind: KindUnknownBoardSeries}
	ErrMissingDependency  = &Error{Kind: KindMissingDependency}
	ErrOverlayNotFound    = &Error{Kind: KindOverlayNotFound}
	ErrUserAbort          = &Error{Kind: KindUserAbort}
	ErrUnsupportedType    = &Error{Kind: KindUnsupportedType}
	ErrMalformedConfig    = &Error{Kind: KindMalformedConfig}
)

func newError(kind Kind, resource string, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Resource: resource, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Resource != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Resource)
	}
	if e.Err != nil && e.Err.Error() != string(e.Kind) {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap allows errors.Is/As to reach the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil || e == nil {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
