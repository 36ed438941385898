package cli

import (
	"errors"

	"github.com/woliveiras/addoverlay/pkg/overlay"
)

// ExitError carries the short operator-facing message and exit code for a
// failed run.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit status 1"
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitErrorFor maps overlay error kinds to the messages operators expect.
// Errors without a known kind are returned unchanged.
func exitErrorFor(err error) error {
	if err == nil {
		return nil
	}
	var msg string
	switch {
	case errors.Is(err, overlay.ErrUserAbort):
		msg = "Aborted."
	case errors.Is(err, overlay.ErrOverlayNotFound):
		msg = "Overlay not found."
	case errors.Is(err, overlay.ErrUnknownBoardSeries):
		msg = "Unsupported board."
	case errors.Is(err, overlay.ErrMissingDependency):
		msg = "Missing dependency: " + err.Error()
	default:
		return err
	}
	return &ExitError{Code: 1, Message: msg, Err: err}
}
