package dispatch

import "errors"

var (
	// ErrNoOpenAction is returned when completing a booking with no open dialog.
	ErrNoOpenAction = errors.New("no open action for booking")
	// ErrStaleAction means the booking's stage moved since the dialog opened.
	ErrStaleAction = errors.New("booking stage changed since the action was opened")
	ErrNoDialog    = errors.New("no dialog registered")
)
