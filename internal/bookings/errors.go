package bookings

import (
	"errors"
	"fmt"

	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

var (
	// ErrTransitionNotFound is returned for a transition on a booking the
	// store does not hold. It never affects other bookings.
	ErrTransitionNotFound = errors.New("booking not found")

	// ErrTransitionPending is returned when a booking already has a local
	// transition waiting for the record store to acknowledge it.
	ErrTransitionPending = errors.New("a transition for this booking is still being saved")
)

// LoadError means the record store could not be read. The store keeps its
// previous contents when this is returned.
type LoadError struct {
	OwnerID uint
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load bookings for owner %d: %v", e.OwnerID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistenceFailure means a local transition could not be written. By the
// time it is delivered the in-memory stage has been rolled back.
type PersistenceFailure struct {
	BookingID string
	From      workflow.Stage
	To        workflow.Stage
	// RolledBack is false when an external update replaced the booking
	// before the failure arrived; the external version was kept.
	RolledBack bool
	Err        error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("save booking %s stage %s -> %s: %v", e.BookingID, e.From, e.To, e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }

func IsLoadError(err error) bool {
	var target *LoadError
	return errors.As(err, &target)
}

func IsPersistenceFailure(err error) bool {
	var target *PersistenceFailure
	return errors.As(err, &target)
}
