package workflow

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is matched by every TransitionError.
var ErrIllegalTransition = errors.New("illegal stage transition")

// TransitionError describes a rejected stage change request.
type TransitionError struct {
	From   Stage
	To     Stage
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal stage transition %s -> %s: %s", e.From.Label(), e.To.Label(), e.Reason)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
