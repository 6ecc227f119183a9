package submission

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned by Submit for blank PRD text. Nothing is sent.
	ErrEmptyInput = errors.New("prd text is empty")

	// ErrInFlight is returned by Submit while a submission is pending.
	ErrInFlight = errors.New("a review is already in progress")

	// ErrInvalidTransition matches every *TransitionError.
	ErrInvalidTransition = errors.New("invalid submission transition")

	// ErrSuperseded is returned by SubmitAndWait when a reset discarded the
	// submission before it settled.
	ErrSuperseded = errors.New("submission was reset before it completed")
)

// TransitionError reports an event the machine refused.
type TransitionError struct {
	From  Status
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("the action '%s' is not allowed while the review is '%s'", e.Event, e.From)
}

// Is allows errors.Is to work with TransitionError.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
