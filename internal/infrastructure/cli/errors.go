package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/config"
	"github.com/felixgeelhaar/prdreview/pkg/client"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
)

// Exit codes.
const (
	ExitFailure       = 1
	ExitReviewFailed  = 2
	ExitInvalidReview = 3
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: ExitFailure,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return failureError(submission.FailureFrom(err))
	}

	var schemaErr *review.SchemaError
	if errors.As(err, &schemaErr) {
		e := NewCLIError("review does not match the expected shape", "Run 'prdreview validate' on the file for the full list of problems", err)
		e.ExitCode = ExitInvalidReview
		return e
	}

	switch {
	case errors.Is(err, submission.ErrEmptyInput), errors.Is(err, review.ErrEmptyPRD):
		return NewCLIError("the PRD is empty", "Pass a markdown file, pipe one on stdin, or try 'prdreview review --sample'", err)
	case errors.Is(err, submission.ErrInFlight):
		return NewCLIError("a review is already in progress", "Wait for it to finish or reset it", err)
	case errors.Is(err, submission.ErrSuperseded):
		return NewCLIError("the review was reset before it completed", "Submit it again", err)
	case errors.Is(err, config.ErrInvalid):
		return NewCLIError("configuration is invalid", "Run 'prdreview config show' to inspect the resolved values", err)
	}

	return err
}

// failureError turns a failed submission into an exit-code-2 error.
func failureError(f submission.Failure) *CLIError {
	hint := ""
	switch f.Kind {
	case submission.TransportUnreachable:
		hint = "Start the API or point --api-base at it; 'prdreview health' checks connectivity"
	case submission.ServerRejected:
		hint = "The API rejected the request; check the PRD and the --context values"
	case submission.MalformedPayload:
		hint = "The API answered with an unexpected payload; check that client and server versions match"
	case submission.EmptyInput:
		hint = "Pass a non-empty PRD"
	}
	msg := "review failed"
	if f.Status > 0 {
		msg = fmt.Sprintf("review failed (HTTP %d)", f.Status)
	}
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      errors.New(f.Message),
		ExitCode: ExitReviewFailed,
	}
}
