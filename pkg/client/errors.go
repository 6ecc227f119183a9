package client

import (
	"errors"
	"fmt"
)

// Kind classifies why a submission failed.
type Kind string

const (
	// KindUnreachable means no HTTP response was received.
	KindUnreachable Kind = "transport_unreachable"
	// KindRejected means the server answered with a non-success status.
	KindRejected Kind = "server_rejected"
	// KindMalformed means a success response did not match the review schema.
	KindMalformed Kind = "malformed_payload"
)

// Sentinels matched by *APIError via errors.Is.
var (
	ErrUnreachable      = errors.New("api server unreachable")
	ErrRejected         = errors.New("api server rejected request")
	ErrMalformedPayload = errors.New("api server returned malformed payload")
)

// UnreachableMessage is shown when no response reached the client.
const UnreachableMessage = "Could not reach the API server. Is the backend running?"

// APIError is returned by SubmitReview for every failure. Status is 0 when
// the server was never reached.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match the kind sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	case ErrRejected:
		return e.Kind == KindRejected
	case ErrMalformedPayload:
		return e.Kind == KindMalformed
	}
	return false
}
