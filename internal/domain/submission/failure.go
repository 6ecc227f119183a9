package submission

import (
	"errors"

	"github.com/felixgeelhaar/prdreview/pkg/client"
)

// FailureKind classifies a failed submission.
type FailureKind string

const (
	TransportUnreachable FailureKind = "transport_unreachable"
	ServerRejected       FailureKind = "server_rejected"
	MalformedPayload     FailureKind = "malformed_payload"
	EmptyInput           FailureKind = "empty_input"
)

// fallbackMessage covers errors that did not come from the API client.
const fallbackMessage = "Could not reach the API. Is the backend running?"

// Failure is what the failure state holds.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Status  int         `json:"status"`
	Message string      `json:"message"`
}

// FailureFrom converts an error into a Failure.
func FailureFrom(err error) Failure {
	if errors.Is(err, ErrEmptyInput) {
		return Failure{Kind: EmptyInput, Message: "Paste a PRD before analyzing."}
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		kind := TransportUnreachable
		switch apiErr.Kind {
		case client.KindRejected:
			kind = ServerRejected
		case client.KindMalformed:
			kind = MalformedPayload
		}
		return Failure{Kind: kind, Status: apiErr.Status, Message: apiErr.Message}
	}

	return Failure{Kind: TransportUnreachable, Message: fallbackMessage}
}
