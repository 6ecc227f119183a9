package submission

import "fmt"

// Status is the lifecycle state of the submission slot.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Events accepted by the machine.
const (
	EventSubmit  = "submit"
	EventResolve = "resolve"
	EventReject  = "reject"
	EventReset   = "reset"
)

// validTransitions maps currentStatus -> event -> targetStatus.
var validTransitions = map[Status]map[string]Status{
	StatusIdle: {
		EventSubmit: StatusPending,
	},
	StatusPending: {
		EventResolve: StatusSuccess,
		EventReject:  StatusFailure,
		EventReset:   StatusIdle,
	},
	StatusSuccess: {
		EventSubmit: StatusPending,
		EventReset:  StatusIdle,
	},
	StatusFailure: {
		EventSubmit: StatusPending,
		EventReset:  StatusIdle,
	},
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusIdle, StatusPending, StatusSuccess, StatusFailure}
}

func (s Status) String() string {
	return string(s)
}

// IsValid returns true if s is a known status.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether a submission has settled in this status.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// CanTransitionWith returns true if event can fire from this status.
func (s Status) CanTransitionWith(event string) bool {
	_, ok := validTransitions[s][event]
	return ok
}

// TransitionWith returns the target status for event.
func (s Status) TransitionWith(event string) (Status, error) {
	target, ok := validTransitions[s][event]
	if !ok {
		return s, fmt.Errorf("event '%s' not allowed from status '%s'", event, s)
	}
	return target, nil
}
