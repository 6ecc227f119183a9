package submission

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit. They must stay equal to the Status values.
const (
	stateIdle    = "idle"
	statePending = "pending"
	stateSuccess = "success"
	stateFailure = "failure"
)

func init() {
	stateMap := map[string]Status{
		stateIdle:    StatusIdle,
		statePending: StatusPending,
		stateSuccess: StatusSuccess,
		stateFailure: StatusFailure,
	}
	for fsmState, status := range stateMap {
		if fsmState != string(status) {
			panic(fmt.Sprintf("FSM state %q does not match Status %q", fsmState, status))
		}
	}
}

// MachineContext carries the submit guard.
type MachineContext struct {
	Guard func(event string) bool
}

// Machine is the statekit definition of the submission lifecycle. It is not
// safe for concurrent use; Session serializes access.
type Machine struct {
	interpreter *statekit.Interpreter[MachineContext]
}

// NewMachine builds the machine in the idle state. guard vetoes submit
// events; nil allows all of them.
func NewMachine(guard func(event string) bool) (*Machine, error) {
	if guard == nil {
		guard = func(string) bool { return true }
	}

	builder := statekit.NewMachine[MachineContext]("submission").
		WithInitial(statekit.StateID(stateIdle)).
		WithContext(MachineContext{Guard: guard}).
		WithGuard("hasInput", func(ctx MachineContext, e statekit.Event) bool {
			return ctx.Guard(string(e.Type))
		})

	builder.State(stateIdle).
		On(EventSubmit).Target(statePending).Guard("hasInput").
		Done()

	builder.State(statePending).
		On(EventResolve).Target(stateSuccess).
		On(EventReject).Target(stateFailure).
		On(EventReset).Target(stateIdle).
		Done()

	builder.State(stateSuccess).
		On(EventSubmit).Target(statePending).Guard("hasInput").
		On(EventReset).Target(stateIdle).
		Done()

	builder.State(stateFailure).
		On(EventSubmit).Target(statePending).Guard("hasInput").
		On(EventReset).Target(stateIdle).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build submission machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &Machine{interpreter: interpreter}, nil
}

// Transition fires event and reports a *TransitionError when the machine
// did not move.
func (m *Machine) Transition(event string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := m.Current()

	if before != after {
		return nil
	}
	return &TransitionError{From: before, Event: event}
}

// Current returns the current status.
func (m *Machine) Current() Status {
	return Status(m.interpreter.State().Value)
}
