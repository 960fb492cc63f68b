package progress

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State and event identifiers for statekit. Events are named after the
// status they lead to, so sending "COMPLETE" asks for a move to COMPLETE.
const (
	statePending    = "PENDING"
	stateInProgress = "IN_PROGRESS"
	stateComplete   = "COMPLETE"
	stateStopped    = "STOPPED"
)

func init() {
	stateMap := map[string]Status{
		statePending:    StatusPending,
		stateInProgress: StatusInProgress,
		stateComplete:   StatusComplete,
		stateStopped:    StatusStopped,
	}
	for fsmState, status := range stateMap {
		if fsmState != string(status) {
			panic(fmt.Sprintf("FSM state %q does not match Status %q", fsmState, status))
		}
	}
}

// MachineContext carries the id of the entity the machine belongs to.
type MachineContext struct {
	EntityID string
}

// StatusMachine drives a single entity's status through the transition table.
type StatusMachine struct {
	entityID    string
	interpreter *statekit.Interpreter[MachineContext]
}

// NewStatusMachine builds a machine positioned at initial.
func NewStatusMachine(entityID string, initial Status) (*StatusMachine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, initial)
	}

	builder := statekit.NewMachine[MachineContext]("status-machine").
		WithInitial(statekit.StateID(initial)).
		WithContext(MachineContext{EntityID: entityID})

	builder.State(statePending).
		On(statePending).Target(statePending).
		On(stateInProgress).Target(stateInProgress).
		On(stateComplete).Target(stateComplete).
		Done()

	builder.State(stateInProgress).
		On(stateInProgress).Target(stateInProgress).
		On(stateComplete).Target(stateComplete).
		On(stateStopped).Target(stateStopped).
		Done()

	builder.State(stateComplete).
		On(statePending).Target(statePending).
		On(stateComplete).Target(stateComplete).
		Done()

	builder.State(stateStopped).
		On(stateInProgress).Target(stateInProgress).
		On(stateStopped).Target(stateStopped).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build status machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StatusMachine{entityID: entityID, interpreter: interpreter}, nil
}

// Transition moves the machine to target.
func (sm *StatusMachine) Transition(target Status) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	before := sm.Current()
	if !before.CanTransitionTo(target) {
		return &TransitionError{EntityID: sm.entityID, From: before, To: target}
	}

	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(target)})
	if sm.Current() != target {
		return &TransitionError{EntityID: sm.entityID, From: before, To: target}
	}
	return nil
}

// Current returns the machine's status.
func (sm *StatusMachine) Current() Status {
	return Status(sm.interpreter.State().Value)
}

// Apply runs a single transition on status and returns the resulting status.
// On failure the original status is returned with the error.
func Apply(entityID string, status, target Status) (Status, error) {
	sm, err := NewStatusMachine(entityID, status)
	if err != nil {
		return status, err
	}
	if err := sm.Transition(target); err != nil {
		return status, err
	}
	return sm.Current(), nil
}
