// Package booking checks a reservation for conflicts with the user's
// existing bookings and submits it.
package booking

import (
	"errors"
	"fmt"

	"booktable/internal/models"
)

// State is a step of the conflict check and submission flow.
type State string

const (
	StateIdle          State = "idle"
	StateChecking      State = "checking"
	StateNoConflict    State = "no_conflict"
	StateConflictFound State = "conflict_found"
	StateResolving     State = "resolving"
	StateKept          State = "kept"
	StateCancelled     State = "cancelled"
	StateCreating      State = "creating"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Decision is the user's answer to a conflict.
type Decision string

const (
	// DecisionNone means the conflict dialog was dismissed.
	DecisionNone     Decision = ""
	DecisionKeep     Decision = "keep"
	DecisionContinue Decision = "continue"
)

// EventKind identifies what happened to the flow.
type EventKind string

const (
	EventSubmit           EventKind = "submit"
	EventResubmit         EventKind = "resubmit"
	EventNoConflict       EventKind = "no_conflict"
	EventConflictDetected EventKind = "conflict_detected"
	EventDecide           EventKind = "decide"
	EventKept             EventKind = "kept"
	EventCancelled        EventKind = "cancelled"
	EventCreate           EventKind = "create"
	EventCreated          EventKind = "created"
	EventFail             EventKind = "fail"
	EventDismiss          EventKind = "dismiss"
	EventReset            EventKind = "reset"
)

// Event is fed to Reduce. Only the fields relevant to Kind are read.
type Event struct {
	Kind      EventKind
	Candidate *ConflictCandidate
	Decision  Decision
	Booking   *models.Booking
	Err       error
}

// ErrInvalidTransition is returned when an event does not apply to the
// current state.
var ErrInvalidTransition = errors.New("invalid booking state transition")

// Machine is an immutable snapshot of the flow.
type Machine struct {
	State     State
	Candidate *ConflictCandidate
	Decision  Decision
	Booking   *models.Booking
	Err       error
}

var transitions = map[State][]State{
	StateIdle:          {StateChecking, StateCreating},
	StateChecking:      {StateNoConflict, StateConflictFound, StateFailed},
	StateNoConflict:    {StateCreating},
	StateConflictFound: {StateResolving, StateFailed},
	StateResolving:     {StateKept, StateCancelled, StateFailed},
	StateCancelled:     {StateCreating},
	StateCreating:      {StateDone, StateFailed},
	StateKept:          {StateIdle},
	StateDone:          {StateIdle},
	StateFailed:        {StateIdle},
}

// CanTransition checks if transition is allowed.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Reduce applies ev to m and returns the next snapshot. m is not modified.
func Reduce(m Machine, ev Event) (Machine, error) {
	// Dismiss is accepted everywhere and drops the pending conflict.
	if ev.Kind == EventDismiss {
		return Machine{State: StateIdle}, nil
	}

	next := m
	var to State

	switch ev.Kind {
	case EventSubmit:
		to = StateChecking
		next = Machine{}
	case EventResubmit:
		to = StateCreating
		next = Machine{}
	case EventNoConflict:
		to = StateNoConflict
	case EventConflictDetected:
		if ev.Candidate == nil {
			return m, fmt.Errorf("%w: conflict event without candidate", ErrInvalidTransition)
		}
		to = StateConflictFound
		next.Candidate = ev.Candidate
	case EventDecide:
		if ev.Decision != DecisionKeep && ev.Decision != DecisionContinue {
			return m, fmt.Errorf("%w: unknown decision %q", ErrInvalidTransition, ev.Decision)
		}
		to = StateResolving
		next.Decision = ev.Decision
	case EventKept:
		if m.Decision != DecisionKeep {
			return m, fmt.Errorf("%w: kept without keep decision", ErrInvalidTransition)
		}
		to = StateKept
		next.Candidate = nil
	case EventCancelled:
		if m.Decision != DecisionContinue {
			return m, fmt.Errorf("%w: cancelled without continue decision", ErrInvalidTransition)
		}
		to = StateCancelled
	case EventCreate:
		to = StateCreating
	case EventCreated:
		to = StateDone
		next.Booking = ev.Booking
		next.Candidate = nil
	case EventFail:
		to = StateFailed
		next.Err = ev.Err
	case EventReset:
		to = StateIdle
		next = Machine{}
	default:
		return m, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev.Kind)
	}

	if !CanTransition(m.State, to) {
		return m, fmt.Errorf("%w: %s -> %s on %s", ErrInvalidTransition, m.State, to, ev.Kind)
	}
	next.State = to
	return next, nil
}
