package report

import "github.com/lusambya/kazi/core"

// transitions defines every legal state x event pair and its target state.
// Anything absent fails with core.InvalidTransitionError. administrative
// resets are handled in nextState since their target is caller-chosen.
var transitions = map[State]map[Event]State{
	StateDraft: {
		EventSubmit: StateSubmitted,
	},
	StateSubmitted: {
		EventBeginReview: StateInReview,
		EventApprove:     StateApproved,
		EventReturn:      StateReturned,
	},
	StateInReview: {
		EventApprove: StateApproved,
		EventReturn:  StateReturned,
	},
	StateReturned: {
		EventReviseSubmit: StateSubmitted,
	},
	StateApproved: {
		EventAdministrativeReset: StateSubmitted,
	},
}

// nextState resolves the target state for an event in the current state.
func nextState(from State, event Event, resetTo State) (State, error) {
	to, ok := transitions[from][event]
	if !ok {
		return "", core.NewInvalidTransitionError(string(from), string(event))
	}
	if event == EventAdministrativeReset && resetTo != "" {
		if resetTo != StateSubmitted && resetTo != StateInReview {
			return "", core.NewInvalidTransitionError(string(from), string(event)+" to "+string(resetTo))
		}
		to = resetTo
	}
	return to, nil
}

// AllowedEvents returns the events defined for a state, for callers that
// want to render available actions.
func AllowedEvents(from State) []Event {
	evts := make([]Event, 0, len(transitions[from]))
	for evt := range transitions[from] {
		evts = append(evts, evt)
	}
	return evts
}
