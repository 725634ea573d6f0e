package report

import (
	"testing"

	"github.com/lusambya/kazi/core"
)

func TestNextState(t *testing.T) {
	allStates := []State{StateDraft, StateSubmitted, StateInReview, StateApproved, StateReturned}
	allEvents := []Event{
		EventSubmit, EventBeginReview, EventApprove, EventReturn,
		EventReviseSubmit, EventAdministrativeReset,
	}

	// the complete legal surface; every other (state, event) pair must fail
	legal := map[State]map[Event]State{
		StateDraft:     {EventSubmit: StateSubmitted},
		StateSubmitted: {EventBeginReview: StateInReview, EventApprove: StateApproved, EventReturn: StateReturned},
		StateInReview:  {EventApprove: StateApproved, EventReturn: StateReturned},
		StateReturned:  {EventReviseSubmit: StateSubmitted},
		StateApproved:  {EventAdministrativeReset: StateSubmitted},
	}

	for _, from := range allStates {
		for _, event := range allEvents {
			from, event := from, event
			t.Run(string(from)+"/"+string(event), func(t *testing.T) {
				to, err := nextState(from, event, "")
				want, ok := legal[from][event]
				if !ok {
					if err == nil {
						t.Fatalf("nextState(%s, %s) = %s; want error", from, event, to)
					}
					if !core.IsInvalidTransition(err) {
						t.Errorf("nextState(%s, %s) err = %v; want InvalidTransitionError", from, event, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("nextState(%s, %s) failed: %v", from, event, err)
				}
				if to != want {
					t.Errorf("nextState(%s, %s) = %s; want %s", from, event, to, want)
				}
			})
		}
	}
}

func TestNextStateResetTarget(t *testing.T) {
	tests := []struct {
		name    string
		resetTo State
		want    State
		wantErr bool
	}{
		{name: "default", resetTo: "", want: StateSubmitted},
		{name: "to submitted", resetTo: StateSubmitted, want: StateSubmitted},
		{name: "to in_review", resetTo: StateInReview, want: StateInReview},
		{name: "to draft is illegal", resetTo: StateDraft, wantErr: true},
		{name: "to approved is illegal", resetTo: StateApproved, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			to, err := nextState(StateApproved, EventAdministrativeReset, tt.resetTo)
			if tt.wantErr {
				if !core.IsInvalidTransition(err) {
					t.Fatalf("nextState() err = %v; want InvalidTransitionError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("nextState() failed: %v", err)
			}
			if to != tt.want {
				t.Errorf("nextState() = %s; want %s", to, tt.want)
			}
		})
	}
}

func TestAllowedEvents(t *testing.T) {
	evts := AllowedEvents(StateSubmitted)
	if len(evts) != 3 {
		t.Errorf("AllowedEvents(SUBMITTED) = %v; want 3 events", evts)
	}
	if evts := AllowedEvents(State("BOGUS")); len(evts) != 0 {
		t.Errorf("AllowedEvents(BOGUS) = %v; want none", evts)
	}
}
