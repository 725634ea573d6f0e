package report

import (
	"testing"

	"github.com/lusambya/kazi/core/staff"
)

func TestCanTransition(t *testing.T) {
	const ownerID, reviewerID = 1, 2

	tests := []struct {
		name    string
		role    staff.Role
		actorID int
		from    State
		event   Event
		want    bool
	}{
		{"owner submits own draft", staff.RoleTeacher, ownerID, StateDraft, EventSubmit, true},
		{"non-owner cannot submit", staff.RoleTeacher, reviewerID, StateDraft, EventSubmit, false},
		{"reviewer cannot submit for owner", staff.RoleCoordinator, reviewerID, StateDraft, EventSubmit, false},
		{"owner revises returned report", staff.RoleTeacher, ownerID, StateReturned, EventReviseSubmit, true},
		{"non-owner cannot revise", staff.RoleCoordinator, reviewerID, StateReturned, EventReviseSubmit, false},

		{"coordinator begins review", staff.RoleCoordinator, reviewerID, StateSubmitted, EventBeginReview, true},
		{"administrator begins review", staff.RoleAdministrator, reviewerID, StateSubmitted, EventBeginReview, true},
		{"teacher cannot begin review", staff.RoleTeacher, reviewerID, StateSubmitted, EventBeginReview, false},
		{"owner cannot review own report without capability", staff.RoleTeacher, ownerID, StateSubmitted, EventApprove, false},
		{"coordinator approves", staff.RoleCoordinator, reviewerID, StateInReview, EventApprove, true},
		{"coordinator returns", staff.RoleCoordinator, reviewerID, StateInReview, EventReturn, true},

		{"coordinator cannot reset", staff.RoleCoordinator, reviewerID, StateApproved, EventAdministrativeReset, false},
		{"administrator resets", staff.RoleAdministrator, reviewerID, StateApproved, EventAdministrativeReset, true},
		{"approved locks out owner", staff.RoleTeacher, ownerID, StateApproved, EventSubmit, false},
		{"approved locks out reviewers", staff.RoleCoordinator, reviewerID, StateApproved, EventApprove, false},
		{"approved locks out administrators for non-reset events", staff.RoleAdministrator, reviewerID, StateApproved, EventReturn, false},

		{"unknown event denied", staff.RoleAdministrator, reviewerID, StateDraft, Event("bogus"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanTransition(tt.role, ownerID, tt.actorID, tt.from, tt.event)
			if got != tt.want {
				t.Errorf("CanTransition(%s, owner=%d, actor=%d, %s, %s) = %t; want %t",
					tt.role, ownerID, tt.actorID, tt.from, tt.event, got, tt.want)
			}
		})
	}
}
