package report

import "github.com/lusambya/kazi/core/staff"

// ownerEvents may only be triggered by the report's owner; every other
// event is a reviewer action gated by a capability.
var ownerEvents = map[Event]bool{
	EventSubmit:       true,
	EventReviseSubmit: true,
}

var eventCapabilities = map[Event]staff.Capability{
	EventBeginReview:         staff.CapReviewReports,
	EventApprove:             staff.CapReviewReports,
	EventReturn:              staff.CapReviewReports,
	EventAdministrativeReset: staff.CapIrreversibleReset,
}

// CanTransition is the authorization policy: a pure decision over the actor,
// the report's owner and the requested event. It holds no reference to
// storage and has no side effects.
//
// An APPROVED report is off-limits to everyone except via an administrative
// reset, which requires the irreversible-reset capability (administrators
// only; coordinators are reviewer-equivalent for everything else).
func CanTransition(actorRole staff.Role, reportOwnerID, actorID int, from State, event Event) bool {
	if from == StateApproved && event != EventAdministrativeReset {
		return false
	}
	if ownerEvents[event] {
		return actorID == reportOwnerID
	}
	c, ok := eventCapabilities[event]
	if !ok {
		return false
	}
	return actorRole.Can(c)
}
