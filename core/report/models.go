package report

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/staff"
)

// Report states.
const (
	StateDraft     State = "DRAFT"
	StateSubmitted State = "SUBMITTED"
	StateInReview  State = "IN_REVIEW"
	StateApproved  State = "APPROVED"
	StateReturned  State = "RETURNED"
)

// Report events. EventAdministrativeReset is the audited escape hatch out of
// APPROVED, not part of the normal flow.
const (
	EventSubmit              Event = "submit"
	EventBeginReview         Event = "begin_review"
	EventApprove             Event = "approve"
	EventReturn              Event = "return"
	EventReviseSubmit        Event = "revise_submit"
	EventAdministrativeReset Event = "administrative_reset"
)

// Report types.
const (
	TypePlanned   Type = "PLANNED_ACTIVITIES"
	TypeCompleted Type = "COMPLETED_ACTIVITIES"
)

type (
	State string
	Event string
	Type  string
)

func (t Type) IsValid() bool {
	return t == TypePlanned || t == TypeCompleted
}

// ActivityRef associates one Activity to a Report, carrying the optional
// per-report ordering and note.
type ActivityRef struct {
	ActivityID int         `json:"activity_id"`
	Position   int         `json:"position"`
	Note       null.String `json:"note"`
}

// AttachmentRef references an uploaded evidence file. Storage and transfer
// are owned elsewhere; the report only records the reference.
type AttachmentRef struct {
	Ref      string `json:"ref"`
	Filename string `json:"filename"`
}

// AuditEntry is one immutable record of a state transition. The trail is
// append-only: entries are never deleted or rewritten.
type AuditEntry struct {
	ID        int         `json:"id"`
	ReportID  int         `json:"report_id"`
	ActorID   int         `json:"actor_id"`
	FromState State       `json:"from_state"`
	ToState   State       `json:"to_state"`
	Comment   null.String `json:"comment"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

// Report is a reviewable bundle of Activities submitted by a staff member
// for one academic period. State may only change through Service.ApplyTransition.
type Report struct {
	ID               int             `json:"id"`
	OwnerID          int             `json:"owner_id"`
	PeriodID         int             `json:"period_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Type             Type            `json:"type"`
	State            State           `json:"state"`
	Activities       []ActivityRef   `json:"activities"`
	Attachments      []AttachmentRef `json:"attachments"`
	ExecutiveSummary string          `json:"executive_summary"`
	SubmittedAt      null.Time       `json:"submitted_at"`
	ReviewedAt       null.Time       `json:"reviewed_at"`
	ReviewComments   null.String     `json:"review_comments"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"` // UTC
	UpdatedAt        time.Time       `json:"updated_at"` // UTC
}

// Editable reports whether the report's content (title, activity set,
// attachments, summary) may still be changed by its owner.
func (r Report) Editable() bool {
	return r.State == StateDraft || r.State == StateReturned
}

// NewReport contains information needed to create a new Report (in DRAFT).
type NewReport struct {
	PeriodID         int           `json:"period_id" validate:"required"`
	Title            string        `json:"title" validate:"required"`
	Description      string        `json:"description"`
	Type             Type          `json:"type" validate:"required,reporttype"`
	Activities       []ActivityRef `json:"activities"`
	ExecutiveSummary string        `json:"executive_summary"`
}

func (nr *NewReport) Validate() error {
	nr.Title = core.CleanString(nr.Title)
	nr.Description = core.CleanString(nr.Description)
	return core.Validate.Struct(nr)
}

// UpdateReport defines what content may be changed while the report is
// editable (DRAFT or RETURNED). Nil fields are left untouched.
type UpdateReport struct {
	Title            string         `json:"title"`
	Description      *string        `json:"description"`
	ExecutiveSummary *string        `json:"executive_summary"`
	Activities       *[]ActivityRef `json:"activities"`
}

func (ur *UpdateReport) Validate() error {
	ur.Title = core.CleanString(ur.Title)
	return core.Validate.Struct(ur)
}

// TransitionRequest carries one requested state transition.
type TransitionRequest struct {
	Event   Event  `json:"event" validate:"required"`
	Comment string `json:"comment"`
	// ResetTo optionally targets IN_REVIEW instead of SUBMITTED on an
	// administrative reset; ignored for every other event.
	ResetTo State `json:"reset_to"`
}

func (tr *TransitionRequest) Validate() error {
	tr.Comment = core.CleanString(tr.Comment)
	return core.Validate.Struct(tr)
}

// TransitionResult is a successful transition plus any non-fatal warnings
// (e.g. a failed notification append) surfaced to the caller.
type TransitionResult struct {
	Report   Report   `json:"report"`
	Warnings []string `json:"warnings,omitempty"`
}

// StateChangedEvent is the payload of a core.EventReportStateChanged event.
type StateChangedEvent struct {
	Report    Report     `json:"report"`
	FromState State      `json:"from_state"`
	ToState   State      `json:"to_state"`
	ActorID   int        `json:"actor_id"`
	ActorRole staff.Role `json:"actor_role"`
}
