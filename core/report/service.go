package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/activity"
	"github.com/lusambya/kazi/core/staff"
)

var (
	// errors
	ErrNotFound = errors.New("report not found")

	errActivityRequired = "a report needs at least one attached activity"
	errCommentRequired  = "a review comment is required"

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateReport(r Report) (Report, error)
		GetReportByID(id int) (Report, error)
		QueryReportsByOwner(ownerID int) ([]Report, error)
		QueryReportsByPeriod(periodID int) ([]Report, error)
		// UpdateReport replaces the report's content and associations. It
		// compares r.Version against the stored row and returns
		// core.ConcurrentModificationError on mismatch.
		UpdateReport(r Report) (Report, error)
		// ApplyStateChange persists the new state and the audit entry in one
		// atomic write, with the same version compare-and-swap as UpdateReport.
		ApplyStateChange(r Report, entry AuditEntry) (Report, error)
		QueryAuditTrail(reportID int) ([]AuditEntry, error)
		// DeleteReport detaches the activity associations; it never deletes
		// the underlying activities.
		DeleteReport(id int) error
	}

	// Service is the transition orchestrator: the sole entry point for
	// changing a report's state.
	Service interface {
		Create(nr NewReport, actorID int) (Report, error)
		GetByID(id int) (Report, error)
		QueryByOwner(ownerID int) ([]Report, error)
		QueryByPeriod(periodID int) ([]Report, error)
		Update(id int, ur UpdateReport, actorID int) (Report, error)
		// ApplyTransition validates the request against the state machine,
		// the authorization policy and the event guards, applies it
		// atomically, and appends a ReportStateChanged event for delivery.
		// A failed event append surfaces as a warning on the result, never
		// as a transition failure.
		ApplyTransition(reportID int, req TransitionRequest, actorID int, actorRole staff.Role) (*TransitionResult, error)
		AddAttachment(reportID int, ref AttachmentRef, actorID int) (Report, error)
		RemoveAttachment(reportID int, ref string, actorID int) (Report, error)
		AuditTrail(reportID int) ([]AuditEntry, error)
		Delete(id, actorID int, actorRole staff.Role) error
	}

	service struct {
		repo       Repository
		activities activity.Service
		notifier   core.Notifier
		logger     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, activities activity.Service, notifier core.Notifier, logger core.Logger) Service {
	return &service{repo: repo, activities: activities, notifier: notifier, logger: logger}
}

// checkActivities verifies every referenced activity exists and belongs to
// the report's owner and period.
func (svc *service) checkActivities(refs []ActivityRef, ownerID, periodID int) error {
	seen := make(map[int]bool, len(refs))
	for _, ref := range refs {
		if seen[ref.ActivityID] {
			return core.NewValidationError(nil, core.FieldError{
				Field: "activities",
				Error: fmt.Sprintf("activity %d is referenced twice", ref.ActivityID),
			})
		}
		seen[ref.ActivityID] = true

		act, err := svc.activities.GetByID(ref.ActivityID)
		if err != nil {
			if err == activity.ErrNotFound {
				return core.NewValidationError(err, core.FieldError{
					Field: "activities",
					Error: fmt.Sprintf("activity %d does not exist", ref.ActivityID),
				})
			}
			return err
		}
		if act.OwnerID != ownerID {
			return core.NewValidationError(nil, core.FieldError{
				Field: "activities",
				Error: fmt.Sprintf("activity %d belongs to another staff member", ref.ActivityID),
			})
		}
		if act.PeriodID != periodID {
			return core.NewValidationError(nil, core.FieldError{
				Field: "activities",
				Error: fmt.Sprintf("activity %d belongs to another period", ref.ActivityID),
			})
		}
	}
	return nil
}

func (svc *service) Create(nr NewReport, actorID int) (Report, error) {
	if err := svc.checkActivities(nr.Activities, actorID, nr.PeriodID); err != nil {
		return Report{}, err
	}

	now := nowFunc().UTC()
	r := Report{
		OwnerID:          actorID,
		PeriodID:         nr.PeriodID,
		Title:            nr.Title,
		Description:      nr.Description,
		Type:             nr.Type,
		State:            StateDraft,
		Activities:       nr.Activities,
		ExecutiveSummary: nr.ExecutiveSummary,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateReport(r)
}

func (svc *service) GetByID(id int) (Report, error) {
	return svc.repo.GetReportByID(id)
}

func (svc *service) QueryByOwner(ownerID int) ([]Report, error) {
	return svc.repo.QueryReportsByOwner(ownerID)
}

func (svc *service) QueryByPeriod(periodID int) ([]Report, error) {
	return svc.repo.QueryReportsByPeriod(periodID)
}

func (svc *service) Update(id int, ur UpdateReport, actorID int) (Report, error) {
	r, err := svc.repo.GetReportByID(id)
	if err != nil {
		return Report{}, err
	}
	if r.OwnerID != actorID {
		return Report{}, core.NewForbiddenError("only the owner may edit a report")
	}
	if !r.Editable() {
		return Report{}, core.NewGuardFailedError("edit", fmt.Sprintf("a report in state %s cannot be edited", r.State))
	}

	if ur.Title != "" {
		r.Title = ur.Title
	}
	if ur.Description != nil {
		r.Description = *ur.Description
	}
	if ur.ExecutiveSummary != nil {
		r.ExecutiveSummary = *ur.ExecutiveSummary
	}
	if ur.Activities != nil {
		if err = svc.checkActivities(*ur.Activities, r.OwnerID, r.PeriodID); err != nil {
			return Report{}, err
		}
		r.Activities = *ur.Activities
	}
	r.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateReport(r)
}

// checkGuards enforces the event-specific preconditions from the transition
// table: a non-empty activity set to leave DRAFT/RETURNED, and a non-empty
// comment on a return.
func checkGuards(r Report, event Event, comment string) error {
	switch event {
	case EventSubmit, EventReviseSubmit:
		if len(r.Activities) == 0 {
			return core.NewGuardFailedError(string(event), errActivityRequired)
		}
	case EventReturn:
		if comment == "" {
			return core.NewGuardFailedError(string(event), errCommentRequired)
		}
	}
	return nil
}

func (svc *service) ApplyTransition(reportID int, req TransitionRequest, actorID int, actorRole staff.Role) (*TransitionResult, error) {
	r, err := svc.repo.GetReportByID(reportID)
	if err != nil {
		return nil, err
	}

	to, err := nextState(r.State, req.Event, req.ResetTo)
	if err != nil {
		return nil, err
	}
	if !CanTransition(actorRole, r.OwnerID, actorID, r.State, req.Event) {
		return nil, core.NewForbiddenError("role %s (actor %d) may not %s a report in state %s",
			actorRole, actorID, req.Event, r.State)
	}
	if err = checkGuards(r, req.Event, req.Comment); err != nil {
		return nil, err
	}

	from := r.State
	now := nowFunc().UTC()
	r.State = to
	r.UpdatedAt = now
	switch req.Event {
	case EventSubmit, EventReviseSubmit:
		r.SubmittedAt = null.TimeFrom(now)
	case EventBeginReview, EventApprove, EventReturn:
		r.ReviewedAt = null.TimeFrom(now)
		if req.Event == EventReturn {
			r.ReviewComments = null.StringFrom(req.Comment)
		}
	}

	entry := AuditEntry{
		ReportID:  r.ID,
		ActorID:   actorID,
		FromState: from,
		ToState:   to,
		Comment:   null.NewString(req.Comment, req.Comment != ""),
		CreatedAt: now,
	}

	updated, err := svc.repo.ApplyStateChange(r, entry)
	if err != nil {
		return nil, err
	}

	if req.Event == EventAdministrativeReset {
		svc.logger.Info(fmt.Sprintf("report %d administratively reset from %s to %s by actor %d",
			updated.ID, from, to, actorID))
	}

	res := &TransitionResult{Report: updated}
	evt := core.NewEvent(core.EventReportStateChanged, StateChangedEvent{
		Report:    updated,
		FromState: from,
		ToState:   to,
		ActorID:   actorID,
		ActorRole: actorRole,
	})
	if err = svc.notifier.Publish(evt); err != nil {
		warn := fmt.Sprintf("transition applied but its notification could not be queued: %v", err)
		svc.logger.Warn(warn, err)
		res.Warnings = append(res.Warnings, warn)
	}
	return res, nil
}

func (svc *service) AddAttachment(reportID int, ref AttachmentRef, actorID int) (Report, error) {
	r, err := svc.repo.GetReportByID(reportID)
	if err != nil {
		return Report{}, err
	}
	if r.OwnerID != actorID {
		return Report{}, core.NewForbiddenError("only the owner may attach files to a report")
	}
	if !r.Editable() {
		return Report{}, core.NewGuardFailedError("attach", fmt.Sprintf("a report in state %s cannot be edited", r.State))
	}
	for _, at := range r.Attachments {
		if at.Ref == ref.Ref {
			return Report{}, core.NewValidationError(nil, core.FieldError{
				Field: "ref", Error: "this attachment is already referenced",
			})
		}
	}

	r.Attachments = append(r.Attachments, ref)
	r.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateReport(r)
}

func (svc *service) RemoveAttachment(reportID int, ref string, actorID int) (Report, error) {
	r, err := svc.repo.GetReportByID(reportID)
	if err != nil {
		return Report{}, err
	}
	if r.OwnerID != actorID {
		return Report{}, core.NewForbiddenError("only the owner may remove report attachments")
	}
	if !r.Editable() {
		return Report{}, core.NewGuardFailedError("detach", fmt.Sprintf("a report in state %s cannot be edited", r.State))
	}

	// filter into a fresh slice; repository snapshots may share the backing array
	kept := make([]AttachmentRef, 0, len(r.Attachments))
	for _, at := range r.Attachments {
		if at.Ref != ref {
			kept = append(kept, at)
		}
	}
	r.Attachments = kept
	r.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateReport(r)
}

func (svc *service) AuditTrail(reportID int) ([]AuditEntry, error) {
	return svc.repo.QueryAuditTrail(reportID)
}

func (svc *service) Delete(id, actorID int, actorRole staff.Role) error {
	r, err := svc.repo.GetReportByID(id)
	if err != nil {
		return err
	}
	if r.OwnerID != actorID && !actorRole.Can(staff.CapReviewReports) {
		return core.NewForbiddenError("only the owner or a reviewer may delete a report")
	}
	if r.State == StateApproved {
		return core.NewGuardFailedError("delete", "an approved report cannot be deleted")
	}
	return svc.repo.DeleteReport(id)
}
