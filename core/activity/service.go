package activity

import (
	"errors"
	"time"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/deadline"
	"github.com/lusambya/kazi/core/staff"
)

var (
	// errors
	ErrNotFound = errors.New("activity not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateActivity(a Activity) (Activity, error)
		GetActivityByID(id int) (Activity, error)
		QueryActivitiesByOwner(ownerID, periodID int) ([]Activity, error)
		QueryActivitiesByPeriod(periodID int) ([]Activity, error)
		// UpdateActivity compares a.Version against the stored row and
		// returns core.ConcurrentModificationError on mismatch.
		UpdateActivity(a Activity) (Activity, error)
		DeleteActivity(id int) error
	}

	// Service is the activity mutability guard: every create/update/delete
	// first asks the deadline registry whether the REGISTRATION window for
	// the activity's period is still open.
	Service interface {
		Create(na NewActivity, actorID int) (Activity, error)
		GetByID(id int) (Activity, error)
		QueryByOwner(ownerID, periodID int) ([]Activity, error)
		QueryByPeriod(periodID int) ([]Activity, error)
		Update(id int, ua UpdateActivity, actorID int) (Activity, error)
		// Delete removes an activity: by its owner while the window is open,
		// or by a moderator at any time.
		Delete(id, actorID int, actorRole staff.Role) error
		// SetRealization moves the realization state along
		// NOT_DONE -> IN_PROGRESS -> COMPLETED (or -> INCOMPLETE),
		// owner-only and window-gated like any other mutation.
		SetRealization(id int, state RealizationState, actorID int) (Activity, error)
		// RejectPlan moves the planning state PENDING -> REJECTED. One-way:
		// no reversal transition exists.
		RejectPlan(id int, actorRole staff.Role) (Activity, error)
	}

	service struct {
		repo      Repository
		deadlines deadline.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, deadlines deadline.Service) Service {
	return &service{repo: repo, deadlines: deadlines}
}

// checkWindow fails with core.MutationWindowClosedError when the REGISTRATION
// window for periodID has closed.
func (svc *service) checkWindow(periodID int) error {
	open, err := svc.deadlines.IsMutationWindowOpen(periodID, deadline.CategoryRegistration, nowFunc().UTC())
	if err != nil {
		return err
	}
	if !open {
		var due time.Time
		if d, derr := svc.deadlines.Authoritative(periodID, deadline.CategoryRegistration); derr == nil {
			due = d.DueDate
		}
		return core.NewMutationWindowClosedError(periodID, string(deadline.CategoryRegistration), due)
	}
	return nil
}

func (svc *service) Create(na NewActivity, actorID int) (Activity, error) {
	if err := svc.checkWindow(na.PeriodID); err != nil {
		return Activity{}, err
	}

	now := nowFunc().UTC()
	a := Activity{
		OwnerID:              actorID,
		PeriodID:             na.PeriodID,
		Title:                na.Title,
		Description:          na.Description,
		Category:             na.Category,
		StartDate:            na.StartDate,
		EndDate:              na.EndDate,
		EstimatedHours:       na.EstimatedHours,
		Location:             na.Location,
		Objectives:           na.Objectives,
		Resources:            na.Resources,
		Budget:               na.Budget,
		ExpectedParticipants: na.ExpectedParticipants,
		PlanningState:        PlanningPending,
		RealizationState:     RealizationNotDone,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	return svc.repo.CreateActivity(a)
}

func (svc *service) GetByID(id int) (Activity, error) {
	return svc.repo.GetActivityByID(id)
}

func (svc *service) QueryByOwner(ownerID, periodID int) ([]Activity, error) {
	return svc.repo.QueryActivitiesByOwner(ownerID, periodID)
}

func (svc *service) QueryByPeriod(periodID int) ([]Activity, error) {
	return svc.repo.QueryActivitiesByPeriod(periodID)
}

func (svc *service) Update(id int, ua UpdateActivity, actorID int) (Activity, error) {
	a, err := svc.repo.GetActivityByID(id)
	if err != nil {
		return Activity{}, err
	}
	if a.OwnerID != actorID {
		return Activity{}, core.NewForbiddenError("only the owner may edit an activity")
	}
	if err = svc.checkWindow(a.PeriodID); err != nil {
		return Activity{}, err
	}

	next := ua.apply(a)
	next.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateActivity(next)
}

func (svc *service) Delete(id, actorID int, actorRole staff.Role) error {
	a, err := svc.repo.GetActivityByID(id)
	if err != nil {
		return err
	}

	// moderators may delete at any time, owners only while the window is open
	if !actorRole.Can(staff.CapModerateActivity) {
		if a.OwnerID != actorID {
			return core.NewForbiddenError("only the owner may delete an activity")
		}
		if err = svc.checkWindow(a.PeriodID); err != nil {
			return err
		}
	}
	return svc.repo.DeleteActivity(id)
}

func (svc *service) SetRealization(id int, state RealizationState, actorID int) (Activity, error) {
	a, err := svc.repo.GetActivityByID(id)
	if err != nil {
		return Activity{}, err
	}
	if a.OwnerID != actorID {
		return Activity{}, core.NewForbiddenError("only the owner may report on an activity")
	}
	if err = svc.checkWindow(a.PeriodID); err != nil {
		return Activity{}, err
	}
	if !a.RealizationState.CanTransitionTo(state) {
		return Activity{}, core.NewInvalidTransitionError(string(a.RealizationState), string(state))
	}

	a.RealizationState = state
	a.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateActivity(a)
}

func (svc *service) RejectPlan(id int, actorRole staff.Role) (Activity, error) {
	if !actorRole.Can(staff.CapModerateActivity) {
		return Activity{}, core.NewForbiddenError("role %s cannot reject activity plans", actorRole)
	}

	a, err := svc.repo.GetActivityByID(id)
	if err != nil {
		return Activity{}, err
	}
	if a.PlanningState == PlanningRejected {
		return Activity{}, core.NewInvalidTransitionError(string(a.PlanningState), "reject")
	}

	a.PlanningState = PlanningRejected
	a.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateActivity(a)
}
