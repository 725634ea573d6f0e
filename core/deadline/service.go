package deadline

import (
	"errors"
	"time"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/staff"
)

var (
	// errors
	ErrNotFound = errors.New("deadline not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateDeadline(d Deadline) (Deadline, error)
		GetDeadlineByID(id int) (Deadline, error)
		QueryDeadlinesByPeriod(periodID int) ([]Deadline, error)
		// GetAuthoritativeDeadline returns the most recently created active
		// deadline for (periodID, category), or ErrNotFound when none exists.
		GetAuthoritativeDeadline(periodID int, category Category) (Deadline, error)
		UpdateDeadline(d Deadline) (Deadline, error)
		DeleteDeadline(id int) error
	}

	// Service is the deadline registry. Reads answer whether a mutation
	// window is still open; writes emit exactly one DeadlineChanged event
	// per successful write that touches a tracked field.
	Service interface {
		// IsMutationWindowOpen reports whether writes gated by (periodID,
		// category) are still allowed as of asOf. The window is open when no
		// active deadline of that category exists for the period, or when the
		// authoritative deadline's due date is on/after asOf (inclusive).
		IsMutationWindowOpen(periodID int, category Category, asOf time.Time) (bool, error)
		// Authoritative returns the governing deadline, or ErrNotFound.
		Authoritative(periodID int, category Category) (Deadline, error)
		// Upcoming lists active deadlines for the period whose due date falls
		// within withinDays from now. Pure read, no side effect.
		Upcoming(periodID, withinDays int) ([]Deadline, error)
		QueryByPeriod(periodID int) ([]Deadline, error)
		GetByID(id int) (Deadline, error)
		Create(nd NewDeadline, actorRole staff.Role) (Deadline, error)
		Update(id int, ud UpdateDeadline, actorRole staff.Role) (Deadline, error)
		Delete(id int, actorRole staff.Role) error
		ToggleActive(id int, actorRole staff.Role) (Deadline, error)
	}

	service struct {
		repo     Repository
		notifier core.Notifier
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, notifier core.Notifier, logger core.Logger) Service {
	return &service{repo: repo, notifier: notifier, logger: logger}
}

func (svc *service) IsMutationWindowOpen(periodID int, category Category, asOf time.Time) (bool, error) {
	d, err := svc.repo.GetAuthoritativeDeadline(periodID, category)
	if err != nil {
		if err == ErrNotFound {
			return true, nil
		}
		return false, err
	}
	return !truncateToDay(d.DueDate).Before(truncateToDay(asOf)), nil
}

func (svc *service) Authoritative(periodID int, category Category) (Deadline, error) {
	return svc.repo.GetAuthoritativeDeadline(periodID, category)
}

func (svc *service) Upcoming(periodID, withinDays int) ([]Deadline, error) {
	all, err := svc.repo.QueryDeadlinesByPeriod(periodID)
	if err != nil {
		return nil, err
	}
	now := truncateToDay(nowFunc().UTC())
	horizon := now.AddDate(0, 0, withinDays)

	upcoming := make([]Deadline, 0, len(all))
	for _, d := range all {
		if !d.IsActive {
			continue
		}
		due := truncateToDay(d.DueDate)
		if !due.Before(now) && !due.After(horizon) {
			upcoming = append(upcoming, d)
		}
	}
	return upcoming, nil
}

func (svc *service) QueryByPeriod(periodID int) ([]Deadline, error) {
	return svc.repo.QueryDeadlinesByPeriod(periodID)
}

func (svc *service) GetByID(id int) (Deadline, error) {
	return svc.repo.GetDeadlineByID(id)
}

func (svc *service) Create(nd NewDeadline, actorRole staff.Role) (Deadline, error) {
	if !actorRole.Can(staff.CapManageDeadlines) {
		return Deadline{}, core.NewForbiddenError("role %s cannot manage deadlines", actorRole)
	}

	now := nowFunc().UTC()
	d := Deadline{
		PeriodID:     nd.PeriodID,
		Name:         nd.Name,
		Category:     nd.Category,
		DueDate:      nd.DueDate,
		ReminderDays: nd.ReminderDays,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if d.ReminderDays == 0 {
		d.ReminderDays = core.Conf.DeadlineReminderDays
	}

	created, err := svc.repo.CreateDeadline(d)
	if err != nil {
		return Deadline{}, err
	}
	svc.notifyChange(created, "created", diff(Deadline{}, created))
	return created, nil
}

func (svc *service) Update(id int, ud UpdateDeadline, actorRole staff.Role) (Deadline, error) {
	if !actorRole.Can(staff.CapManageDeadlines) {
		return Deadline{}, core.NewForbiddenError("role %s cannot manage deadlines", actorRole)
	}

	prior, err := svc.repo.GetDeadlineByID(id)
	if err != nil {
		return Deadline{}, err
	}

	next := prior
	if ud.Name != "" {
		next.Name = ud.Name
	}
	if ud.Category != "" {
		next.Category = ud.Category
	}
	if ud.DueDate != nil {
		next.DueDate = *ud.DueDate
	}
	if ud.ReminderDays != nil {
		next.ReminderDays = *ud.ReminderDays
	}
	if ud.IsActive != nil {
		next.IsActive = *ud.IsActive
	}
	next.UpdatedAt = nowFunc().UTC()

	updated, err := svc.repo.UpdateDeadline(next)
	if err != nil {
		return Deadline{}, err
	}
	if changes := diff(prior, updated); len(changes) > 0 {
		svc.notifyChange(updated, "updated", changes)
	}
	return updated, nil
}

func (svc *service) Delete(id int, actorRole staff.Role) error {
	if !actorRole.Can(staff.CapManageDeadlines) {
		return core.NewForbiddenError("role %s cannot manage deadlines", actorRole)
	}

	prior, err := svc.repo.GetDeadlineByID(id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteDeadline(id); err != nil {
		return err
	}
	svc.notifyChange(prior, "deleted", nil)
	return nil
}

func (svc *service) ToggleActive(id int, actorRole staff.Role) (Deadline, error) {
	if !actorRole.Can(staff.CapManageDeadlines) {
		return Deadline{}, core.NewForbiddenError("role %s cannot manage deadlines", actorRole)
	}

	prior, err := svc.repo.GetDeadlineByID(id)
	if err != nil {
		return Deadline{}, err
	}
	next := prior
	next.IsActive = !prior.IsActive
	next.UpdatedAt = nowFunc().UTC()

	updated, err := svc.repo.UpdateDeadline(next)
	if err != nil {
		return Deadline{}, err
	}
	svc.notifyChange(updated, "updated", diff(prior, updated))
	return updated, nil
}

// notifyChange publishes a single DeadlineChanged event. Delivery is
// best-effort: failures are logged, never returned.
func (svc *service) notifyChange(d Deadline, action string, changes []FieldChange) {
	evt := core.NewEvent(core.EventDeadlineChanged, ChangedEvent{Deadline: d, Action: action, Changes: changes})
	if err := svc.notifier.Publish(evt); err != nil {
		svc.logger.Warn("publishing DeadlineChanged", err)
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
