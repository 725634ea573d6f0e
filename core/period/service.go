package period

import (
	"errors"
	"time"

	"github.com/lusambya/kazi/core"
)

var (
	// errors
	ErrNotFound       = errors.New("academic period not found")
	ErrNameExists     = errors.New("a period with this name already exists")
	ErrNoActivePeriod = errors.New("no academic period is active")
	ErrAlreadyActive  = errors.New("another period is already active")
)

type (
	Repository interface {
		CheckNameUniqueness(name string, excluded ...AcademicPeriod) error
		CreatePeriod(p AcademicPeriod) (AcademicPeriod, error)
		QueryAllPeriods() ([]AcademicPeriod, error)
		GetPeriodByID(id int) (AcademicPeriod, error)
		GetActivePeriod() (AcademicPeriod, error)
		SetPeriodActive(id int, active bool) (AcademicPeriod, error)
	}

	Service interface {
		CheckUniqueness(name string, excluded ...AcademicPeriod) error
		Create(np NewPeriod) (AcademicPeriod, error)
		QueryAll() ([]AcademicPeriod, error)
		GetByID(id int) (AcademicPeriod, error)
		// GetActivePeriod returns the single active period or ErrNoActivePeriod.
		GetActivePeriod() (AcademicPeriod, error)
		// Activate marks a period active. Activation is rejected while another
		// period is active; the previous one must be deactivated explicitly.
		Activate(id int) (AcademicPeriod, error)
		Deactivate(id int) (AcademicPeriod, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(name string, excluded ...AcademicPeriod) error {
	if err := svc.repo.CheckNameUniqueness(name, excluded...); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(np NewPeriod) (AcademicPeriod, error) {
	now := time.Now().UTC()
	p := AcademicPeriod{
		Name:      np.Name,
		StartDate: np.StartDate,
		EndDate:   np.EndDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreatePeriod(p)
}

func (svc *service) QueryAll() ([]AcademicPeriod, error) {
	return svc.repo.QueryAllPeriods()
}

func (svc *service) GetByID(id int) (AcademicPeriod, error) {
	return svc.repo.GetPeriodByID(id)
}

func (svc *service) GetActivePeriod() (AcademicPeriod, error) {
	return svc.repo.GetActivePeriod()
}

func (svc *service) Activate(id int) (AcademicPeriod, error) {
	if active, err := svc.repo.GetActivePeriod(); err == nil && active.ID != id {
		return AcademicPeriod{}, core.NewValidationError(
			ErrAlreadyActive,
			core.FieldError{Field: "is_active", Error: ErrAlreadyActive.Error()},
		)
	} else if err != nil && err != ErrNoActivePeriod {
		return AcademicPeriod{}, err
	}
	return svc.repo.SetPeriodActive(id, true)
}

func (svc *service) Deactivate(id int) (AcademicPeriod, error) {
	return svc.repo.SetPeriodActive(id, false)
}
