package staff

import (
	"errors"
	"time"

	"github.com/lusambya/kazi/core"
)

var (
	// errors
	ErrNotFound    = errors.New("staff member not found")
	ErrEmailExists = errors.New("a staff member with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excluded ...Staff) error
		CreateStaff(member Staff) (Staff, error)
		QueryAllStaff() ([]Staff, error)
		GetStaffByID(id int) (Staff, error)
		GetStaffByEmail(email string) (Staff, error)
		UpdateStaff(member Staff, isActive *bool) (Staff, error)
		SetStaffLastLogin(id int, at time.Time) (Staff, error)
		DeleteStaffByID(ids ...int) error
	}

	// Service is the identity/role provider: the rest of the core asks it
	// for the acting user's role before authorizing transitions.
	Service interface {
		CheckUniqueness(email string, excluded ...Staff) error
		Create(ns NewStaff) (Staff, error)
		QueryAll() ([]Staff, error)
		GetByID(id int) (Staff, error)
		GetByEmail(email string) (Staff, error)
		GetActorRole(actorID int) (Role, error)
		Update(id int, us UpdateStaff) (Staff, error)
		SetLastLogin(id int) (Staff, error)
		Delete(ids ...int) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(email string, excluded ...Staff) error {
	if err := svc.repo.CheckEmailUniqueness(email, excluded...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ns NewStaff) (Staff, error) {
	now := time.Now().UTC()
	member := Staff{
		Name:      ns.Name,
		Email:     ns.Email,
		Role:      ns.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := member.SetPassword(ns.Password); err != nil {
		return Staff{}, err
	}
	return svc.repo.CreateStaff(member)
}

func (svc *service) QueryAll() ([]Staff, error) {
	return svc.repo.QueryAllStaff()
}

func (svc *service) GetByID(id int) (Staff, error) {
	return svc.repo.GetStaffByID(id)
}

func (svc *service) GetByEmail(email string) (Staff, error) {
	return svc.repo.GetStaffByEmail(core.CleanString(email, true /* lower */))
}

func (svc *service) GetActorRole(actorID int) (Role, error) {
	member, err := svc.repo.GetStaffByID(actorID)
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

func (svc *service) Update(id int, us UpdateStaff) (Staff, error) {
	member := Staff{
		ID:        id,
		Name:      us.Name,
		Email:     us.Email,
		Role:      us.Role,
		UpdatedAt: time.Now().UTC(),
	}
	if us.Password != "" {
		if err := member.SetPassword(us.Password); err != nil {
			return Staff{}, err
		}
	}
	return svc.repo.UpdateStaff(member, us.IsActive)
}

func (svc *service) SetLastLogin(id int) (Staff, error) {
	return svc.repo.SetStaffLastLogin(id, time.Now().UTC())
}

func (svc *service) Delete(ids ...int) error {
	return svc.repo.DeleteStaffByID(ids...)
}
