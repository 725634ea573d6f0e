package staff

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lusambya/kazi/core"
)

// Roles
const (
	RoleTeacher       Role = "TEACHER"
	RoleCoordinator   Role = "COORDINATOR"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// Capabilities. Authorization checks go through Role.Can so that every
// role-equivalence rule (e.g. coordinators reviewing but never resetting)
// lives in one table instead of scattered role comparisons.
const (
	CapReviewReports     Capability = "review_reports"     // beginReview / approve / return
	CapIrreversibleReset Capability = "irreversible_reset" // administrativeReset
	CapManagePeriods     Capability = "manage_periods"
	CapManageDeadlines   Capability = "manage_deadlines"
	CapManageStaff       Capability = "manage_staff"
	CapModerateActivity  Capability = "moderate_activity" // reject plans, delete any activity
)

type (
	Role       string
	Capability string
)

var (
	AllRoles = []Role{RoleTeacher, RoleCoordinator, RoleAdministrator}

	roleCapabilities = map[Role]map[Capability]bool{
		RoleTeacher: {},
		RoleCoordinator: {
			CapReviewReports: true,
		},
		RoleAdministrator: {
			CapReviewReports:     true,
			CapIrreversibleReset: true,
			CapManagePeriods:     true,
			CapManageDeadlines:   true,
			CapManageStaff:       true,
			CapModerateActivity:  true,
		},
	}
)

func (r Role) IsValid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

// Staff is a member of the academic staff (or an administrator account).
type Staff struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (s *Staff) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Staff) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(pwd))
}

func (s *Staff) IsAdmin() bool { return s.Role == RoleAdministrator }

// NewStaff contains information needed to create a new Staff member.
type NewStaff struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Role            Role   `json:"role" validate:"required,staffrole"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (ns *NewStaff) Validate(svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ns.Email)
}

// UpdateStaff defines what information may be provided to modify an existing Staff member.
type UpdateStaff struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            Role   `json:"role" validate:"omitempty,staffrole"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (us *UpdateStaff) Validate(orig Staff, svc Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}

	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}

	if us.Role == "" {
		us.Role = orig.Role
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(us.Email, orig)
}
