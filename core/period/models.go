package period

import (
	"time"

	"github.com/lusambya/kazi/core"
)

// AcademicPeriod is a semester (or equivalent) that activities and reports
// belong to. At most one period is active at a time; the active one is the
// default target for new activities.
type AcademicPeriod struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewPeriod contains information needed to create a new AcademicPeriod.
type NewPeriod struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

func (np *NewPeriod) Validate(svc Service) error {
	np.Name = core.CleanString(np.Name)

	if err := core.Validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckUniqueness(np.Name)
}
