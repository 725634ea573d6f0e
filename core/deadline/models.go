package deadline

import (
	"fmt"
	"time"

	"github.com/lusambya/kazi/core"
)

// Deadline categories. Each gates a different part of the workflow;
// REGISTRATION is the one that gates activity mutation.
const (
	CategoryRegistration Category = "REGISTRATION"
	CategorySubmission   Category = "SUBMISSION"
	CategoryReview       Category = "REVIEW"
	CategoryEvaluation   Category = "EVALUATION"
)

type Category string

var AllCategories = []Category{CategoryRegistration, CategorySubmission, CategoryReview, CategoryEvaluation}

func (c Category) IsValid() bool {
	for _, cat := range AllCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// Deadline is a category-scoped cutoff date within an academic period.
// When several active deadlines exist for the same (period, category), the
// most recently created one is authoritative.
type Deadline struct {
	ID           int       `json:"id"`
	PeriodID     int       `json:"period_id"`
	Name         string    `json:"name"`
	Category     Category  `json:"category"`
	DueDate      time.Time `json:"due_date"`
	ReminderDays int       `json:"reminder_days"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewDeadline contains information needed to create a new Deadline.
type NewDeadline struct {
	PeriodID     int       `json:"period_id" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	Category     Category  `json:"category" validate:"required,deadlinecategory"`
	DueDate      time.Time `json:"due_date" validate:"required"`
	ReminderDays int       `json:"reminder_days" validate:"omitempty,min=0"`
}

func (nd *NewDeadline) Validate() error {
	nd.Name = core.CleanString(nd.Name)
	return core.Validate.Struct(nd)
}

// UpdateDeadline defines what may be changed on an existing Deadline.
// Nil/zero fields are left untouched.
type UpdateDeadline struct {
	Name         string     `json:"name"`
	Category     Category   `json:"category" validate:"omitempty,deadlinecategory"`
	DueDate      *time.Time `json:"due_date"`
	ReminderDays *int       `json:"reminder_days" validate:"omitempty"`
	IsActive     *bool      `json:"is_active"`
}

func (ud *UpdateDeadline) Validate() error {
	ud.Name = core.CleanString(ud.Name)
	return core.Validate.Struct(ud)
}

// FieldChange records one tracked field's old and new value for a
// DeadlineChanged notification.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

func (fc FieldChange) String() string {
	return fmt.Sprintf("%s: %s -> %s", fc.Field, fc.Old, fc.New)
}

// ChangedEvent is the payload of a core.EventDeadlineChanged event.
// Exactly one is emitted per successful write that touches a tracked field,
// no matter how many fields the write changed.
type ChangedEvent struct {
	Deadline Deadline      `json:"deadline"`
	Action   string        `json:"action"` // created | updated | deleted
	Changes  []FieldChange `json:"changes"`
}

func (e ChangedEvent) Description() string {
	desc := fmt.Sprintf("deadline %q (%s) %s", e.Deadline.Name, e.Deadline.Category, e.Action)
	for _, c := range e.Changes {
		desc += "; " + c.String()
	}
	return desc
}

// diff returns the tracked-field changes between two deadline values.
func diff(old, new Deadline) []FieldChange {
	var changes []FieldChange
	if !old.DueDate.Equal(new.DueDate) {
		changes = append(changes, FieldChange{
			Field: "due_date",
			Old:   old.DueDate.Format("2006-01-02"),
			New:   new.DueDate.Format("2006-01-02"),
		})
	}
	if old.Name != new.Name {
		changes = append(changes, FieldChange{Field: "name", Old: old.Name, New: new.Name})
	}
	if old.Category != new.Category {
		changes = append(changes, FieldChange{Field: "category", Old: string(old.Category), New: string(new.Category)})
	}
	if old.IsActive != new.IsActive {
		changes = append(changes, FieldChange{
			Field: "is_active",
			Old:   fmt.Sprintf("%t", old.IsActive),
			New:   fmt.Sprintf("%t", new.IsActive),
		})
	}
	return changes
}
