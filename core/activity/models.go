package activity

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/lusambya/kazi/core"
)

// Activity categories. The set is fixed; anything else fails validation.
const (
	CategoryTeaching       Category = "TEACHING"
	CategoryResearch       Category = "RESEARCH"
	CategoryOutreach       Category = "OUTREACH"
	CategoryAdministration Category = "ADMINISTRATION"
	CategoryTraining       Category = "TRAINING"
	CategoryOther          Category = "OTHER"
)

// Planning states. Rejection is one-way: there is no transition back to
// PENDING once a plan is rejected.
const (
	PlanningPending  PlanningState = "PENDING"
	PlanningRejected PlanningState = "REJECTED"
)

// Realization states, set while reporting on execution.
const (
	RealizationNotDone    RealizationState = "NOT_DONE"
	RealizationInProgress RealizationState = "IN_PROGRESS"
	RealizationCompleted  RealizationState = "COMPLETED"
	RealizationIncomplete RealizationState = "INCOMPLETE"
)

type (
	Category         string
	PlanningState    string
	RealizationState string
)

var (
	AllCategories = []Category{
		CategoryTeaching, CategoryResearch, CategoryOutreach,
		CategoryAdministration, CategoryTraining, CategoryOther,
	}

	realizationTransitions = map[RealizationState][]RealizationState{
		RealizationNotDone:    {RealizationInProgress, RealizationIncomplete},
		RealizationInProgress: {RealizationCompleted, RealizationIncomplete},
		RealizationCompleted:  {},
		RealizationIncomplete: {},
	}
)

func (c Category) IsValid() bool {
	for _, cat := range AllCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the realization state may move to `to`.
func (s RealizationState) CanTransitionTo(to RealizationState) bool {
	for _, allowed := range realizationTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Activity is a single planned or executed unit of academic work owned by
// one staff member in one period.
type Activity struct {
	ID                   int              `json:"id"`
	OwnerID              int              `json:"owner_id"`
	PeriodID             int              `json:"period_id"`
	Title                string           `json:"title"`
	Description          string           `json:"description"`
	Category             Category         `json:"category"`
	StartDate            time.Time        `json:"start_date"`
	EndDate              time.Time        `json:"end_date"`
	EstimatedHours       int              `json:"estimated_hours"`
	DedicatedHours       int              `json:"dedicated_hours"`
	Location             null.String      `json:"location"`
	Objectives           null.String      `json:"objectives"`
	Resources            null.String      `json:"resources"`
	Budget               null.String      `json:"budget"`
	ExpectedParticipants null.Int         `json:"expected_participants"`
	PlanningState        PlanningState    `json:"planning_state"`
	RealizationState     RealizationState `json:"realization_state"`
	Version              int              `json:"version"`
	CreatedAt            time.Time        `json:"created_at"` // UTC
	UpdatedAt            time.Time        `json:"updated_at"` // UTC
}

// NewActivity contains information needed to plan a new Activity.
type NewActivity struct {
	PeriodID             int         `json:"period_id" validate:"required"`
	Title                string      `json:"title" validate:"required"`
	Description          string      `json:"description"`
	Category             Category    `json:"category" validate:"required,activitycategory"`
	StartDate            time.Time   `json:"start_date" validate:"required"`
	EndDate              time.Time   `json:"end_date" validate:"required,gtefield=StartDate"`
	EstimatedHours       int         `json:"estimated_hours" validate:"omitempty,min=0"`
	Location             null.String `json:"location"`
	Objectives           null.String `json:"objectives"`
	Resources            null.String `json:"resources"`
	Budget               null.String `json:"budget"`
	ExpectedParticipants null.Int    `json:"expected_participants" validate:"omitempty"`
}

func (na *NewActivity) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return core.Validate.Struct(na)
}

// UpdateActivity defines what may be changed on an existing Activity.
// Zero/nil fields are left untouched.
type UpdateActivity struct {
	Title                string      `json:"title"`
	Description          *string     `json:"description"`
	Category             Category    `json:"category" validate:"omitempty,activitycategory"`
	StartDate            *time.Time  `json:"start_date"`
	EndDate              *time.Time  `json:"end_date"`
	EstimatedHours       *int        `json:"estimated_hours" validate:"omitempty"`
	DedicatedHours       *int        `json:"dedicated_hours" validate:"omitempty"`
	Location             null.String `json:"location"`
	Objectives           null.String `json:"objectives"`
	Resources            null.String `json:"resources"`
	Budget               null.String `json:"budget"`
	ExpectedParticipants null.Int    `json:"expected_participants"`
}

func (ua *UpdateActivity) Validate() error {
	ua.Title = core.CleanString(ua.Title)
	return core.Validate.Struct(ua)
}

// apply merges the update into a copy of orig.
func (ua UpdateActivity) apply(orig Activity) Activity {
	next := orig
	if ua.Title != "" {
		next.Title = ua.Title
	}
	if ua.Description != nil {
		next.Description = *ua.Description
	}
	if ua.Category != "" {
		next.Category = ua.Category
	}
	if ua.StartDate != nil {
		next.StartDate = *ua.StartDate
	}
	if ua.EndDate != nil {
		next.EndDate = *ua.EndDate
	}
	if ua.EstimatedHours != nil {
		next.EstimatedHours = *ua.EstimatedHours
	}
	if ua.DedicatedHours != nil {
		next.DedicatedHours = *ua.DedicatedHours
	}
	if ua.Location.Valid {
		next.Location = ua.Location
	}
	if ua.Objectives.Valid {
		next.Objectives = ua.Objectives
	}
	if ua.Resources.Valid {
		next.Resources = ua.Resources
	}
	if ua.Budget.Valid {
		next.Budget = ua.Budget
	}
	if ua.ExpectedParticipants.Valid {
		next.ExpectedParticipants = ua.ExpectedParticipants
	}
	return next
}
