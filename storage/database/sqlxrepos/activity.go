package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/activity"
)

type activityRow struct {
	ID                   int         `db:"id"`
	OwnerID              int         `db:"owner_id"`
	PeriodID             int         `db:"period_id"`
	Title                string      `db:"title"`
	Description          string      `db:"description"`
	Category             string      `db:"category"`
	StartDate            time.Time   `db:"start_date"`
	EndDate              time.Time   `db:"end_date"`
	EstimatedHours       int         `db:"estimated_hours"`
	DedicatedHours       int         `db:"dedicated_hours"`
	Location             null.String `db:"location"`
	Objectives           null.String `db:"objectives"`
	Resources            null.String `db:"resources"`
	Budget               null.String `db:"budget"`
	ExpectedParticipants null.Int    `db:"expected_participants"`
	PlanningState        string      `db:"planning_state"`
	RealizationState     string      `db:"realization_state"`
	Version              int         `db:"version"`
	CreatedAt            time.Time   `db:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at"`
}

func (r activityRow) toDomain() activity.Activity {
	return activity.Activity{
		ID:                   r.ID,
		OwnerID:              r.OwnerID,
		PeriodID:             r.PeriodID,
		Title:                r.Title,
		Description:          r.Description,
		Category:             activity.Category(r.Category),
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		EstimatedHours:       r.EstimatedHours,
		DedicatedHours:       r.DedicatedHours,
		Location:             r.Location,
		Objectives:           r.Objectives,
		Resources:            r.Resources,
		Budget:               r.Budget,
		ExpectedParticipants: r.ExpectedParticipants,
		PlanningState:        activity.PlanningState(r.PlanningState),
		RealizationState:     activity.RealizationState(r.RealizationState),
		Version:              r.Version,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

type activityRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(db *sqlx.DB) activity.Repository {
	return &activityRepository{db: db}
}

func (r *activityRepository) CreateActivity(a activity.Activity) (activity.Activity, error) {
	const query = `
		INSERT INTO activity (
			owner_id, period_id, title, description, category, start_date, end_date,
			estimated_hours, dedicated_hours, location, objectives, resources, budget,
			expected_participants, planning_state, realization_state, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`
	err := r.db.Get(&a.ID, query,
		a.OwnerID, a.PeriodID, a.Title, a.Description, a.Category, a.StartDate, a.EndDate,
		a.EstimatedHours, a.DedicatedHours, a.Location, a.Objectives, a.Resources, a.Budget,
		a.ExpectedParticipants, a.PlanningState, a.RealizationState, a.Version, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "creating activity")
	}
	return a, nil
}

func (r *activityRepository) GetActivityByID(id int) (activity.Activity, error) {
	var row activityRow
	if err := r.db.Get(&row, `SELECT * FROM activity WHERE id = $1`, id); err != nil {
		return activity.Activity{}, wrapNotFound(err, activity.ErrNotFound, "getting activity")
	}
	return row.toDomain(), nil
}

func (r *activityRepository) QueryActivitiesByOwner(ownerID, periodID int) ([]activity.Activity, error) {
	query := `SELECT * FROM activity WHERE owner_id = $1 ORDER BY start_date`
	args := []interface{}{ownerID}
	if periodID != 0 {
		query = `SELECT * FROM activity WHERE owner_id = $1 AND period_id = $2 ORDER BY start_date`
		args = append(args, periodID)
	}

	var rows []activityRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	res := make([]activity.Activity, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toDomain())
	}
	return res, nil
}

func (r *activityRepository) QueryActivitiesByPeriod(periodID int) ([]activity.Activity, error) {
	var rows []activityRow
	err := r.db.Select(&rows, `SELECT * FROM activity WHERE period_id = $1 ORDER BY start_date`, periodID)
	if err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	res := make([]activity.Activity, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toDomain())
	}
	return res, nil
}

func (r *activityRepository) UpdateActivity(a activity.Activity) (activity.Activity, error) {
	const query = `
		UPDATE activity SET
			title = $3, description = $4, category = $5, start_date = $6, end_date = $7,
			estimated_hours = $8, dedicated_hours = $9, location = $10, objectives = $11,
			resources = $12, budget = $13, expected_participants = $14,
			planning_state = $15, realization_state = $16,
			version = version + 1, updated_at = $17
		WHERE id = $1 AND version = $2
		RETURNING *`
	var row activityRow
	err := r.db.Get(&row, query, a.ID, a.Version,
		a.Title, a.Description, a.Category, a.StartDate, a.EndDate,
		a.EstimatedHours, a.DedicatedHours, a.Location, a.Objectives,
		a.Resources, a.Budget, a.ExpectedParticipants,
		a.PlanningState, a.RealizationState, a.UpdatedAt)
	if err == nil {
		return row.toDomain(), nil
	}
	if err != sql.ErrNoRows {
		return activity.Activity{}, errors.Wrap(err, "updating activity")
	}

	// no row matched: distinguish a lost version race from a missing row
	if _, gErr := r.GetActivityByID(a.ID); gErr == nil {
		return activity.Activity{}, core.NewConcurrentModificationError("activity", a.ID)
	}
	return activity.Activity{}, wrapNotFound(err, activity.ErrNotFound, "updating activity")
}

func (r *activityRepository) DeleteActivity(id int) error {
	res, err := r.db.Exec(`DELETE FROM activity WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting activity")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return activity.ErrNotFound
	}
	return nil
}
