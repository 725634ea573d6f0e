package sqlxrepos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core/deadline"
)

type deadlineRow struct {
	ID           int       `db:"id"`
	PeriodID     int       `db:"period_id"`
	Name         string    `db:"name"`
	Category     string    `db:"category"`
	DueDate      time.Time `db:"due_date"`
	ReminderDays int       `db:"reminder_days"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r deadlineRow) toDomain() deadline.Deadline {
	return deadline.Deadline{
		ID:           r.ID,
		PeriodID:     r.PeriodID,
		Name:         r.Name,
		Category:     deadline.Category(r.Category),
		DueDate:      r.DueDate,
		ReminderDays: r.ReminderDays,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type deadlineRepository struct {
	db *sqlx.DB
}

var _ deadline.Repository = (*deadlineRepository)(nil)

func NewDeadlineRepository(db *sqlx.DB) deadline.Repository {
	return &deadlineRepository{db: db}
}

func (r *deadlineRepository) CreateDeadline(d deadline.Deadline) (deadline.Deadline, error) {
	const query = `
		INSERT INTO deadline (period_id, name, category, due_date, reminder_days, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.db.Get(&d.ID, query, d.PeriodID, d.Name, d.Category, d.DueDate,
		d.ReminderDays, d.IsActive, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return deadline.Deadline{}, errors.Wrap(err, "creating deadline")
	}
	return d, nil
}

func (r *deadlineRepository) GetDeadlineByID(id int) (deadline.Deadline, error) {
	var row deadlineRow
	if err := r.db.Get(&row, `SELECT * FROM deadline WHERE id = $1`, id); err != nil {
		return deadline.Deadline{}, wrapNotFound(err, deadline.ErrNotFound, "getting deadline")
	}
	return row.toDomain(), nil
}

func (r *deadlineRepository) QueryDeadlinesByPeriod(periodID int) ([]deadline.Deadline, error) {
	var rows []deadlineRow
	err := r.db.Select(&rows, `SELECT * FROM deadline WHERE period_id = $1 ORDER BY due_date`, periodID)
	if err != nil {
		return nil, errors.Wrap(err, "querying deadlines")
	}
	res := make([]deadline.Deadline, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toDomain())
	}
	return res, nil
}

func (r *deadlineRepository) GetAuthoritativeDeadline(periodID int, category deadline.Category) (deadline.Deadline, error) {
	const query = `
		SELECT * FROM deadline
		WHERE period_id = $1 AND category = $2 AND is_active
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	var row deadlineRow
	if err := r.db.Get(&row, query, periodID, category); err != nil {
		return deadline.Deadline{}, wrapNotFound(err, deadline.ErrNotFound, "getting authoritative deadline")
	}
	return row.toDomain(), nil
}

func (r *deadlineRepository) UpdateDeadline(d deadline.Deadline) (deadline.Deadline, error) {
	const query = `
		UPDATE deadline SET
			name = $2, category = $3, due_date = $4,
			reminder_days = $5, is_active = $6, updated_at = $7
		WHERE id = $1
		RETURNING *`
	var row deadlineRow
	err := r.db.Get(&row, query, d.ID, d.Name, d.Category, d.DueDate, d.ReminderDays, d.IsActive, d.UpdatedAt)
	if err != nil {
		return deadline.Deadline{}, wrapNotFound(err, deadline.ErrNotFound, "updating deadline")
	}
	return row.toDomain(), nil
}

func (r *deadlineRepository) DeleteDeadline(id int) error {
	res, err := r.db.Exec(`DELETE FROM deadline WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting deadline")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return deadline.ErrNotFound
	}
	return nil
}
