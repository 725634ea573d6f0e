package sqlxrepos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core/period"
)

type periodRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r periodRow) toDomain() period.AcademicPeriod {
	return period.AcademicPeriod(r)
}

type periodRepository struct {
	db *sqlx.DB
}

var _ period.Repository = (*periodRepository)(nil)

func NewPeriodRepository(db *sqlx.DB) period.Repository {
	return &periodRepository{db: db}
}

func (r *periodRepository) CheckNameUniqueness(name string, excluded ...period.AcademicPeriod) error {
	query := `SELECT COUNT(*) FROM academic_period WHERE name = $1`
	args := []interface{}{name}
	if len(excluded) > 0 {
		ids := make([]int, 0, len(excluded))
		for _, p := range excluded {
			ids = append(ids, p.ID)
		}
		q, inArgs, err := sqlx.In(`SELECT COUNT(*) FROM academic_period WHERE name = ? AND id NOT IN (?)`, name, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query = r.db.Rebind(q)
		args = inArgs
	}

	var count int
	if err := r.db.Get(&count, query, args...); err != nil {
		return errors.Wrap(err, "checking period name uniqueness")
	}
	if count > 0 {
		return period.ErrNameExists
	}
	return nil
}

func (r *periodRepository) CreatePeriod(p period.AcademicPeriod) (period.AcademicPeriod, error) {
	const query = `
		INSERT INTO academic_period (name, start_date, end_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.db.Get(&p.ID, query, p.Name, p.StartDate, p.EndDate, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return period.AcademicPeriod{}, errors.Wrap(err, "creating period")
	}
	return p, nil
}

func (r *periodRepository) QueryAllPeriods() ([]period.AcademicPeriod, error) {
	var rows []periodRow
	if err := r.db.Select(&rows, `SELECT * FROM academic_period ORDER BY start_date DESC`); err != nil {
		return nil, errors.Wrap(err, "querying periods")
	}
	res := make([]period.AcademicPeriod, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toDomain())
	}
	return res, nil
}

func (r *periodRepository) GetPeriodByID(id int) (period.AcademicPeriod, error) {
	var row periodRow
	if err := r.db.Get(&row, `SELECT * FROM academic_period WHERE id = $1`, id); err != nil {
		return period.AcademicPeriod{}, wrapNotFound(err, period.ErrNotFound, "getting period")
	}
	return row.toDomain(), nil
}

func (r *periodRepository) GetActivePeriod() (period.AcademicPeriod, error) {
	var row periodRow
	if err := r.db.Get(&row, `SELECT * FROM academic_period WHERE is_active`); err != nil {
		return period.AcademicPeriod{}, wrapNotFound(err, period.ErrNoActivePeriod, "getting active period")
	}
	return row.toDomain(), nil
}

func (r *periodRepository) SetPeriodActive(id int, active bool) (period.AcademicPeriod, error) {
	const query = `
		UPDATE academic_period SET is_active = $2, updated_at = $3
		WHERE id = $1
		RETURNING *`
	var row periodRow
	if err := r.db.Get(&row, query, id, active, time.Now().UTC()); err != nil {
		return period.AcademicPeriod{}, wrapNotFound(err, period.ErrNotFound, "activating period")
	}
	return row.toDomain(), nil
}
