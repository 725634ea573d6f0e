package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/lusambya/kazi/core/staff"
)

type staffRow struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    time.Time `db:"last_login"`
}

func (r staffRow) toDomain() staff.Staff {
	return staff.Staff{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         staff.Role(r.Role),
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
}

type staffRepository struct {
	db *sqlx.DB
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(db *sqlx.DB) staff.Repository {
	return &staffRepository{db: db}
}

func (r *staffRepository) CheckEmailUniqueness(email string, excluded ...staff.Staff) error {
	query := `SELECT COUNT(*) FROM staff WHERE email = $1`
	args := []interface{}{email}
	if len(excluded) > 0 {
		ids := make([]int, 0, len(excluded))
		for _, m := range excluded {
			ids = append(ids, m.ID)
		}
		q, inArgs, err := sqlx.In(`SELECT COUNT(*) FROM staff WHERE email = ? AND id NOT IN (?)`, email, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		query = r.db.Rebind(q)
		args = inArgs
	}

	var count int
	if err := r.db.Get(&count, query, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return staff.ErrEmailExists
	}
	return nil
}

func (r *staffRepository) CreateStaff(member staff.Staff) (staff.Staff, error) {
	const query = `
		INSERT INTO staff (name, email, role, is_active, password_hash, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.db.Get(&member.ID, query,
		member.Name, member.Email, member.Role, member.IsActive,
		member.PasswordHash, member.CreatedAt, member.UpdatedAt, member.LastLogin)
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "creating staff")
	}
	return member, nil
}

func (r *staffRepository) QueryAllStaff() ([]staff.Staff, error) {
	var rows []staffRow
	if err := r.db.Select(&rows, `SELECT * FROM staff ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying staff")
	}
	res := make([]staff.Staff, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toDomain())
	}
	return res, nil
}

func (r *staffRepository) GetStaffByID(id int) (staff.Staff, error) {
	var row staffRow
	if err := r.db.Get(&row, `SELECT * FROM staff WHERE id = $1`, id); err != nil {
		return staff.Staff{}, wrapNotFound(err, staff.ErrNotFound, "getting staff")
	}
	return row.toDomain(), nil
}

func (r *staffRepository) GetStaffByEmail(email string) (staff.Staff, error) {
	var row staffRow
	if err := r.db.Get(&row, `SELECT * FROM staff WHERE email = $1`, email); err != nil {
		return staff.Staff{}, wrapNotFound(err, staff.ErrNotFound, "getting staff")
	}
	return row.toDomain(), nil
}

func (r *staffRepository) UpdateStaff(member staff.Staff, isActive *bool) (staff.Staff, error) {
	const query = `
		UPDATE staff SET
			name = $2,
			email = $3,
			role = $4,
			password_hash = COALESCE(NULLIF($5, ''::bytea), password_hash),
			is_active = COALESCE($6, is_active),
			updated_at = $7
		WHERE id = $1
		RETURNING *`
	var active sql.NullBool
	if isActive != nil {
		active = sql.NullBool{Bool: *isActive, Valid: true}
	}

	var row staffRow
	err := r.db.Get(&row, query, member.ID, member.Name, member.Email, member.Role,
		member.PasswordHash, active, member.UpdatedAt)
	if err != nil {
		return staff.Staff{}, wrapNotFound(err, staff.ErrNotFound, "updating staff")
	}
	return row.toDomain(), nil
}

func (r *staffRepository) SetStaffLastLogin(id int, at time.Time) (staff.Staff, error) {
	var row staffRow
	err := r.db.Get(&row, `UPDATE staff SET last_login = $2 WHERE id = $1 RETURNING *`, id, at)
	if err != nil {
		return staff.Staff{}, wrapNotFound(err, staff.ErrNotFound, "setting last login")
	}
	return row.toDomain(), nil
}

func (r *staffRepository) DeleteStaffByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM staff WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = r.db.Exec(r.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting staff")
	}
	return nil
}
