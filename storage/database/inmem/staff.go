package inmemdb

import (
	"time"

	"github.com/lusambya/kazi/core/staff"
)

type staffRepository struct {
	db *staffTable
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(db *DB) staff.Repository {
	return &staffRepository{db: db.staff}
}

func (r *staffRepository) query() []staff.Staff {
	res := make([]staff.Staff, 0, len(r.db.t))
	for _, m := range r.db.t {
		res = append(res, *m)
	}
	return res
}

func (r *staffRepository) CheckEmailUniqueness(email string, excluded ...staff.Staff) error {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	excl := make(map[int]bool, len(excluded))
	for _, m := range excluded {
		excl[m.ID] = true
	}
	for _, m := range r.query() {
		if !excl[m.ID] && m.Email == email {
			return staff.ErrEmailExists
		}
	}
	return nil
}

func (r *staffRepository) CreateStaff(member staff.Staff) (staff.Staff, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.seq++
	member.ID = r.db.seq
	r.db.t[member.ID] = &member
	return member, nil
}

func (r *staffRepository) QueryAllStaff() ([]staff.Staff, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	return r.query(), nil
}

func (r *staffRepository) GetStaffByID(id int) (staff.Staff, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if m, ok := r.db.t[id]; ok {
		return *m, nil
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (r *staffRepository) GetStaffByEmail(email string) (staff.Staff, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	for _, m := range r.query() {
		if m.Email == email {
			return m, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (r *staffRepository) UpdateStaff(member staff.Staff, isActive *bool) (staff.Staff, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	orig, ok := r.db.t[member.ID]
	if !ok {
		return staff.Staff{}, staff.ErrNotFound
	}

	next := *orig
	next.Name = member.Name
	next.Email = member.Email
	next.Role = member.Role
	next.UpdatedAt = member.UpdatedAt
	if member.PasswordHash != nil {
		next.PasswordHash = member.PasswordHash
	}
	if isActive != nil {
		next.IsActive = *isActive
	}
	r.db.t[next.ID] = &next
	return next, nil
}

func (r *staffRepository) SetStaffLastLogin(id int, at time.Time) (staff.Staff, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	m, ok := r.db.t[id]
	if !ok {
		return staff.Staff{}, staff.ErrNotFound
	}
	m.LastLogin = at
	return *m, nil
}

func (r *staffRepository) DeleteStaffByID(ids ...int) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	for _, id := range ids {
		delete(r.db.t, id)
	}
	return nil
}
