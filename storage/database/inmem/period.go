package inmemdb

import (
	"time"

	"github.com/lusambya/kazi/core/period"
)

type periodRepository struct {
	db *periodTable
}

var _ period.Repository = (*periodRepository)(nil)

func NewPeriodRepository(db *DB) period.Repository {
	return &periodRepository{db: db.period}
}

func (r *periodRepository) query() []period.AcademicPeriod {
	res := make([]period.AcademicPeriod, 0, len(r.db.t))
	for _, p := range r.db.t {
		res = append(res, *p)
	}
	return res
}

func (r *periodRepository) CheckNameUniqueness(name string, excluded ...period.AcademicPeriod) error {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	excl := make(map[int]bool, len(excluded))
	for _, p := range excluded {
		excl[p.ID] = true
	}
	for _, p := range r.query() {
		if !excl[p.ID] && p.Name == name {
			return period.ErrNameExists
		}
	}
	return nil
}

func (r *periodRepository) CreatePeriod(p period.AcademicPeriod) (period.AcademicPeriod, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.seq++
	p.ID = r.db.seq
	r.db.t[p.ID] = &p
	return p, nil
}

func (r *periodRepository) QueryAllPeriods() ([]period.AcademicPeriod, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()
	return r.query(), nil
}

func (r *periodRepository) GetPeriodByID(id int) (period.AcademicPeriod, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if p, ok := r.db.t[id]; ok {
		return *p, nil
	}
	return period.AcademicPeriod{}, period.ErrNotFound
}

func (r *periodRepository) GetActivePeriod() (period.AcademicPeriod, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	for _, p := range r.query() {
		if p.IsActive {
			return p, nil
		}
	}
	return period.AcademicPeriod{}, period.ErrNoActivePeriod
}

func (r *periodRepository) SetPeriodActive(id int, active bool) (period.AcademicPeriod, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	p, ok := r.db.t[id]
	if !ok {
		return period.AcademicPeriod{}, period.ErrNotFound
	}
	next := *p
	next.IsActive = active
	next.UpdatedAt = time.Now().UTC()
	r.db.t[id] = &next
	return next, nil
}
