package inmemdb

import "github.com/lusambya/kazi/core/deadline"

type deadlineRepository struct {
	db *deadlineTable
}

var _ deadline.Repository = (*deadlineRepository)(nil)

func NewDeadlineRepository(db *DB) deadline.Repository {
	return &deadlineRepository{db: db.deadline}
}

func (r *deadlineRepository) query() []deadline.Deadline {
	res := make([]deadline.Deadline, 0, len(r.db.t))
	for _, d := range r.db.t {
		res = append(res, *d)
	}
	return res
}

func (r *deadlineRepository) CreateDeadline(d deadline.Deadline) (deadline.Deadline, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.seq++
	d.ID = r.db.seq
	r.db.t[d.ID] = &d
	return d, nil
}

func (r *deadlineRepository) GetDeadlineByID(id int) (deadline.Deadline, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if d, ok := r.db.t[id]; ok {
		return *d, nil
	}
	return deadline.Deadline{}, deadline.ErrNotFound
}

func (r *deadlineRepository) QueryDeadlinesByPeriod(periodID int) ([]deadline.Deadline, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]deadline.Deadline, 0)
	for _, d := range r.query() {
		if d.PeriodID == periodID {
			res = append(res, d)
		}
	}
	return res, nil
}

func (r *deadlineRepository) GetAuthoritativeDeadline(periodID int, category deadline.Category) (deadline.Deadline, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	var best *deadline.Deadline
	for _, d := range r.query() {
		d := d
		if d.PeriodID != periodID || d.Category != category || !d.IsActive {
			continue
		}
		// the most recently created active deadline governs
		if best == nil || d.CreatedAt.After(best.CreatedAt) || (d.CreatedAt.Equal(best.CreatedAt) && d.ID > best.ID) {
			best = &d
		}
	}
	if best == nil {
		return deadline.Deadline{}, deadline.ErrNotFound
	}
	return *best, nil
}

func (r *deadlineRepository) UpdateDeadline(d deadline.Deadline) (deadline.Deadline, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[d.ID]; !ok {
		return deadline.Deadline{}, deadline.ErrNotFound
	}
	r.db.t[d.ID] = &d
	return d, nil
}

func (r *deadlineRepository) DeleteDeadline(id int) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[id]; !ok {
		return deadline.ErrNotFound
	}
	delete(r.db.t, id)
	return nil
}
