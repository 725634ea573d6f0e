package inmemdb

import (
	"github.com/lusambya/kazi/core"
	"github.com/lusambya/kazi/core/activity"
)

type activityRepository struct {
	db *activityTable
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db.activity}
}

func (r *activityRepository) query() []activity.Activity {
	res := make([]activity.Activity, 0, len(r.db.t))
	for _, a := range r.db.t {
		res = append(res, *a)
	}
	return res
}

func (r *activityRepository) CreateActivity(a activity.Activity) (activity.Activity, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.seq++
	a.ID = r.db.seq
	r.db.t[a.ID] = &a
	return a, nil
}

func (r *activityRepository) GetActivityByID(id int) (activity.Activity, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if a, ok := r.db.t[id]; ok {
		return *a, nil
	}
	return activity.Activity{}, activity.ErrNotFound
}

func (r *activityRepository) QueryActivitiesByOwner(ownerID, periodID int) ([]activity.Activity, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]activity.Activity, 0)
	for _, a := range r.query() {
		if a.OwnerID == ownerID && (periodID == 0 || a.PeriodID == periodID) {
			res = append(res, a)
		}
	}
	return res, nil
}

func (r *activityRepository) QueryActivitiesByPeriod(periodID int) ([]activity.Activity, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]activity.Activity, 0)
	for _, a := range r.query() {
		if a.PeriodID == periodID {
			res = append(res, a)
		}
	}
	return res, nil
}

func (r *activityRepository) UpdateActivity(a activity.Activity) (activity.Activity, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	stored, ok := r.db.t[a.ID]
	if !ok {
		return activity.Activity{}, activity.ErrNotFound
	}
	if stored.Version != a.Version {
		return activity.Activity{}, core.NewConcurrentModificationError("activity", a.ID)
	}
	a.Version++
	r.db.t[a.ID] = &a
	return a, nil
}

func (r *activityRepository) DeleteActivity(id int) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[id]; !ok {
		return activity.ErrNotFound
	}
	delete(r.db.t, id)
	return nil
}
