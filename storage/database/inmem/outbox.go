package inmemdb

import (
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/lusambya/kazi/services/notification"
)

type outboxRepository struct {
	db *outboxTable
}

var _ notification.Repository = (*outboxRepository)(nil)

func NewOutboxRepository(db *DB) notification.Repository {
	return &outboxRepository{db: db.outbox}
}

func (r *outboxRepository) AppendOutboxEntries(entries ...notification.OutboxEntry) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	for _, entry := range entries {
		r.db.seq++
		entry.ID = r.db.seq
		e := entry
		r.db.t[e.ID] = &e
	}
	return nil
}

func (r *outboxRepository) QueryPendingOutbox(limit int) ([]notification.OutboxEntry, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]notification.OutboxEntry, 0)
	for _, entry := range r.db.t {
		if !entry.DeliveredAt.Valid {
			res = append(res, *entry)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *outboxRepository) MarkOutboxDelivered(ids []int, at time.Time) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	for _, id := range ids {
		if entry, ok := r.db.t[id]; ok {
			entry.DeliveredAt = null.TimeFrom(at)
			entry.Attempts++
		}
	}
	return nil
}

func (r *outboxRepository) MarkOutboxAttempted(ids []int) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	for _, id := range ids {
		if entry, ok := r.db.t[id]; ok {
			entry.Attempts++
		}
	}
	return nil
}
