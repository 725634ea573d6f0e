package sqlxrepos

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lusambya/kazi/services/notification"
)

type outboxRow struct {
	ID          int       `db:"id"`
	EventID     uuid.UUID `db:"event_id"`
	Name        string    `db:"name"`
	Payload     []byte    `db:"payload"`
	OccurredAt  time.Time `db:"occurred_at"`
	DeliveredAt null.Time `db:"delivered_at"`
	Attempts    int       `db:"attempts"`
}

func (r outboxRow) toDomain() notification.OutboxEntry {
	return notification.OutboxEntry(r)
}

type outboxRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*outboxRepository)(nil)

func NewOutboxRepository(db *sqlx.DB) notification.Repository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) AppendOutboxEntries(entries ...notification.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "beginning tx")
	}
	defer rollback(tx)

	const query = `
		INSERT INTO outbox (event_id, name, payload, occurred_at, attempts)
		VALUES ($1, $2, $3, $4, 0)`
	for _, entry := range entries {
		if _, err = tx.Exec(query, entry.EventID, entry.Name, entry.Payload, entry.OccurredAt); err != nil {
			return errors.Wrap(err, "appending outbox entry")
		}
	}
	return errors.Wrap(tx.Commit(), "committing tx")
}

func (r *outboxRepository) QueryPendingOutbox(limit int) ([]notification.OutboxEntry, error) {
	const query = `
		SELECT id, event_id, name, payload, occurred_at, delivered_at, attempts
		FROM outbox
		WHERE delivered_at IS NULL
		ORDER BY id
		LIMIT $1`
	var rows []outboxRow
	if err := r.db.Select(&rows, query, limit); err != nil {
		return nil, errors.Wrap(err, "querying pending outbox")
	}
	res := make([]notification.OutboxEntry, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toDomain())
	}
	return res, nil
}

func (r *outboxRepository) MarkOutboxDelivered(ids []int, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		`UPDATE outbox SET delivered_at = ?, attempts = attempts + 1 WHERE id IN (?)`, at, ids)
	if err != nil {
		return errors.Wrap(err, "building delivered query")
	}
	if _, err = r.db.Exec(r.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "marking outbox delivered")
	}
	return nil
}

func (r *outboxRepository) MarkOutboxAttempted(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE outbox SET attempts = attempts + 1 WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building attempts query")
	}
	if _, err = r.db.Exec(r.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "marking outbox attempts")
	}
	return nil
}
