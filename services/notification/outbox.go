package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/lusambya/kazi/core"
)

// OutboxEntry is one queued event awaiting delivery. Appending an entry is
// cheap and local; delivery happens out of band so that a slow or failing
// dispatcher can never block a workflow transition.
type OutboxEntry struct {
	ID          int       `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	Name        string    `json:"name"`
	Payload     []byte    `json:"payload"`
	OccurredAt  time.Time `json:"occurred_at"` // UTC
	DeliveredAt null.Time `json:"delivered_at"`
	Attempts    int       `json:"attempts"`
}

type Repository interface {
	AppendOutboxEntries(entries ...OutboxEntry) error
	// QueryPendingOutbox returns undelivered entries, oldest first.
	QueryPendingOutbox(limit int) ([]OutboxEntry, error)
	MarkOutboxDelivered(ids []int, at time.Time) error
	MarkOutboxAttempted(ids []int) error
}

// outboxNotifier implements core.Notifier by appending events to the outbox.
type outboxNotifier struct {
	repo Repository
}

var _ core.Notifier = (*outboxNotifier)(nil)

func NewOutboxNotifier(repo Repository) core.Notifier {
	return &outboxNotifier{repo: repo}
}

func (n *outboxNotifier) Publish(events ...core.Event) error {
	entries := make([]OutboxEntry, 0, len(events))
	for _, evt := range events {
		payload, err := json.Marshal(evt.Payload)
		if err != nil {
			return errors.Wrap(err, "marshaling event payload")
		}
		entries = append(entries, OutboxEntry{
			EventID:    evt.ID,
			Name:       evt.Name,
			Payload:    payload,
			OccurredAt: evt.OccurredAt,
		})
	}
	return errors.Wrap(n.repo.AppendOutboxEntries(entries...), "appending outbox entries")
}

// Dispatcher drains the outbox and delivers entries as emails.
type Dispatcher struct {
	repo     Repository
	composer *Composer
	mailSvc  core.EmailService
	logger   core.Logger

	Interval  time.Duration
	BatchSize int
}

func NewDispatcher(repo Repository, composer *Composer, mailSvc core.EmailService, logger core.Logger) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		composer:  composer,
		mailSvc:   mailSvc,
		logger:    logger,
		Interval:  30 * time.Second,
		BatchSize: 50,
	}
}

// Run drains the outbox on every tick until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DispatchPending(); err != nil {
				d.logger.Error("dispatching outbox", err)
			}
		}
	}
}

// DispatchPending delivers one batch of pending entries. Entries whose
// composition fails are counted as attempts and retried on the next run.
func (d *Dispatcher) DispatchPending() error {
	pending, err := d.repo.QueryPendingOutbox(d.BatchSize)
	if err != nil {
		return errors.Wrap(err, "querying pending outbox")
	}
	if len(pending) == 0 {
		return nil
	}

	delivered := make([]int, 0, len(pending))
	failed := make([]int, 0)
	messages := make([]*core.EmailMessage, 0, len(pending))
	for _, entry := range pending {
		msgs, cErr := d.composer.Compose(entry)
		if cErr != nil {
			d.logger.Warn("composing notification", cErr, map[string]interface{}{"entry": entry.ID, "event": entry.Name})
			failed = append(failed, entry.ID)
			continue
		}
		messages = append(messages, msgs...)
		delivered = append(delivered, entry.ID)
	}

	d.mailSvc.SendMessages(messages...)

	if len(failed) > 0 {
		if err = d.repo.MarkOutboxAttempted(failed); err != nil {
			return errors.Wrap(err, "marking outbox attempts")
		}
	}
	return errors.Wrap(d.repo.MarkOutboxDelivered(delivered, time.Now().UTC()), "marking outbox delivered")
}
