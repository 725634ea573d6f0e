package core

import (
	"time"

	"github.com/google/uuid"
)

// Event names published by the domain services.
const (
	EventDeadlineChanged    = "deadline.changed"
	EventReportStateChanged = "report.state_changed"
)

// Event is an outbound domain event handed to the Notifier. Payload is a
// domain-owned struct (deadline.ChangedEvent, report.StateChangedEvent).
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	OccurredAt time.Time   `json:"occurred_at"` // UTC
	Payload    interface{} `json:"payload"`
}

func NewEvent(name string, payload interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Notifier delivers events to interested users. Publish is fire-and-forget
// with respect to the caller's transaction: a failed or slow delivery must
// never abort the write that produced the event. An error from Publish is
// reported to the caller as a warning only.
type Notifier interface {
	Publish(events ...Event) error
}
