package notification

import (
	"sync"

	"github.com/lusambya/kazi/core"
)

// consoleNotifier logs events instead of queueing them; DEV fallback.
type consoleNotifier struct {
	logger core.Logger
}

var _ core.Notifier = (*consoleNotifier)(nil)

func NewConsoleNotifier(logger core.Logger) core.Notifier {
	return &consoleNotifier{logger: logger}
}

func (n *consoleNotifier) Publish(events ...core.Event) error {
	for _, evt := range events {
		n.logger.Info("event: "+evt.Name, map[string]interface{}{"id": evt.ID, "payload": evt.Payload})
	}
	return nil
}

// RecorderNotifier captures published events for tests.
type RecorderNotifier struct {
	mu     sync.Mutex
	Events []core.Event

	// FailWith, when set, is returned by Publish without recording.
	FailWith error
}

var _ core.Notifier = (*RecorderNotifier)(nil)

func (n *RecorderNotifier) Publish(events ...core.Event) error {
	if n.FailWith != nil {
		return n.FailWith
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, events...)
	return nil
}

func (n *RecorderNotifier) Published() []core.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]core.Event, len(n.Events))
	copy(out, n.Events)
	return out
}
