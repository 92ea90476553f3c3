package notify

import (
	"context"

	"collaudo-tracker/internal/alerts"
)

// MultiNotifier dispatches events to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify forwards the event to all notifiers.
func (m *MultiNotifier) Notify(ctx context.Context, event alerts.Event) {
	if m == nil {
		return
	}
	for _, notifier := range m.notifiers {
		if notifier != nil {
			notifier.Notify(ctx, event)
		}
	}
}
