package notify

import (
	"context"
	"log"

	"collaudo-tracker/internal/alerts"
)

// Notifier consumes inspection notification events. Delivery is
// fire-and-forget: implementations log failures and never return them
// to the scheduler.
type Notifier interface {
	Notify(ctx context.Context, event alerts.Event)
}

// LogNotifier writes events to the operator log.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, event alerts.Event) {
	if n == nil || n.logger == nil {
		return
	}
	n.logger.Printf("inspection alert: severity=%s valve=%s due=%s msg=%q",
		event.Severity, event.ValveID, event.DueDate.Format("2006-01-02"), event.Message)
}
