package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	valves "collaudo-tracker/internal/valves/domain"
)

// Severity grades a notification event.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is an ephemeral inspection notification. Events are not
// persisted; an unresolved valve produces a fresh event on every tick.
type Event struct {
	ID            string    `json:"id"`
	ValveID       string    `json:"valve_id"`
	ValveName     string    `json:"valve_name"`
	Severity      Severity  `json:"severity"`
	Message       string    `json:"message"`
	DueDate       time.Time `json:"due_date"`
	RemainingDays int       `json:"remaining_days"`
	EmittedAt     time.Time `json:"emitted_at"`
}

// NewExpiredEvent builds the critical event for a valve past its due date.
func NewExpiredEvent(valve valves.Valve, due, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		ValveID:   valve.ID,
		ValveName: valve.Name,
		Severity:  SeverityCritical,
		Message:   fmt.Sprintf("valve %s (id %s) inspection has expired", valve.Name, valve.ID),
		DueDate:   due,
		EmittedAt: now,
	}
}

// NewDueSoonEvent builds the warning event carrying the exact remaining-day count.
func NewDueSoonEvent(valve valves.Valve, due time.Time, remainingDays int, now time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		ValveID:       valve.ID,
		ValveName:     valve.Name,
		Severity:      SeverityWarning,
		Message:       fmt.Sprintf("valve %s (id %s) must be inspected within %d days", valve.Name, valve.ID, remainingDays),
		DueDate:       due,
		RemainingDays: remainingDays,
		EmittedAt:     now,
	}
}
