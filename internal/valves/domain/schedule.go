package valves

import "time"

// Status is the inspection classification of a valve relative to a day.
type Status string

const (
	StatusOK      Status = "ok"
	StatusDueSoon Status = "due_soon"
	StatusExpired Status = "expired"
)

const dayHours = 24 * time.Hour

// Date truncates t to midnight UTC. All inspection arithmetic works on
// whole calendar days.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDueDate computes the inspection due date as a fixed 365-day year
// multiple past the last inspection. The legacy system never used
// calendar-aware year addition, so Feb-29 drift is kept as-is.
func NextDueDate(lastInspection time.Time, intervalYears int) time.Time {
	return Date(lastInspection).AddDate(0, 0, intervalYears*365)
}

// DaysUntil returns the whole days from today until due. Negative when
// due is in the past.
func DaysUntil(today, due time.Time) int {
	return int(Date(due).Sub(Date(today)) / dayHours)
}

// Classify maps a due date and warning lead onto a status. The function
// is total: exactly one status is returned for any input.
//
// The due day itself already counts as expired.
func Classify(due time.Time, leadTimeDays int, today time.Time) Status {
	remaining := DaysUntil(today, due)
	switch {
	case remaining <= 0:
		return StatusExpired
	case remaining <= leadTimeDays:
		return StatusDueSoon
	default:
		return StatusOK
	}
}
