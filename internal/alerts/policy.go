package alerts

import (
	"sync"
	"time"
)

// Policy holds the global alert suppression ("pause") state. It is shared
// between the scheduler, which reads it once per tick, and the control
// surface, which pauses and resumes it. Both fields are written together
// under the mutex.
//
// The pause is global: while active it silences notifications for every
// valve, it does not mute individual valves.
type Policy struct {
	mu         sync.Mutex
	paused     bool
	pauseUntil time.Time
}

// NewPolicy constructs an unpaused policy.
func NewPolicy() *Policy {
	return &Policy{}
}

// Pause suppresses notifications for the given number of days from today.
// A pause replaces any previous one, durations do not stack.
func (p *Policy) Pause(days int, today time.Time) time.Time {
	until := today.AddDate(0, 0, days)
	p.mu.Lock()
	p.paused = true
	p.pauseUntil = until
	p.mu.Unlock()
	return until
}

// Resume clears the pause immediately.
func (p *Policy) Resume() {
	p.mu.Lock()
	p.paused = false
	p.pauseUntil = time.Time{}
	p.mu.Unlock()
}

// IsSuppressed reports whether notifications are paused as of today.
// An elapsed pause window is cleared on observation, no Resume needed.
func (p *Policy) IsSuppressed(today time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused || p.pauseUntil.IsZero() {
		return false
	}
	if !today.Before(p.pauseUntil) {
		p.paused = false
		p.pauseUntil = time.Time{}
		return false
	}
	return true
}

// Snapshot returns the current pause state for the control surface.
func (p *Policy) Snapshot() (paused bool, until time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused, p.pauseUntil
}
