package application

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"collaudo-tracker/internal/alerts"
	"collaudo-tracker/internal/alerts/metrics"
	"collaudo-tracker/internal/alerts/notify"
	valves "collaudo-tracker/internal/valves/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Scheduler periodically re-evaluates every valve, caches the resulting
// classification for presentation, and emits notification events for
// valves that are due or overdue, subject to the pause policy.
//
// A single goroutine drives the loop, so ticks never overlap; a tick
// that outlasts the interval simply delays the next one.
type Scheduler struct {
	repo     valves.Repository
	policy   *alerts.Policy
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *log.Logger
	interval time.Duration
	clock    Clock

	mu       sync.RWMutex
	statuses map[string]valves.Status
	lastTick time.Time

	started atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	stopped sync.Once
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithInterval overrides the default check cadence.
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMetrics attaches scheduler metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// DefaultCheckInterval is the cadence used when none is configured. The
// legacy checker polled far more often than its data changes; once per
// few minutes is plenty for day-granular deadlines.
const DefaultCheckInterval = 5 * time.Minute

// NewScheduler constructs a scheduler.
func NewScheduler(repo valves.Repository, policy *alerts.Policy, notifier notify.Notifier, logger *log.Logger, opts ...Option) (*Scheduler, error) {
	if repo == nil {
		return nil, fmt.Errorf("collaudo scheduler: nil repository")
	}
	if policy == nil {
		return nil, fmt.Errorf("collaudo scheduler: nil policy")
	}
	s := &Scheduler{
		repo:     repo,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
		interval: DefaultCheckInterval,
		clock:    systemClock{},
		statuses: make(map[string]valves.Status),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start runs the scheduler loop until the context is cancelled or Stop
// is called. Run it in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || !s.started.CompareAndSwap(false, true) {
		return
	}
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.CheckNow(ctx); err != nil {
				s.logf("collaudo check error: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and waits for any in-flight tick to
// finish. Safe to call more than once, and a no-op if Start never ran.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	s.stopped.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}

// CheckNow evaluates every valve once. All date comparisons in a single
// run use one "today" snapshot so a midnight rollover cannot split a
// tick into inconsistent classifications.
func (s *Scheduler) CheckNow(ctx context.Context) error {
	started := s.clock.Now()
	today := valves.Date(started)

	// The store call may block on I/O; the policy lock is not held here.
	list, err := s.repo.List(ctx)
	if err != nil {
		s.metrics.ObserveTick("error", s.clock.Now().Sub(started))
		return fmt.Errorf("collaudo scheduler: list valves: %w", err)
	}

	suppressed := s.policy.IsSuppressed(today)

	statuses := make(map[string]valves.Status, len(list))
	counts := map[string]int{
		string(valves.StatusOK):      0,
		string(valves.StatusDueSoon): 0,
		string(valves.StatusExpired): 0,
	}
	var events []alerts.Event

	for _, valve := range list {
		if err := valve.Validate(); err != nil {
			s.metrics.CountSkippedRecord()
			s.logf("collaudo scheduler: skipping record %q: %v", valve.ID, err)
			continue
		}
		due := valve.NextDue()
		status := valves.Classify(due, valve.LeadTimeDays, today)
		statuses[valve.ID] = status
		counts[string(status)]++

		// Presentation status is recorded above even while paused.
		if suppressed {
			continue
		}
		switch status {
		case valves.StatusExpired:
			events = append(events, alerts.NewExpiredEvent(valve, due, started))
		case valves.StatusDueSoon:
			events = append(events, alerts.NewDueSoonEvent(valve, due, valves.DaysUntil(today, due), started))
		}
	}

	s.mu.Lock()
	s.statuses = statuses
	s.lastTick = started
	s.mu.Unlock()
	s.metrics.SetStatusCounts(counts)

	for _, event := range events {
		s.metrics.CountEvent(string(event.Severity))
		if s.notifier != nil {
			s.notifier.Notify(ctx, event)
		}
	}

	result := "success"
	if suppressed {
		result = "suppressed"
	}
	s.metrics.ObserveTick(result, s.clock.Now().Sub(started))
	return nil
}

// Status returns the classification of one valve as of the last tick.
func (s *Scheduler) Status(id string) (valves.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[id]
	return status, ok
}

// Statuses returns a copy of all classifications as of the last tick.
func (s *Scheduler) Statuses() map[string]valves.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]valves.Status, len(s.statuses))
	for id, status := range s.statuses {
		out[id] = status
	}
	return out
}

// LastTick returns when the last evaluation ran, zero before the first.
func (s *Scheduler) LastTick() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
