package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"collaudo-tracker/internal/alerts"
	valves "collaudo-tracker/internal/valves/domain"
)

type stubRepo struct {
	mu     sync.Mutex
	list   []valves.Valve
	err    error
	listed chan struct{}
	block  chan struct{}
}

func (s *stubRepo) List(_ context.Context) ([]valves.Valve, error) {
	s.mu.Lock()
	list, err := s.list, s.err
	s.mu.Unlock()
	if s.listed != nil {
		s.listed <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *stubRepo) Get(_ context.Context, id string) (*valves.Valve, error) {
	for _, v := range s.list {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, valves.ErrNotFound
}

func (s *stubRepo) Create(_ context.Context, _ *valves.Valve) error { return nil }
func (s *stubRepo) Update(_ context.Context, _ *valves.Valve) error { return nil }
func (s *stubRepo) Delete(_ context.Context, _ string) error        { return nil }

type recordingNotifier struct {
	mu     sync.Mutex
	events []alerts.Event
}

func (r *recordingNotifier) Notify(_ context.Context, event alerts.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recordingNotifier) Events() []alerts.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]alerts.Event, len(r.events))
	copy(out, r.events)
	return out
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testValve(id string, last time.Time) valves.Valve {
	return valves.Valve{
		ID:              id,
		Name:            "Valve " + id,
		NominalPressure: "16 bar",
		InletDiameter:   "DN25",
		OutletDiameter:  "DN40",
		LastInspection:  last,
		IntervalYears:   1,
		LeadTimeDays:    90,
	}
}

func newTestScheduler(t *testing.T, repo valves.Repository, policy *alerts.Policy, sink *recordingNotifier, now time.Time) *Scheduler {
	t.Helper()
	s, err := NewScheduler(repo, policy, sink, nil, WithClock(fixedClock{now: now}), WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s
}

func TestCheckEmitsCriticalForExpiredOnly(t *testing.T) {
	today := day(2024, time.November, 1)
	repo := &stubRepo{list: []valves.Valve{
		testValve("SV-EXP", day(2022, time.January, 1)),
		testValve("SV-OK", day(2024, time.October, 1)),
	}}
	sink := &recordingNotifier{}
	s := newTestScheduler(t, repo, alerts.NewPolicy(), sink, today)

	if err := s.CheckNow(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Severity != alerts.SeverityCritical || events[0].ValveID != "SV-EXP" {
		t.Fatalf("expected critical event for SV-EXP, got %+v", events[0])
	}

	if status, ok := s.Status("SV-EXP"); !ok || status != valves.StatusExpired {
		t.Fatalf("expected expired status for SV-EXP, got %s (%v)", status, ok)
	}
	if status, ok := s.Status("SV-OK"); !ok || status != valves.StatusOK {
		t.Fatalf("expected ok status for SV-OK, got %s (%v)", status, ok)
	}
}

func TestCheckWarningCarriesRemainingDays(t *testing.T) {
	today := day(2024, time.November, 1)
	// Last inspection 2023-01-10 with a 2-year interval is due 2025-01-09,
	// 69 days out.
	valve := testValve("SV-SOON", day(2023, time.January, 10))
	valve.IntervalYears = 2
	repo := &stubRepo{list: []valves.Valve{valve}}
	sink := &recordingNotifier{}
	s := newTestScheduler(t, repo, alerts.NewPolicy(), sink, today)

	if err := s.CheckNow(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	event := events[0]
	if event.Severity != alerts.SeverityWarning {
		t.Fatalf("expected warning severity, got %s", event.Severity)
	}
	if event.RemainingDays != 69 {
		t.Fatalf("expected 69 remaining days, got %d", event.RemainingDays)
	}
	if !strings.Contains(event.Message, "69 days") {
		t.Fatalf("expected message to report 69 days, got %q", event.Message)
	}
}

func TestCheckSuppressedStillUpdatesStatuses(t *testing.T) {
	today := day(2024, time.November, 1)
	repo := &stubRepo{list: []valves.Valve{
		testValve("SV-EXP", day(2022, time.January, 1)),
		testValve("SV-OK", day(2024, time.October, 1)),
	}}
	sink := &recordingNotifier{}
	policy := alerts.NewPolicy()
	policy.Pause(1, today)
	s := newTestScheduler(t, repo, policy, sink, today)

	if err := s.CheckNow(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}

	if len(sink.Events()) != 0 {
		t.Fatalf("expected no events while paused, got %d", len(sink.Events()))
	}
	statuses := s.Statuses()
	if statuses["SV-EXP"] != valves.StatusExpired || statuses["SV-OK"] != valves.StatusOK {
		t.Fatalf("expected presentation statuses despite pause, got %v", statuses)
	}
}

func TestCheckReNotifiesEveryTick(t *testing.T) {
	today := day(2024, time.November, 1)
	repo := &stubRepo{list: []valves.Valve{testValve("SV-EXP", day(2022, time.January, 1))}}
	sink := &recordingNotifier{}
	s := newTestScheduler(t, repo, alerts.NewPolicy(), sink, today)

	for i := 0; i < 3; i++ {
		if err := s.CheckNow(context.Background()); err != nil {
			t.Fatalf("check: %v", err)
		}
	}

	// No dedupe across ticks: an unresolved valve re-notifies every run.
	events := sink.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events across 3 ticks, got %d", len(events))
	}
	for _, event := range events[1:] {
		if event.Severity != events[0].Severity || event.Message != events[0].Message {
			t.Fatalf("expected identical classification per tick, got %+v vs %+v", events[0], event)
		}
	}
}

func TestCheckStoreErrorAbortsTickOnly(t *testing.T) {
	today := day(2024, time.November, 1)
	repo := &stubRepo{err: errors.New("store unavailable")}
	sink := &recordingNotifier{}
	s := newTestScheduler(t, repo, alerts.NewPolicy(), sink, today)

	if err := s.CheckNow(context.Background()); err == nil {
		t.Fatal("expected error from a failing store")
	}
	if len(sink.Events()) != 0 {
		t.Fatal("expected no events from an aborted tick")
	}

	// Next tick retries independently.
	repo.mu.Lock()
	repo.err = nil
	repo.list = []valves.Valve{testValve("SV-EXP", day(2022, time.January, 1))}
	repo.mu.Unlock()
	if err := s.CheckNow(context.Background()); err != nil {
		t.Fatalf("expected recovery on next tick, got %v", err)
	}
	if len(sink.Events()) != 1 {
		t.Fatalf("expected one event after recovery, got %d", len(sink.Events()))
	}
}

func TestCheckSkipsMalformedRecord(t *testing.T) {
	today := day(2024, time.November, 1)
	broken := testValve("SV-BAD", day(2022, time.January, 1))
	broken.IntervalYears = 0
	repo := &stubRepo{list: []valves.Valve{
		broken,
		testValve("SV-EXP", day(2022, time.January, 1)),
	}}
	sink := &recordingNotifier{}
	s := newTestScheduler(t, repo, alerts.NewPolicy(), sink, today)

	if err := s.CheckNow(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}

	if len(sink.Events()) != 1 {
		t.Fatalf("expected evaluation to continue past the bad record, got %d events", len(sink.Events()))
	}
	if _, ok := s.Status("SV-BAD"); ok {
		t.Fatal("expected no status for a skipped record")
	}
}

func TestStopWaitsForInFlightTick(t *testing.T) {
	today := day(2024, time.November, 1)
	repo := &stubRepo{
		list:   []valves.Valve{testValve("SV-OK", day(2024, time.October, 1))},
		listed: make(chan struct{}, 1),
		block:  make(chan struct{}),
	}
	sink := &recordingNotifier{}
	s := newTestScheduler(t, repo, alerts.NewPolicy(), sink, today)

	go s.Start(context.Background())

	// Wait until a tick is inside the blocking store call.
	select {
	case <-repo.listed:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for tick to start")
	}

	stopDone := make(chan struct{})
	go func() {
		s.Stop()
		close(stopDone)
	}()

	select {
	case <-stopDone:
		t.Fatal("Stop returned while a tick was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(repo.block)
	select {
	case <-stopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the tick finished")
	}

	if s.LastTick().IsZero() {
		t.Fatal("expected the in-flight tick to complete before shutdown")
	}
}

func TestStopWithoutStart(t *testing.T) {
	repo := &stubRepo{}
	s := newTestScheduler(t, repo, alerts.NewPolicy(), &recordingNotifier{}, day(2024, time.November, 1))
	s.Stop()
	s.Stop()
}
