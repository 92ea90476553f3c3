package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"collaudo-tracker/internal/alerts"
)

func sampleEvent() alerts.Event {
	return alerts.Event{
		ID:            "evt-1",
		ValveID:       "SV-001",
		ValveName:     "Boiler relief",
		Severity:      alerts.SeverityWarning,
		Message:       "valve Boiler relief (id SV-001) must be inspected within 69 days",
		DueDate:       time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
		RemainingDays: 69,
		EmittedAt:     time.Date(2024, 11, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestWebhookNotifierPayload(t *testing.T) {
	payloadCh := make(chan webhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloadCh <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("new webhook channel: %v", err)
	}
	tpl, err := NewTemplate("")
	if err != nil {
		t.Fatalf("new template: %v", err)
	}
	notifier, err := NewWebhookNotifier(channel, tpl, nil)
	if err != nil {
		t.Fatalf("new webhook notifier: %v", err)
	}

	notifier.Notify(context.Background(), sampleEvent())

	select {
	case payload := <-payloadCh:
		if payload.MsgType != "text" {
			t.Fatalf("expected msgtype text, got %s", payload.MsgType)
		}
		content := payload.Text.Content
		checks := []string{
			"[Collaudo warning]",
			"Valve: Boiler relief (SV-001)",
			"Due Date: 2025-01-09",
			"Remaining Days: 69",
			"within 69 days",
		}
		for _, expected := range checks {
			if !strings.Contains(content, expected) {
				t.Fatalf("expected content to include %q, got %s", expected, content)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for webhook payload")
	}
}

type recordingChannel struct {
	mu       sync.Mutex
	contents []string
	err      error
}

func (r *recordingChannel) Send(_ context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.contents = append(r.contents, content)
	return nil
}

func (r *recordingChannel) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contents)
}

func TestWebhookNotifierSwallowsDeliveryErrors(t *testing.T) {
	channel := &recordingChannel{err: errors.New("boom")}
	notifier, err := NewWebhookNotifier(channel, nil, nil)
	if err != nil {
		t.Fatalf("new webhook notifier: %v", err)
	}
	// Must not panic or propagate; a sink failure is logged, never fatal.
	notifier.Notify(context.Background(), sampleEvent())
}

func TestMultiNotifierFansOut(t *testing.T) {
	first := &recordingChannel{}
	second := &recordingChannel{}
	n1, _ := NewWebhookNotifier(first, nil, nil)
	n2, _ := NewWebhookNotifier(second, nil, nil)

	multi := NewMultiNotifier(n1, nil, n2)
	multi.Notify(context.Background(), sampleEvent())

	if first.Count() != 1 || second.Count() != 1 {
		t.Fatalf("expected both channels hit once, got %d and %d", first.Count(), second.Count())
	}
}

func TestTemplateOmitsRemainingDaysWhenZero(t *testing.T) {
	tpl, err := NewTemplate("")
	if err != nil {
		t.Fatalf("new template: %v", err)
	}
	content, err := tpl.Render(TemplateData{
		ValveID:   "SV-002",
		ValveName: "Tank relief",
		Severity:  string(alerts.SeverityCritical),
		DueDate:   "2024-05-01",
		Message:   "valve Tank relief (id SV-002) inspection has expired",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(content, "Remaining Days") {
		t.Fatalf("expected no remaining-days line for an expired valve, got %s", content)
	}
}
