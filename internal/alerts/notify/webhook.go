package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"collaudo-tracker/internal/alerts"
)

// Channel delivers rendered content.
type Channel interface {
	Send(ctx context.Context, content string) error
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// WebhookChannel sends notifications to a webhook endpoint.
type WebhookChannel struct {
	url    string
	client *http.Client
}

// WebhookOption configures the webhook channel.
type WebhookOption func(*WebhookChannel)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(ch *WebhookChannel) {
		if client != nil {
			ch.client = client
		}
	}
}

// NewWebhookChannel constructs a webhook channel.
func NewWebhookChannel(url string, opts ...WebhookOption) (*WebhookChannel, error) {
	if url == "" {
		return nil, errors.New("webhook channel: empty url")
	}
	channel := &WebhookChannel{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(channel)
	}
	return channel, nil
}

// Send posts the content as a text payload.
func (w *WebhookChannel) Send(ctx context.Context, content string) error {
	if w == nil || w.url == "" {
		return errors.New("webhook channel: empty url")
	}
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: content},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook channel: non-2xx response %d", resp.StatusCode)
	}
	return nil
}

// WebhookNotifier renders events through a template and posts them to a
// channel. Delivery failures are logged and never bubble up to the
// scheduler tick.
type WebhookNotifier struct {
	channel        Channel
	template       *Template
	logger         *log.Logger
	requestTimeout time.Duration
}

// NotifierOption configures the webhook notifier.
type NotifierOption func(*WebhookNotifier)

// WithRequestTimeout bounds a single delivery attempt.
func WithRequestTimeout(timeout time.Duration) NotifierOption {
	return func(n *WebhookNotifier) {
		if timeout > 0 {
			n.requestTimeout = timeout
		}
	}
}

// NewWebhookNotifier constructs a webhook notifier.
func NewWebhookNotifier(channel Channel, tpl *Template, logger *log.Logger, opts ...NotifierOption) (*WebhookNotifier, error) {
	if channel == nil {
		return nil, errors.New("webhook notifier: nil channel")
	}
	if tpl == nil {
		defaultTemplate, err := NewTemplate("")
		if err != nil {
			return nil, err
		}
		tpl = defaultTemplate
	}
	n := &WebhookNotifier{
		channel:        channel,
		template:       tpl,
		logger:         logger,
		requestTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event alerts.Event) {
	if n == nil || n.channel == nil {
		return
	}
	content, err := n.template.Render(TemplateData{
		ValveID:       event.ValveID,
		ValveName:     event.ValveName,
		Severity:      string(event.Severity),
		DueDate:       event.DueDate.Format("2006-01-02"),
		RemainingDays: event.RemainingDays,
		Message:       event.Message,
		EmittedAt:     event.EmittedAt.Format(time.RFC3339),
	})
	if err != nil {
		n.logf("collaudo notify render error: valve=%s err=%v", event.ValveID, err)
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, n.requestTimeout)
	defer cancel()
	if err := n.channel.Send(sendCtx, content); err != nil {
		n.logf("collaudo notify delivery error: valve=%s err=%v", event.ValveID, err)
	}
}

func (n *WebhookNotifier) logf(format string, args ...any) {
	if n.logger != nil {
		n.logger.Printf(format, args...)
	}
}
