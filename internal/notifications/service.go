package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sori/internal/config"
)

const userAgent = "Sori/0.1.0"

// Event names a notification-worthy pipeline moment.
type Event string

const (
	EventSyncCompleted  Event = "sync_completed"
	EventMergeCompleted Event = "merge_completed"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event-specific values used to format the message.
type Payload map[string]string

// Service publishes pipeline events to the operator.
type Service interface {
	Publish(ctx context.Context, event Event, data Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		sync:     cfg.Notifications.Sync,
		merge:    cfg.Notifications.Merge,
		errors:   cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	sync     bool
	merge    bool
	errors   bool
}

// Publish formats and sends one event. Events disabled in the
// configuration are dropped silently.
func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventSyncCompleted:
		return n.sync
	case EventMergeCompleted:
		return n.merge
	case EventError:
		return n.errors
	case EventTest:
		return true
	default:
		return false
	}
}

func format(event Event, data Payload) (message, bool) {
	switch event {
	case EventSyncCompleted:
		body := fmt.Sprintf("Audio store synced: %s copied, %s generated, %s removed in %s",
			data.get("copied", "0"), data.get("generated", "0"),
			data.get("removed", "0"), data.get("elapsed", "?"))
		msg := message{
			title: "Sori - Sync Complete",
			body:  body,
			tags:  []string{"sori", "sync", "completed"},
		}
		if failed := data.get("failed", "0"); failed != "0" {
			msg.title = "Sori - Sync Complete (with failures)"
			msg.body = body + fmt.Sprintf(", %s failed", failed)
			msg.priority = "high"
		}
		return msg, true
	case EventMergeCompleted:
		body := fmt.Sprintf("Vocabulary merged: %s of %s repositories", data.get("fetched", "0"), data.get("configured", "0"))
		if skipped := data.get("skipped", ""); skipped != "" && skipped != "0" {
			body += fmt.Sprintf(" (%s skipped)", skipped)
		}
		return message{
			title: "Sori - Merge Complete",
			body:  body,
			tags:  []string{"sori", "merge", "completed"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := strings.TrimSpace(data.get("context", "")); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if detail := strings.TrimSpace(data.get("error", "")); detail != "" {
			builder.WriteString(detail)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Sori - Error",
			body:     builder.String(),
			tags:     []string{"sori", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Sori - Test",
			body:     "Notification system test",
			tags:     []string{"sori", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) get(key, fallback string) string {
	if p == nil {
		return fallback
	}
	if value, ok := p[key]; ok {
		return value
	}
	return fallback
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
