package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"delivery/internal/config"
)

const userAgent = "delivery/0.1.0"

// Event names a job milestone worth a push notification.
type Event string

const (
	EventJobStarted   Event = "job_started"
	EventJobCompleted Event = "job_completed"
	EventJobCancelled Event = "job_cancelled"
	EventJobFailed    Event = "job_failed"
	EventTest         Event = "test"
)

// Payload carries event fields. Unknown keys are ignored.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op when the topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: cfg.NtfyRequestTimeout()},
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
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	file := payloadString(payload, "file")
	if file == "" {
		file = "unknown input"
	}
	switch event {
	case EventJobStarted:
		return message{
			title: "Delivery - Started",
			body:  fmt.Sprintf("Extracting frames: %s (%s)", file, payloadString(payload, "resolution")),
			tags:  []string{"delivery", "job", "started"},
		}, true
	case EventJobCompleted:
		body := fmt.Sprintf("Frames ready: %s", file)
		if frames := payloadString(payload, "frames"); frames != "" {
			body = fmt.Sprintf("%s\nFrames: %s", body, frames)
		}
		if out := payloadString(payload, "output"); out != "" {
			body = fmt.Sprintf("%s\nOutput: %s", body, out)
		}
		return message{
			title:    "Delivery - Complete",
			body:     body,
			tags:     []string{"delivery", "job", "completed"},
			priority: "high",
		}, true
	case EventJobCancelled:
		body := fmt.Sprintf("Paused: %s", file)
		if frame := payloadString(payload, "frame"); frame != "" {
			body = fmt.Sprintf("%s at frame %s", body, frame)
		}
		return message{
			title: "Delivery - Paused",
			body:  body,
			tags:  []string{"delivery", "job", "paused"},
		}, true
	case EventJobFailed:
		reason := payloadString(payload, "error")
		if reason == "" {
			reason = "unknown"
		}
		return message{
			title:    "Delivery - Error",
			body:     fmt.Sprintf("Failed %s: %s", file, reason),
			tags:     []string{"delivery", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Delivery - Test",
			body:     "Notification system test",
			tags:     []string{"delivery", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
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
