package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"foldersort/internal/config"
	"foldersort/internal/logging"
)

const userAgent = "foldersort/0.1.0"

// Event names a notification.
type Event string

const (
	// EventOrganizationProgress carries a raw worker diagnostic that the user
	// should see, such as the insufficient-input sentinel.
	EventOrganizationProgress Event = "organization_progress"
	EventRunStarted           Event = "run_started"
	EventRunCompleted         Event = "run_completed"
	EventOrganizeCompleted    Event = "organize_completed"
	EventError                Event = "error"
	EventTest                 Event = "test"
)

// Payload carries event details. Keys are event specific.
type Payload map[string]any

// Service defines the notification surface exposed to run components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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
		cfg:      cfg.Notifications,
	}
}

// PublishAsync delivers event without blocking the caller. Delivery failures
// are logged and otherwise dropped.
func PublishAsync(ctx context.Context, svc Service, logger *slog.Logger, event Event, payload Payload) {
	if svc == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	release := func() {}
	if tracker, ok := svc.(pendingTracker); ok {
		release = tracker.trackPending()
	}
	go func() {
		defer release()
		if err := svc.Publish(ctx, event, payload); err != nil && logger != nil {
			logger.Debug("notification delivery failed",
				logging.String("event", string(event)),
				logging.Error(err),
			)
		}
	}()
}

// Multi fans an event out to every non-nil service and returns the first error.
func Multi(services ...Service) Service {
	filtered := make([]Service, 0, len(services))
	for _, svc := range services {
		if svc != nil {
			filtered = append(filtered, svc)
		}
	}
	return multiService(filtered)
}

type multiService []Service

func (m multiService) Publish(ctx context.Context, event Event, payload Payload) error {
	var first error
	for _, svc := range m {
		if err := svc.Publish(ctx, event, payload); err != nil && first == nil {
			first = err
		}
	}
	return first
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
	cfg      config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventOrganizationProgress, EventRunStarted:
		return n.cfg.Progress
	case EventRunCompleted, EventOrganizeCompleted:
		return n.cfg.Completion
	case EventError:
		return n.cfg.Errors
	default:
		return true
	}
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventOrganizationProgress:
		return message{
			title: "foldersort - Worker",
			body:  payloadString(payload, "message"),
			tags:  []string{"foldersort", "worker", "progress"},
		}, true
	case EventRunStarted:
		return message{
			title: "foldersort - Classification Started",
			body:  fmt.Sprintf("Classifying %s", payloadString(payload, "folder")),
			tags:  []string{"foldersort", "run", "started"},
		}, true
	case EventRunCompleted:
		return message{
			title: "foldersort - Classification Complete",
			body:  fmt.Sprintf("Classified %s in %s", payloadString(payload, "folder"), payloadString(payload, "duration")),
			tags:  []string{"foldersort", "run", "completed"},
		}, true
	case EventOrganizeCompleted:
		return message{
			title: "foldersort - Files Organized",
			body: fmt.Sprintf("%s files into %s (%s placed, %s skipped)",
				payloadString(payload, "operation"), payloadString(payload, "destination"),
				payloadString(payload, "placed"), payloadString(payload, "skipped")),
			tags: []string{"foldersort", "organize", "completed"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := payloadString(payload, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if errText := payloadString(payload, "error"); errText != "" {
			builder.WriteString(errText)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "foldersort - Error",
			body:     builder.String(),
			tags:     []string{"foldersort", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "foldersort - Test",
			body:     "Notification system test",
			tags:     []string{"foldersort", "test"},
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
	case time.Duration:
		return v.Round(time.Second).String()
	default:
		return fmt.Sprint(v)
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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
