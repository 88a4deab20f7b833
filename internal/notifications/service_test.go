package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"foldersort/internal/config"
	"foldersort/internal/logging"
	"foldersort/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventRunCompleted, notifications.Payload{"folder": "/in"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "worker sentinel",
			event:         notifications.EventOrganizationProgress,
			payload:       notifications.Payload{"message": "Not enough files"},
			expectTitle:   "foldersort - Worker",
			expectMessage: "Not enough files",
			expectTags:    "foldersort,worker,progress",
		},
		{
			name:          "run completed",
			event:         notifications.EventRunCompleted,
			payload:       notifications.Payload{"folder": "/data/inbox", "duration": 90 * time.Second},
			expectTitle:   "foldersort - Classification Complete",
			expectMessage: "Classified /data/inbox in 1m30s",
			expectTags:    "foldersort,run,completed",
		},
		{
			name:  "organize completed",
			event: notifications.EventOrganizeCompleted,
			payload: notifications.Payload{
				"operation":   "move",
				"destination": "/out",
				"placed":      4,
				"skipped":     1,
			},
			expectTitle:   "foldersort - Files Organized",
			expectMessage: "move files into /out (4 placed, 1 skipped)",
			expectTags:    "foldersort,organize,completed",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "run",
				"error":   errors.New("worker exited with status 1"),
			},
			expectTitle:    "foldersort - Error",
			expectMessage:  "Error with run: worker exited with status 1",
			expectTags:     "foldersort,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				agent    string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				captured.agent = r.Header.Get("User-Agent")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
			if !strings.HasPrefix(captured.agent, "foldersort/") {
				t.Fatalf("unexpected user agent %q", captured.agent)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for disabled event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Progress = false
	cfg.Notifications.Completion = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{
		notifications.EventOrganizationProgress,
		notifications.EventRunStarted,
		notifications.EventRunCompleted,
		notifications.EventOrganizeCompleted,
		notifications.Event("unknown_event"),
	} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"message": "ignored"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic closed", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

type recordingService struct {
	mu     sync.Mutex
	events []notifications.Event
	done   chan struct{}
}

func (r *recordingService) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	if r.done != nil {
		close(r.done)
	}
	return nil
}

func TestPublishAsyncSurvivesCancelledContext(t *testing.T) {
	rec := &recordingService{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notifications.PublishAsync(ctx, rec, logging.NewNop(), notifications.EventOrganizationProgress, notifications.Payload{"message": "x"})

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("async publish never delivered")
	}
}

func TestMultiFansOut(t *testing.T) {
	a := &recordingService{}
	b := &recordingService{}
	svc := notifications.Multi(a, nil, b)
	if err := svc.Publish(context.Background(), notifications.EventRunStarted, nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both services to receive the event: %v %v", a.events, b.events)
	}
}

func TestLogServiceWritesEvent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "notify.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	svc := notifications.NewLogService(logger)
	if err := svc.Publish(context.Background(), notifications.EventOrganizationProgress, notifications.Payload{"message": "Not enough files"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), `"event":"organization_progress"`) || !strings.Contains(string(content), "Not enough files") {
		t.Fatalf("unexpected log output %s", content)
	}
}

type slowService struct {
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func (s *slowService) Publish(context.Context, notifications.Event, notifications.Payload) error {
	<-s.release
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	return nil
}

func TestTrackedWaitsForAsyncDelivery(t *testing.T) {
	slow := &slowService{release: make(chan struct{})}
	tracked := notifications.NewTracked(slow)
	notifications.PublishAsync(context.Background(), tracked, logging.NewNop(), notifications.EventOrganizationProgress, nil)

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := tracked.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected Wait to time out while delivery is pending, got %v", err)
	}

	close(slow.release)
	if err := tracked.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	slow.mu.Lock()
	defer slow.mu.Unlock()
	if slow.count != 1 {
		t.Fatalf("expected one delivery, got %d", slow.count)
	}
}
