package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"foldersort/internal/logging"
	"foldersort/internal/notifications"
	"foldersort/internal/services"
)

type notification struct {
	event   notifications.Event
	payload notifications.Payload
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []notification
	ch   chan notification
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{ch: make(chan notification, 16)}
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	n := notification{event: event, payload: payload}
	r.mu.Lock()
	r.seen = append(r.seen, n)
	r.mu.Unlock()
	r.ch <- n
	return nil
}

func feed(events ...Event) <-chan Event {
	ch := make(chan Event, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return ch
}

func drain(t *testing.T, notifier notifications.Service, events ...Event) error {
	t.Helper()
	m := NewMultiplexer(logging.NewNop(), nil, notifier)
	return m.Drain(context.Background(), feed(events...))
}

func TestDrainOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		events  []Event
		wantErr bool
		wantAs  any
	}{
		{
			name:   "clean exit",
			events: []Event{Stdout("clustering 12 files"), Terminated(ExitCode(0))},
		},
		{
			name:   "warning then other line launders to success",
			events: []Event{Stderr("CustomWarning"), Stderr("some other normal line"), Terminated(ExitCode(0))},
		},
		{
			name:   "sentinel then unrelated stderr launders to success",
			events: []Event{Stderr("insufficient input count"), Stderr("some unrelated stderr text"), Terminated(ExitCode(0))},
		},
		{
			name:    "sentinel stays failed across warnings",
			events:  []Event{Stderr("Not enough files"), Stderr("FutureWarning: x"), Terminated(ExitCode(0))},
			wantErr: true,
			wantAs:  new(*SentinelError),
		},
		{
			name:    "sentinel survives stdout",
			events:  []Event{Stderr("Not enough files"), Stdout("exiting"), Terminated(ExitCode(0))},
			wantErr: true,
			wantAs:  new(*SentinelError),
		},
		{
			name:    "laundered sentinel still fails on non-zero exit",
			events:  []Event{Stderr("insufficient input count"), Stderr("some unrelated stderr text"), Terminated(ExitCode(1))},
			wantErr: true,
			wantAs:  new(*ExitError),
		},
		{
			name:    "non-zero exit overrides success",
			events:  []Event{Stderr("all good"), Terminated(ExitCode(2))},
			wantErr: true,
			wantAs:  new(*ExitError),
		},
		{
			name:    "non-zero exit overrides sentinel",
			events:  []Event{Stderr("Not enough files"), Terminated(ExitCode(1))},
			wantErr: true,
			wantAs:  new(*ExitError),
		},
		{
			name:    "signal keeps prior sentinel",
			events:  []Event{Stderr("Not enough files"), Terminated(nil)},
			wantErr: true,
			wantAs:  new(*SentinelError),
		},
		{
			name:   "signal keeps prior success",
			events: []Event{Terminated(nil)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := drain(t, nil, tc.events...)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("Drain() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, services.ErrWorkerReported) {
				t.Fatalf("Drain() error = %v, want ErrWorkerReported", err)
			}
			if !errors.As(err, tc.wantAs) {
				t.Fatalf("Drain() error = %v, want %T", err, tc.wantAs)
			}
		})
	}
}

func TestDrainExitCodeReported(t *testing.T) {
	err := drain(t, nil, Terminated(ExitCode(3)))
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Fatalf("expected exit code 3, got %v", err)
	}
}

func TestDrainCompletionLost(t *testing.T) {
	err := drain(t, nil, Stdout("working"), Stderr("Not enough files"))
	if !errors.Is(err, services.ErrCompletionLost) {
		t.Fatalf("Drain() error = %v, want ErrCompletionLost", err)
	}
	if errors.Is(err, services.ErrWorkerReported) {
		t.Fatal("lost completion must be distinct from worker-reported failure")
	}
}

func TestDrainStopsAtTermination(t *testing.T) {
	ch := make(chan Event, 3)
	ch <- Terminated(ExitCode(0))
	ch <- Stderr("Not enough files")
	ch <- Terminated(ExitCode(1))

	m := NewMultiplexer(logging.NewNop(), nil, nil)
	if err := m.Drain(context.Background(), ch); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(ch) != 2 {
		t.Fatalf("expected events after termination to be left unread, %d remain", len(ch))
	}
}

func TestDrainEmitsSentinelNotification(t *testing.T) {
	rec := newRecordingNotifier()
	_ = drain(t, rec, Stderr("CustomWarning"), Stderr("Not enough files"), Stderr("plain"), Terminated(ExitCode(1)))

	select {
	case n := <-rec.ch:
		if n.event != notifications.EventOrganizationProgress {
			t.Fatalf("unexpected event %q", n.event)
		}
		if n.payload["message"] != "Not enough files" {
			t.Fatalf("expected raw line in payload, got %v", n.payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected organization_progress notification")
	}

	time.Sleep(20 * time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.seen) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(rec.seen))
	}
}
