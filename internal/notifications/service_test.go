package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"delivery/internal/config"
	"delivery/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventJobCompleted, notifications.Payload{"file": "clip.mp4"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("nil config: %v", err)
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
			name:          "started",
			event:         notifications.EventJobStarted,
			payload:       notifications.Payload{"file": "clip.mp4", "resolution": "2048"},
			expectTitle:   "Delivery - Started",
			expectMessage: "Extracting frames: clip.mp4 (2048)",
			expectTags:    "delivery,job,started",
		},
		{
			name:           "completed",
			event:          notifications.EventJobCompleted,
			payload:        notifications.Payload{"file": "clip.mp4", "frames": 240, "output": "/frames"},
			expectTitle:    "Delivery - Complete",
			expectMessage:  "Frames ready: clip.mp4\nFrames: 240\nOutput: /frames",
			expectTags:     "delivery,job,completed",
			expectPriority: "high",
		},
		{
			name:          "cancelled",
			event:         notifications.EventJobCancelled,
			payload:       notifications.Payload{"file": "clip.mp4", "frame": 88},
			expectTitle:   "Delivery - Paused",
			expectMessage: "Paused: clip.mp4 at frame 88",
			expectTags:    "delivery,job,paused",
		},
		{
			name:           "failed",
			event:          notifications.EventJobFailed,
			payload:        notifications.Payload{"file": "clip.mp4", "error": errors.New("ffmpeg exited with status 1")},
			expectTitle:    "Delivery - Error",
			expectMessage:  "Failed clip.mp4: ffmpeg exited with status 1",
			expectTags:     "delivery,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				body, _ := io.ReadAll(r.Body)
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			if captured.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", captured.title, tc.expectTitle)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("body = %q, want %q", captured.body, tc.expectMessage)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", captured.tags, tc.expectTags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", captured.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic closed", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic closed") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestUnknownEventIsIgnored(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.Event("bogus"), nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if called {
		t.Fatal("unknown event should not reach ntfy")
	}
}
