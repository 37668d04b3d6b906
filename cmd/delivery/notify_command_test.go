package main

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"delivery/internal/testsupport"
)

func TestNotifyTestSendsToConfiguredTopic(t *testing.T) {
	var hits atomic.Int32
	var title atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		title.Store(r.Header.Get("Title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := setupCLITestEnv(t, smallSource, testsupport.FFmpegBehavior{})
	env.cfg.Notifications.NtfyTopic = server.URL
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"notify", "test"}, env.configPath)
	if err != nil {
		t.Fatalf("notify test: %v", err)
	}
	requireContains(t, out, "Test notification sent to "+server.URL)
	if hits.Load() != 1 {
		t.Fatalf("ntfy requests = %d, want 1", hits.Load())
	}
	if got, _ := title.Load().(string); got != "Delivery - Test" {
		t.Fatalf("title = %q", got)
	}
}

func TestNotifyTestWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t, smallSource, testsupport.FFmpegBehavior{})

	out, _, err := runCLI(t, []string{"notify", "test"}, env.configPath)
	if err != nil {
		t.Fatalf("notify test: %v", err)
	}
	requireContains(t, out, "Notification not sent")
}

func TestNotifyTestReportsServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic blocked", http.StatusForbidden)
	}))
	defer server.Close()

	env := setupCLITestEnv(t, smallSource, testsupport.FFmpegBehavior{})
	env.cfg.Notifications.NtfyTopic = server.URL
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"notify", "test"}, env.configPath)
	if err == nil {
		t.Fatal("expected error from rejected notification")
	}
	requireContains(t, err.Error(), "send test notification")
}
