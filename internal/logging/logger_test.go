package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"delivery/internal/config"
	"delivery/internal/logging"
	"delivery/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello file")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "delivery.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("expected message in log file, got %q", data)
	}
}

func TestConsoleLoggerFormatsComponentAndJob(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "0123456789abcdef")
	log := logging.WithContext(ctx, logging.NewComponentLogger(logger, "encoding"))
	log.Info("progress", logging.Int("frame", 42), logging.String("eta", "01:02"))
	log.Debug("hidden")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, " INF [encoding 01234567] progress") {
		t.Fatalf("expected component and short job id prefix, got %q", line)
	}
	if !strings.Contains(line, "frame=42") || !strings.Contains(line, "eta=01:02") {
		t.Fatalf("expected attributes, got %q", line)
	}
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", line)
	}
}

func TestConsoleLoggerGroupsQuotingAndNestedComponents(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	outer := logging.NewComponentLogger(logger, "orchestrator")
	inner := logging.NewComponentLogger(outer, "encoding")
	inner.Warn("launching ffmpeg", logging.String("filter", "scale=2048:2048 [v]"), logging.String("empty", ""))
	outer.WithGroup("estimate").Info("storage", logging.Uint64("required_bytes", 42))
	logger.Debug("plain")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", content)
	}
	if !strings.Contains(lines[0], " WRN [encoding] launching ffmpeg") {
		t.Fatalf("expected innermost component, got %q", lines[0])
	}
	if !strings.Contains(lines[0], `filter="scale=2048:2048 [v]"`) || !strings.Contains(lines[0], `empty=""`) {
		t.Fatalf("expected quoted values, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[orchestrator] storage estimate.required_bytes=42") {
		t.Fatalf("expected grouped key, got %q", lines[1])
	}
	if !strings.Contains(lines[2], " DBG plain") || !strings.Contains(lines[2], ".go:") {
		t.Fatalf("expected unlabelled debug line with caller, got %q", lines[2])
	}
}

func TestJSONLoggerEmitsStructuredFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("storage low", logging.Float64("required_gb", 4.5), logging.String(logging.FieldJobID, "abc"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if payload["level"] != "warn" || payload["msg"] != "storage low" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["job_id"] != "abc" || payload["required_gb"] != 4.5 {
		t.Fatalf("unexpected fields: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.NewComponentLogger(nil, "x").Info("ignored")
}
