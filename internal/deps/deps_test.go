package deps

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"delivery/internal/services"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	writeStub(t, present)
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Empty", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %q", results[2].Detail)
	}
}

func TestLocateExplicitFFmpegFindsSiblingProbe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, "ffmpeg")
	ffprobe := filepath.Join(dir, "ffprobe")
	writeStub(t, ffmpeg)
	writeStub(t, ffprobe)

	tools := Locate(ffmpeg, "")
	if tools.FFmpeg != ffmpeg || tools.FFprobe != ffprobe {
		t.Fatalf("unexpected tools: %+v", tools)
	}
}

func TestLocateBundledDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	work := t.TempDir()
	t.Chdir(work)
	writeStub(t, filepath.Join(work, "assets", "ffmpeg", "ffmpeg"))
	writeStub(t, filepath.Join(work, "assets", "ffmpeg", "ffprobe"))
	t.Setenv("PATH", t.TempDir())

	tools := Locate("", "")
	if tools.FFmpeg != filepath.Join("assets", "ffmpeg", "ffmpeg") {
		t.Fatalf("unexpected ffmpeg: %q", tools.FFmpeg)
	}
	if tools.FFprobe != filepath.Join("assets", "ffmpeg", "ffprobe") {
		t.Fatalf("unexpected ffprobe: %q", tools.FFprobe)
	}
}

func TestLocatePathPair(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	t.Chdir(t.TempDir())
	binDir := t.TempDir()
	writeStub(t, filepath.Join(binDir, "ffmpeg"))
	writeStub(t, filepath.Join(binDir, "ffprobe"))
	t.Setenv("PATH", binDir)

	tools := Locate("", "")
	if tools.FFmpeg != filepath.Join(binDir, "ffmpeg") || tools.FFprobe != filepath.Join(binDir, "ffprobe") {
		t.Fatalf("unexpected tools: %+v", tools)
	}
	if err := Require(tools); err != nil {
		t.Fatalf("Require: %v", err)
	}
}

func TestRequireReportsMissingTool(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PATH", t.TempDir())
	err := Require(Locate("", ""))
	if !errors.Is(err, services.ErrToolMissing) {
		t.Fatalf("expected ErrToolMissing, got %v", err)
	}
}
