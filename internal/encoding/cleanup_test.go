package encoding

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"delivery/internal/logging"
)

func TestCleanStaleProgressRemovesOldFilesOnly(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "delivery-progress-111.txt")
	recent := filepath.Join(dir, "delivery-progress-222.txt")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, recent, other} {
		if err := os.WriteFile(path, []byte("frame=1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-2 * time.Hour)
	for _, path := range []string{old, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatal(err)
		}
	}

	result := CleanStaleProgress(dir, time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != old {
		t.Fatalf("removed = %v", result.Removed)
	}
	for _, path := range []string{recent, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s should remain: %v", path, err)
		}
	}
}

func TestCleanStaleProgressMissingDir(t *testing.T) {
	result := CleanStaleProgress(filepath.Join(t.TempDir(), "nope"), time.Hour, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
