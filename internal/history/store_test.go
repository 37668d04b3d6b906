package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"delivery/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginFinishRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	rec := history.Record{
		ID:            "job-1",
		InputPath:     "/in.mp4",
		OverlayPath:   "/ovr.png",
		OutputDir:     "/out",
		Resolution:    "2048",
		StartFrame:    42,
		RequiredBytes: 4_831_838_208,
	}
	if err := store.Begin(ctx, rec); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != history.StateRunning || got.LastFrame != 42 || got.FinishedAt != nil {
		t.Fatalf("unexpected running record %+v", got)
	}
	if got.RequiredBytes != rec.RequiredBytes {
		t.Fatalf("required bytes = %d", got.RequiredBytes)
	}

	err = store.Finish(ctx, "job-1", history.Outcome{
		State:        history.StateFailed,
		LastFrame:    77,
		FailureKind:  "runtime",
		Message:      "ffmpeg exited with status 1",
		SnapshotJSON: `{"frame":77}`,
	})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	got, err = store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != history.StateFailed || got.LastFrame != 77 || got.FailureKind != "runtime" || got.FinishedAt == nil {
		t.Fatalf("unexpected finished record %+v", got)
	}
	if got.SnapshotJSON != `{"frame":77}` {
		t.Fatalf("snapshot = %q", got.SnapshotJSON)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		rec := history.Record{ID: id, InputPath: "/in", OverlayPath: "/o", OutputDir: "/out", Resolution: "native", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Begin(ctx, rec); err != nil {
			t.Fatalf("Begin %s: %v", id, err)
		}
	}
	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("unexpected order %+v", recent)
	}
	if !recent[0].StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("started_at = %v", recent[0].StartedAt)
	}
}

func TestMarkInterruptedAndMissing(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.Begin(ctx, history.Record{ID: "x", InputPath: "/in", OverlayPath: "/o", OutputDir: "/out", Resolution: "native"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	n, err := store.MarkInterrupted(ctx)
	if err != nil || n != 1 {
		t.Fatalf("MarkInterrupted = %d, %v", n, err)
	}
	got, _ := store.Get(ctx, "x")
	if got.State != history.StateInterrupted {
		t.Fatalf("state = %s", got.State)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Finish(ctx, "missing", history.Outcome{State: history.StateCompleted}); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Finish, got %v", err)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Begin(context.Background(), history.Record{ID: "keep", InputPath: "/in", OverlayPath: "/o", OutputDir: "/out", Resolution: "native"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_ = first.Close()

	second, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, err := second.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}
