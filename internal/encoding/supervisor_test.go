package encoding_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"delivery/internal/encoding"
	"delivery/internal/graph"
	"delivery/internal/logging"
	"delivery/internal/media"
	"delivery/internal/services"
	"delivery/internal/testsupport"
)

type recorder struct {
	mu     sync.Mutex
	events []encoding.Event
	first  chan struct{}
	once   sync.Once
}

func newRecorder() *recorder {
	return &recorder{first: make(chan struct{})}
}

func (r *recorder) emit(ev encoding.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	if ev.Kind == encoding.EventProgress && ev.Percent > 0 {
		r.once.Do(func() { close(r.first) })
	}
}

func (r *recorder) snapshot() []encoding.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]encoding.Event(nil), r.events...)
}

func newRequest(t *testing.T, src testsupport.Source, behavior testsupport.FFmpegBehavior, start int) encoding.Request {
	t.Helper()
	base := t.TempDir()
	out := filepath.Join(base, "frames")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	info := media.Info{Width: src.Width, Height: src.Height, DurationSeconds: src.DurationSeconds(), FrameRate: float64(src.FPS)}
	return encoding.Request{
		JobID:           "job-1",
		FFmpeg:          testsupport.FakeFFmpeg(t, filepath.Join(base, "bin"), src, behavior),
		Input:           filepath.Join(base, "in.mp4"),
		Overlay:         filepath.Join(base, "overlay.png"),
		OutputDir:       out,
		FrameExt:        "png",
		Graph:           graph.Build(info, start, media.FixedSquare(2048)),
		DurationSeconds: src.DurationSeconds(),
		PollInterval:    10 * time.Millisecond,
	}
}

func countFrames(t *testing.T, dir string) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return len(matches)
}

func progressFiles(t *testing.T) []string {
	t.Helper()
	matches, _ := filepath.Glob(filepath.Join(os.TempDir(), "delivery-progress-*.txt"))
	return matches
}

func TestArgsLayout(t *testing.T) {
	req := encoding.Request{
		Input:     "/in.mp4",
		Overlay:   "/ovr.png",
		OutputDir: "/out",
		FrameExt:  "png",
		Graph:     graph.Description{Filter: "G", StartFrame: 7},
	}
	got := strings.Join(encoding.Args(req, "/tmp/p.txt"), " ")
	want := "-hide_banner -nostdin -i /in.mp4 -i /ovr.png -filter_complex G -fps_mode passthrough -start_number 7 -progress /tmp/p.txt -y " +
		filepath.Join("/out", "frame_%04d.png")
	if got != want {
		t.Fatalf("args\n got: %s\nwant: %s", got, want)
	}
}

func TestRunCompletes(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	src := testsupport.Source{Width: 320, Height: 240, Frames: 12, FPS: 24}
	req := newRequest(t, src, testsupport.FFmpegBehavior{}, 0)
	rec := newRecorder()

	outcome, err := encoding.NewSupervisor(logging.NewNop()).Run(context.Background(), req, rec.emit)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.State != encoding.StateCompleted || outcome.Percent != 100 || outcome.ETA != "00:00" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.Frame != 12 {
		t.Fatalf("final frame = %d", outcome.Frame)
	}
	if n := countFrames(t, req.OutputDir); n != 12 {
		t.Fatalf("frames on disk = %d", n)
	}

	events := rec.snapshot()
	if events[0].Kind != encoding.EventStarted || events[0].Width != 2048 {
		t.Fatalf("first event = %+v", events[0])
	}
	last := events[len(events)-1]
	if last.Kind != encoding.EventCompleted || last.Percent != 100 || last.ETA != "00:00" {
		t.Fatalf("last event = %+v", last)
	}
	prev := 0
	for _, ev := range events {
		if ev.Frame < prev {
			t.Fatalf("frame regressed: %d after %d", ev.Frame, prev)
		}
		if ev.Percent < 0 || ev.Percent > 100 {
			t.Fatalf("percent out of range: %v", ev.Percent)
		}
		prev = ev.Frame
	}
	if leftovers := progressFiles(t); len(leftovers) != 0 {
		t.Fatalf("progress file not removed: %v", leftovers)
	}
}

func TestRunResumesFromStartFrame(t *testing.T) {
	src := testsupport.Source{Width: 320, Height: 240, Frames: 10, FPS: 10}
	req := newRequest(t, src, testsupport.FFmpegBehavior{}, 6)
	rec := newRecorder()

	outcome, err := encoding.NewSupervisor(logging.NewNop()).Run(context.Background(), req, rec.emit)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Frame != 10 {
		t.Fatalf("final frame = %d", outcome.Frame)
	}
	for _, ev := range rec.snapshot() {
		if ev.Frame < 6 {
			t.Fatalf("event below start frame: %+v", ev)
		}
	}
	if n := countFrames(t, req.OutputDir); n != 4 {
		t.Fatalf("frames on disk = %d, want 4 (6..9)", n)
	}
}

func TestRunCancel(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	src := testsupport.Source{Width: 320, Height: 240, Frames: 100, FPS: 10}
	req := newRequest(t, src, testsupport.FFmpegBehavior{StallAfter: 3}, 0)
	rec := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		outcome encoding.Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := encoding.NewSupervisor(logging.NewNop()).Run(ctx, req, rec.emit)
		done <- result{outcome, err}
	}()

	select {
	case <-rec.first:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for progress")
	}
	cancel()

	var res result
	select {
	case res = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not stop after cancel")
	}
	if res.err != nil {
		t.Fatalf("cancel should not be an error: %v", res.err)
	}
	if res.outcome.State != encoding.StateCancelled {
		t.Fatalf("state = %s", res.outcome.State)
	}
	events := rec.snapshot()
	last := events[len(events)-1]
	if last.Kind != encoding.EventCancelled {
		t.Fatalf("last event = %+v", last)
	}
	var lastProgress encoding.Event
	for _, ev := range events {
		if ev.Kind == encoding.EventProgress {
			lastProgress = ev
		}
	}
	if last.Frame != lastProgress.Frame {
		t.Fatalf("cancelled frame %d, last parsed %d", last.Frame, lastProgress.Frame)
	}
	if leftovers := progressFiles(t); len(leftovers) != 0 {
		t.Fatalf("progress file not removed: %v", leftovers)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	src := testsupport.Source{Width: 320, Height: 240, Frames: 3, FPS: 10}
	req := newRequest(t, src, testsupport.FFmpegBehavior{ExitCode: 3}, 0)

	outcome, err := encoding.NewSupervisor(logging.NewNop()).Run(context.Background(), req, nil)
	var exitErr *encoding.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if !errors.Is(err, services.ErrRuntime) {
		t.Fatalf("expected runtime marker, got %v", err)
	}
	if exitErr.ExitCode != 3 || exitErr.LastFrame != 3 {
		t.Fatalf("unexpected exit error %+v", exitErr)
	}
	if outcome.State != encoding.StateFailed {
		t.Fatalf("state = %s", outcome.State)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	src := testsupport.Source{Width: 320, Height: 240, Frames: 3, FPS: 10}
	req := newRequest(t, src, testsupport.FFmpegBehavior{}, 0)
	req.FFmpeg = filepath.Join(t.TempDir(), "does-not-exist")

	outcome, err := encoding.NewSupervisor(logging.NewNop()).Run(context.Background(), req, nil)
	if !errors.Is(err, services.ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}
	if outcome.State != encoding.StateFailed {
		t.Fatalf("state = %s", outcome.State)
	}
}

func TestDrain(t *testing.T) {
	ch := make(chan encoding.Event, 4)
	if got := encoding.Drain(ch); len(got) != 0 {
		t.Fatalf("expected nothing, got %v", got)
	}
	ch <- encoding.Event{Kind: encoding.EventProgress, Frame: 1}
	ch <- encoding.Event{Kind: encoding.EventCompleted, Frame: 2}
	got := encoding.Drain(ch)
	if len(got) != 2 || !got[1].Terminal() || got[0].Terminal() {
		t.Fatalf("unexpected drain %v", got)
	}
	close(ch)
	if got := encoding.Drain(ch); got != nil {
		t.Fatalf("expected nil from closed channel, got %v", got)
	}
}
