package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"delivery/internal/graph"
	"delivery/internal/logging"
	"delivery/internal/procattr"
	"delivery/internal/resume"
	"delivery/internal/services"
)

const (
	defaultPollInterval = 200 * time.Millisecond
	progressFilePattern = "delivery-progress-*.txt"
)

// State is a supervisor lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateLaunching State = "launching"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether s ends the state machine.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Request describes one ffmpeg invocation.
type Request struct {
	JobID           string
	FFmpeg          string
	Input           string
	Overlay         string
	OutputDir       string
	FrameExt        string
	Graph           graph.Description
	DurationSeconds float64
	RequiredGB      float64
	PollInterval    time.Duration
}

// Outcome is the terminal result of a supervised run.
type Outcome struct {
	State   State
	Frame   int
	Percent float64
	ETA     string
}

// ExitError reports ffmpeg exiting with a non-zero status.
type ExitError struct {
	ExitCode  int
	LastFrame int
	ETA       string
	Err       error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ffmpeg exited with status %d at frame %d (ETA: %s)", e.ExitCode, e.LastFrame, e.ETA)
}

// Is lets errors.Is match the runtime failure marker.
func (e *ExitError) Is(target error) bool { return target == services.ErrRuntime }

func (e *ExitError) Unwrap() error { return e.Err }

// Supervisor owns the ffmpeg child process for the duration of a run.
type Supervisor struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewSupervisor returns a supervisor logging through logger.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	return &Supervisor{
		logger: logging.NewComponentLogger(logger, "encoding"),
		now:    time.Now,
	}
}

// Args returns the ffmpeg command line for req, writing progress to
// progressPath.
func Args(req Request, progressPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-i", req.Input,
		"-i", req.Overlay,
		"-filter_complex", req.Graph.Filter,
		"-fps_mode", "passthrough",
		"-start_number", strconv.Itoa(req.Graph.StartFrame),
		"-progress", progressPath,
		"-y",
		filepath.Join(req.OutputDir, resume.FramePattern(req.FrameExt)),
	}
}

// Run launches ffmpeg and supervises it until it exits or ctx is cancelled.
// emit receives every event and must not block for long. Cancellation yields
// a Cancelled outcome and a nil error.
func (s *Supervisor) Run(ctx context.Context, req Request, emit func(Event)) (Outcome, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	logger := logging.WithContext(ctx, s.logger)
	interval := req.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	// Launching
	progressFile, err := os.CreateTemp("", progressFilePattern)
	if err != nil {
		return Outcome{State: StateFailed, Frame: req.Graph.StartFrame, ETA: UnknownETA},
			services.Wrap(services.ErrSpawn, "encoding", "progress file", "Failed to create progress side-channel", err)
	}
	progressPath := progressFile.Name()
	_ = progressFile.Close()
	defer func() {
		if err := os.Remove(progressPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to remove progress file", logging.String("path", progressPath), logging.Error(err))
		}
	}()

	args := Args(req, progressPath)
	// Stdout and Stderr stay nil: ffmpeg's console output goes to the null
	// device and progress is read from the side-channel file only.
	cmd := exec.Command(req.FFmpeg, args...)
	procattr.HideConsole(cmd)

	logger.Info("launching ffmpeg",
		logging.String("ffmpeg", req.FFmpeg),
		logging.String("input", req.Input),
		logging.String("overlay", req.Overlay),
		logging.String("output_dir", req.OutputDir),
		logging.Int("start_frame", req.Graph.StartFrame),
		logging.String("filter", req.Graph.Filter),
	)
	if err := cmd.Start(); err != nil {
		return Outcome{State: StateFailed, Frame: req.Graph.StartFrame, ETA: UnknownETA},
			services.Wrap(services.ErrSpawn, "encoding", "launch ffmpeg", req.FFmpeg, err)
	}

	// Running
	started := s.now()
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	track := newTracker(req.Graph.StartFrame, req.DurationSeconds)
	sampler := logging.NewProgressSampler(5)
	emit(s.event(req, EventStarted, track.current()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				logger.Warn("failed to kill ffmpeg", logging.Error(err))
			}
			<-done
			last := track.current()
			logger.Info("ffmpeg cancelled",
				logging.String(logging.FieldEventType, "job_cancelled"),
				logging.Int("frame", last.Frame),
				logging.String("eta", last.ETA),
			)
			emit(s.event(req, EventCancelled, last))
			return outcome(StateCancelled, last), nil
		default:
		}

		if data, err := os.ReadFile(progressPath); err == nil {
			sample := track.apply(ParseProgress(data), s.now().Sub(started))
			if sampler.ShouldLog(sample.Percent) {
				logger.Info("encode progress",
					logging.Int("frame", sample.Frame),
					logging.Float64("percent", roundTenth(sample.Percent)),
					logging.String("eta", sample.ETA),
				)
			}
			emit(s.event(req, EventProgress, sample))
		}

		select {
		case waitErr := <-done:
			return s.finish(req, progressPath, started, track, waitErr, emit, logger)
		default:
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) finish(req Request, progressPath string, started time.Time, track *tracker, waitErr error, emit func(Event), logger *slog.Logger) (Outcome, error) {
	if data, err := os.ReadFile(progressPath); err == nil {
		track.apply(ParseProgress(data), s.now().Sub(started))
	}
	last := track.current()

	if waitErr == nil {
		final := Sample{Frame: last.Frame, Percent: 100, ETA: "00:00"}
		logger.Info("ffmpeg completed",
			logging.String(logging.FieldEventType, "job_completed"),
			logging.Int("frame", final.Frame),
			logging.Duration("elapsed", s.now().Sub(started).Round(time.Second)),
		)
		ev := s.event(req, EventCompleted, final)
		ev.Message = fmt.Sprintf("Completed %dx%d through frame %d", req.Graph.Width, req.Graph.Height, final.Frame)
		emit(ev)
		return outcome(StateCompleted, final), nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		err := &ExitError{ExitCode: exitErr.ExitCode(), LastFrame: last.Frame, ETA: last.ETA, Err: waitErr}
		logger.Error("ffmpeg failed",
			logging.String(logging.FieldEventType, "job_failed"),
			logging.Int("exit_code", err.ExitCode),
			logging.Int("frame", last.Frame),
			logging.String("eta", last.ETA),
		)
		return outcome(StateFailed, last), err
	}
	return outcome(StateFailed, last), services.Wrap(services.ErrRuntime, "encoding", "wait ffmpeg", "Lost track of ffmpeg process", waitErr)
}

func (s *Supervisor) event(req Request, kind EventKind, sample Sample) Event {
	return Event{
		Kind:       kind,
		JobID:      req.JobID,
		Frame:      sample.Frame,
		File:       resume.FrameName(sample.Frame, req.FrameExt),
		Percent:    sample.Percent,
		ETA:        sample.ETA,
		Width:      req.Graph.Width,
		Height:     req.Graph.Height,
		RequiredGB: req.RequiredGB,
		At:         s.now(),
	}
}

func outcome(state State, sample Sample) Outcome {
	return Outcome{State: state, Frame: sample.Frame, Percent: sample.Percent, ETA: sample.ETA}
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
