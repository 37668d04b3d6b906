package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"delivery/internal/deps"
	"delivery/internal/encoding"
	"delivery/internal/encodingstate"
	"delivery/internal/graph"
	"delivery/internal/history"
	"delivery/internal/logging"
	"delivery/internal/media/ffprobe"
	"delivery/internal/resume"
	"delivery/internal/services"
)

// LockFileName is created in the output directory while a job writes to it.
const LockFileName = ".delivery.lock"

func defaultProber(binary string) Prober {
	return ffprobe.NewProber(binary)
}

// attempt carries per-job state through the worker.
type attempt struct {
	job      *Job
	logger   *slog.Logger
	overlay  string
	snapshot encodingstate.Snapshot
	result   Result
	recorded bool
	// terminal is held back until the orchestrator has released the job.
	terminal *encoding.Event
}

func (a *attempt) emit(ev encoding.Event) {
	a.snapshot.Apply(ev)
	if ev.Terminal() {
		a.terminal = &ev
		return
	}
	a.job.emit(ev)
}

func (o *Orchestrator) run(ctx context.Context, job *Job) {
	ctx = services.WithJobID(ctx, job.ID)
	a := &attempt{
		job:    job,
		logger: logging.WithContext(ctx, o.logger),
		result: Result{State: encoding.StateLaunching, ETA: encoding.UnknownETA},
	}
	a.overlay = strings.TrimSpace(job.Request.Overlay)
	if a.overlay == "" {
		a.overlay = o.cfg.OverlayFor(job.Request.Resolution.Key())
	}

	a.logger.Info("job accepted",
		logging.String(logging.FieldEventType, "job_accepted"),
		logging.String("input", job.Request.Input),
		logging.String("output_dir", job.Request.OutputDir),
		logging.String("resolution", job.Request.Resolution.String()),
	)

	err := o.execute(ctx, a)
	if err != nil && a.result.State == encoding.StateLaunching && ctx.Err() != nil {
		a.result.State = encoding.StateCancelled
		a.logger.Info("job cancelled before launch", logging.String(logging.FieldEventType, "job_cancelled"))
		a.emit(encoding.Event{
			Kind:  encoding.EventCancelled,
			JobID: job.ID,
			Frame: a.result.Frame,
			ETA:   encoding.UnknownETA,
			At:    time.Now(),
		})
		err = nil
	}
	if err != nil {
		a.result.State = encoding.StateFailed
		a.result.Err = err
		a.logger.Error("job failed",
			logging.String(logging.FieldEventType, "job_failed"),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Error(err),
		)
		a.emit(encoding.Event{
			Kind:    encoding.EventError,
			JobID:   job.ID,
			Frame:   a.result.Frame,
			Message: err.Error(),
			At:      time.Now(),
		})
	}

	// The job is cleared before its terminal event goes out, so a sink may
	// start the next job as soon as it sees it.
	o.release(job)
	job.setResult(a.result)
	if a.terminal != nil {
		job.emit(*a.terminal)
	}
	o.record(ctx, a)
	o.notify(ctx, a)
	job.finish()
	job.fireCancel()
}

// execute runs the pipeline. A nil error means the job completed or was
// cancelled; a.result.State tells which.
func (o *Orchestrator) execute(ctx context.Context, a *attempt) error {
	req := a.job.Request
	tools := deps.Locate(o.cfg.FFmpegBinary(), o.cfg.FFprobeBinary())
	if err := deps.Require(tools); err != nil {
		return err
	}
	if err := requireFile("input", req.Input); err != nil {
		return err
	}
	if err := requireFile("overlay", a.overlay); err != nil {
		return err
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return services.Wrap(services.ErrValidation, "preflight", "output directory", "not set", nil)
	}

	info, err := o.newProber(tools.FFprobe).Probe(ctx, req.Input)
	if err != nil {
		return err
	}
	a.logger.Info("probed input",
		logging.Int("width", info.Width),
		logging.Int("height", info.Height),
		logging.Float64("duration_seconds", info.DurationSeconds),
		logging.Float64("frame_rate", info.FrameRate),
	)

	estimate, err := o.estimator.Check(info, req.Resolution, outputDir)
	a.result.Estimate = estimate
	if err != nil {
		return err
	}
	a.logger.Info("storage check passed",
		logging.Uint64("required_bytes", estimate.RequiredBytes),
		logging.Uint64("total_frames", estimate.TotalFrames),
	)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "create output directory", outputDir, err)
	}
	lock := flock.New(filepath.Join(outputDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrOutputBusy, "preflight", "lock output directory", outputDir, err)
	}
	if !locked {
		return services.Wrap(services.ErrOutputBusy, "preflight", "lock output directory", "another process is writing to "+outputDir, nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	start, err := resume.Scan(outputDir, o.cfg.Encoding.FrameExtension)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "resume", "scan output directory", outputDir, err)
	}
	a.result.StartFrame = start
	a.result.Frame = start
	if start > 0 {
		a.logger.Info("resuming from existing frames", logging.Int("start_frame", start))
	}

	description := graph.Build(info, start, req.Resolution)
	o.begin(ctx, a, estimate)
	o.announce(ctx, a, estimate)
	if err := ctx.Err(); err != nil {
		return err
	}

	supervisor := encoding.NewSupervisor(a.logger)
	outcome, err := supervisor.Run(ctx, encoding.Request{
		JobID:           a.job.ID,
		FFmpeg:          tools.FFmpeg,
		Input:           req.Input,
		Overlay:         a.overlay,
		OutputDir:       outputDir,
		FrameExt:        o.cfg.Encoding.FrameExtension,
		Graph:           description,
		DurationSeconds: info.DurationSeconds,
		RequiredGB:      estimate.RequiredGB(),
		PollInterval:    o.cfg.PollInterval(),
	}, a.emit)
	a.result.State = outcome.State
	a.result.Frame = outcome.Frame
	a.result.Percent = outcome.Percent
	a.result.ETA = outcome.ETA
	return err
}

func requireFile(label, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return services.Wrap(services.ErrValidation, "preflight", label, "not set", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrValidation, "preflight", label, fmt.Sprintf("%s does not exist", path), nil)
		}
		return services.Wrap(services.ErrValidation, "preflight", label, path, err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "preflight", label, fmt.Sprintf("%s is a directory", path), nil)
	}
	return nil
}

func historyState(state encoding.State) string {
	switch state {
	case encoding.StateCompleted:
		return history.StateCompleted
	case encoding.StateCancelled:
		return history.StateCancelled
	default:
		return history.StateFailed
	}
}
