package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"delivery/internal/config"
	"delivery/internal/history"
	"delivery/internal/logging"
	"delivery/internal/media"
	"delivery/internal/notifications"
	"delivery/internal/storage"
)

// ErrJobActive is returned by Start while another job is running.
var ErrJobActive = errors.New("a job is already running")

// Prober reads the facts a job needs from the source video.
type Prober interface {
	Probe(ctx context.Context, path string) (media.Info, error)
}

// Orchestrator owns the single active job.
type Orchestrator struct {
	cfg       *config.Config
	logger    *slog.Logger
	notifier  notifications.Service
	store     *history.Store
	estimator *storage.Estimator
	newProber func(binary string) Prober

	mu     sync.Mutex
	active *Job
}

// Option configures optional Orchestrator collaborators.
type Option func(*Orchestrator)

// WithNotifier overrides the notifier built from config.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithHistory records every job attempt in store.
func WithHistory(store *history.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithEstimator overrides the storage estimator built from config.
func WithEstimator(estimator *storage.Estimator) Option {
	return func(o *Orchestrator) {
		if estimator != nil {
			o.estimator = estimator
		}
	}
}

// WithProber replaces the ffprobe-backed prober.
func WithProber(factory func(binary string) Prober) Option {
	return func(o *Orchestrator) {
		if factory != nil {
			o.newProber = factory
		}
	}
}

// New constructs an orchestrator.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "orchestrator"),
		notifier:  notifications.NewService(cfg),
		estimator: storage.NewEstimator(cfg.Encoding.BytesPerPixel, cfg.Encoding.SafetyMargin),
		newProber: defaultProber,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start launches a job worker and returns its handle. While a job is active
// it returns ErrJobActive and changes nothing.
func (o *Orchestrator) Start(ctx context.Context, req Request) (*Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return nil, ErrJobActive
	}

	runCtx, cancel := context.WithCancel(ctx)
	job := newJob(req, cancel)
	o.active = job
	go o.run(runCtx, job)
	return job, nil
}

// Cancel fires the job's cancel signal. It is a no-op for a nil or finished
// job and for repeated calls.
func (o *Orchestrator) Cancel(job *Job) {
	if job == nil {
		return
	}
	job.fireCancel()
}

// Active returns the running job, or nil.
func (o *Orchestrator) Active() *Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Running reports whether a job is active.
func (o *Orchestrator) Running() bool {
	return o.Active() != nil
}

func (o *Orchestrator) release(job *Job) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == job {
		o.active = nil
	}
}
