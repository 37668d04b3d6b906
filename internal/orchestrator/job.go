package orchestrator

import (
	"sync"

	"github.com/google/uuid"

	"delivery/internal/encoding"
	"delivery/internal/media"
	"delivery/internal/storage"
)

const eventBuffer = 64

// Request names the job to run.
type Request struct {
	Input      string
	OutputDir  string
	Resolution media.Resolution
	// Overlay overrides the image configured for Resolution.
	Overlay string
}

// Result is the terminal state of a job.
type Result struct {
	State      encoding.State
	StartFrame int
	Frame      int
	Percent    float64
	ETA        string
	Estimate   storage.Estimate
	Err        error
}

// Job is the handle for one run.
type Job struct {
	ID      string
	Request Request

	events     chan encoding.Event
	done       chan struct{}
	cancel     func()
	cancelOnce sync.Once

	mu     sync.Mutex
	result Result
}

func newJob(req Request, cancel func()) *Job {
	return &Job{
		ID:      uuid.NewString(),
		Request: req,
		events:  make(chan encoding.Event, eventBuffer),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
}

// Events delivers the job's events. It is closed after the terminal event.
// When the buffer is full the oldest buffered event is dropped, so a slow
// reader always sees the latest progress and the terminal event.
func (j *Job) Events() <-chan encoding.Event { return j.events }

// Done is closed after the terminal event, once the outcome has been recorded
// and published.
func (j *Job) Done() <-chan struct{} { return j.done }

// Result returns the terminal state. It is set before the terminal event is
// delivered and is the zero Result until then.
func (j *Job) Result() Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

func (j *Job) fireCancel() {
	j.cancelOnce.Do(func() {
		if j.cancel != nil {
			j.cancel()
		}
	})
}

// emit is only called from the job's worker goroutine, the only sender.
func (j *Job) emit(ev encoding.Event) {
	if ev.JobID == "" {
		ev.JobID = j.ID
	}
	for {
		select {
		case j.events <- ev:
			return
		default:
		}
		select {
		case <-j.events:
		default:
		}
	}
}

func (j *Job) setResult(result Result) {
	j.mu.Lock()
	j.result = result
	j.mu.Unlock()
}

func (j *Job) finish() {
	close(j.events)
	close(j.done)
}
