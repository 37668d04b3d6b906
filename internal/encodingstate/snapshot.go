package encodingstate

import (
	"encoding/json"
	"fmt"
	"strings"

	"delivery/internal/encoding"
)

// Snapshot is the read-only projection a sink shows for the current job.
type Snapshot struct {
	JobID      string         `json:"jobId,omitempty"`
	State      encoding.State `json:"state,omitempty"`
	Running    bool           `json:"running,omitempty"`
	Percent    float64        `json:"percent,omitempty"`
	Frame      int            `json:"frame,omitempty"`
	File       string         `json:"file,omitempty"`
	ETA        string         `json:"eta,omitempty"`
	Width      int            `json:"width,omitempty"`
	Height     int            `json:"height,omitempty"`
	RequiredGB float64        `json:"requiredGb,omitempty"`
	Status     string         `json:"status,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Apply folds one event into the snapshot. Events are expected in emission
// order, so the latest progress wins. Progress arriving after the job's
// terminal event is stale and ignored.
func (s *Snapshot) Apply(ev encoding.Event) {
	if s == nil {
		return
	}
	if ev.Kind != encoding.EventStarted && s.State.Terminal() && ev.JobID == s.JobID {
		return
	}
	if ev.JobID != "" {
		s.JobID = ev.JobID
	}

	switch ev.Kind {
	case encoding.EventStarted:
		*s = Snapshot{JobID: ev.JobID, RequiredGB: ev.RequiredGB}
		s.State = encoding.StateRunning
		s.Running = true
		s.take(ev)
		s.Status = statusLine(s.File, "Starting", s.Width, s.Height, s.ETA)
	case encoding.EventProgress:
		s.State = encoding.StateRunning
		s.Running = true
		s.take(ev)
		s.Status = statusLine(s.File, "Processing", s.Width, s.Height, s.ETA)
	case encoding.EventCompleted:
		s.State = encoding.StateCompleted
		s.Running = false
		s.take(ev)
		s.Percent = 100
		s.Status = statusLine(s.File, "Completed", s.Width, s.Height, s.ETA)
	case encoding.EventCancelled:
		s.State = encoding.StateCancelled
		s.Running = false
		s.take(ev)
		s.Status = statusLine(s.File, "Paused", s.Width, s.Height, s.ETA)
	case encoding.EventError:
		s.State = encoding.StateFailed
		s.Running = false
		s.Error = strings.TrimSpace(ev.Message)
		file := s.File
		if file == "" {
			file = "--"
		}
		s.Status = fmt.Sprintf("File: %s | Error: %s | ETA: %s", file, s.Error, encoding.UnknownETA)
	}
}

func (s *Snapshot) take(ev encoding.Event) {
	if ev.Frame >= s.Frame {
		s.Frame = ev.Frame
		if ev.File != "" {
			s.File = ev.File
		}
	}
	if ev.Percent >= 0 {
		s.Percent = min(ev.Percent, 100)
	}
	if ev.ETA != "" {
		s.ETA = ev.ETA
	}
	if ev.Width > 0 && ev.Height > 0 {
		s.Width, s.Height = ev.Width, ev.Height
	}
	if ev.RequiredGB > 0 {
		s.RequiredGB = ev.RequiredGB
	}
}

func statusLine(file, phase string, width, height int, eta string) string {
	if file == "" {
		file = "--"
	}
	if eta == "" {
		eta = encoding.UnknownETA
	}
	return fmt.Sprintf("File: %s | %s | Res: %dx%d | ETA: %s", file, phase, width, height, eta)
}

// IsZero reports whether the snapshot has no meaningful data.
func (s Snapshot) IsZero() bool {
	return s == Snapshot{}
}

// Marshal converts the snapshot into its JSON string form.
func (s Snapshot) Marshal() (string, error) {
	if s.IsZero() {
		return "", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Unmarshal parses a snapshot from a JSON string. Empty input yields an empty snapshot.
func Unmarshal(raw string) (Snapshot, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Snapshot{}, nil
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
