package encoding

import (
	"fmt"
	"time"
)

// EventKind tags an Event.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
	EventError     EventKind = "error"
	EventCancelled EventKind = "cancelled"
)

// Event is one message from a job worker to its sink. Which fields are set
// depends on Kind: Frame, Percent and ETA accompany Started, Progress,
// Completed and Cancelled; Message carries the error text for Error and a
// summary for Completed.
type Event struct {
	Kind       EventKind
	JobID      string
	Frame      int
	File       string
	Percent    float64
	ETA        string
	Width      int
	Height     int
	RequiredGB float64
	Message    string
	At         time.Time
}

// Terminal reports whether no further events follow for the job.
func (e Event) Terminal() bool {
	switch e.Kind {
	case EventCompleted, EventError, EventCancelled:
		return true
	default:
		return false
	}
}

func (e Event) String() string {
	switch e.Kind {
	case EventError:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	default:
		return fmt.Sprintf("%s frame=%d percent=%.1f eta=%s", e.Kind, e.Frame, e.Percent, e.ETA)
	}
}

// Drain returns every event currently buffered in ch without blocking. It
// stops early if ch is closed.
func Drain(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}
