package encoding

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

// UnknownETA is shown until enough progress exists to extrapolate.
const UnknownETA = "--:--"

// Reading is the current truth parsed from the -progress side-channel file.
type Reading struct {
	Frame      int
	HasFrame   bool
	OutTimeUS  int64
	HasOutTime bool
}

// ParseProgress scans key=value lines and keeps the last occurrence of frame
// and out_time_ms. ffmpeg reports out_time_ms in microseconds. Lines that do
// not fully match, including an unterminated trailing line still being
// written, are skipped.
func ParseProgress(data []byte) Reading {
	var r Reading
	for len(data) > 0 {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSpace(data[:idx])
		data = data[idx+1:]

		key, value, ok := bytes.Cut(line, []byte{'='})
		if !ok || len(value) == 0 {
			continue
		}
		switch string(key) {
		case "frame":
			n, err := strconv.ParseUint(string(value), 10, 32)
			if err != nil {
				continue
			}
			r.Frame = int(n)
			r.HasFrame = true
		case "out_time_ms":
			n, err := strconv.ParseInt(string(value), 10, 64)
			if err != nil {
				continue
			}
			r.OutTimeUS = n
			r.HasOutTime = true
		}
	}
	return r
}

// Sample is one derived progress figure.
type Sample struct {
	Frame   int
	Percent float64
	ETA     string
}

// tracker folds successive readings into samples. Frame never decreases and
// never drops below the start frame.
type tracker struct {
	start    int
	duration float64
	last     Sample
}

func newTracker(start int, duration float64) *tracker {
	return &tracker{start: start, duration: duration, last: Sample{Frame: start, ETA: UnknownETA}}
}

func (t *tracker) apply(r Reading, elapsed time.Duration) Sample {
	if r.HasFrame {
		if frame := t.start + r.Frame; frame > t.last.Frame {
			t.last.Frame = frame
		}
	}
	if r.HasOutTime && t.duration > 0 {
		t.last.Percent = Percent(float64(r.OutTimeUS)/1e6, t.duration)
		t.last.ETA = EstimateETA(elapsed, t.last.Percent)
	}
	return t.last
}

func (t *tracker) current() Sample { return t.last }

// Percent converts an output timestamp into completion, clamped to [0, 100].
func Percent(outSeconds, durationSeconds float64) float64 {
	if durationSeconds <= 0 || math.IsNaN(outSeconds) {
		return 0
	}
	p := outSeconds / durationSeconds * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// EstimateETA extrapolates the remaining time from elapsed wall time and
// percent complete. Below 0.1% the estimate is unknown.
func EstimateETA(elapsed time.Duration, percent float64) string {
	if percent <= 0.1 {
		return UnknownETA
	}
	secs := elapsed.Seconds()
	remaining := secs*100/percent - secs
	if remaining < 0 {
		remaining = 0
	}
	return FormatETA(time.Duration(remaining * float64(time.Second)))
}

// FormatETA renders a duration as MM:SS. Minutes are not capped.
func FormatETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
