package ffprobe

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"delivery/internal/media"
	"delivery/internal/services"
)

// Prober runs the three narrow ffprobe queries the pipeline needs. Each query
// is a separate invocation so frame rate can be asked for on its own.
type Prober struct {
	Binary string
}

// NewProber returns a prober bound to the given ffprobe binary.
func NewProber(binary string) *Prober {
	return &Prober{Binary: binary}
}

// Probe collects dimensions, duration and frame rate. Any failure is fatal
// for the current attempt; nothing is retried here.
func (p *Prober) Probe(ctx context.Context, path string) (media.Info, error) {
	width, height, err := p.Dimensions(ctx, path)
	if err != nil {
		return media.Info{}, err
	}
	duration, err := p.Duration(ctx, path)
	if err != nil {
		return media.Info{}, err
	}
	rate, err := p.FrameRate(ctx, path)
	if err != nil {
		return media.Info{}, err
	}
	return media.Info{Width: width, Height: height, DurationSeconds: duration, FrameRate: rate}, nil
}

// Dimensions returns the width and height of the first video stream.
func (p *Prober) Dimensions(ctx context.Context, path string) (int, int, error) {
	out, err := run(ctx, p.Binary, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height", "-of", "csv=p=0", path)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrProbe, "probe", "dimensions", "ffprobe failed", err)
	}
	return ParseDimensions(string(out))
}

// Duration returns the container duration in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	out, err := run(ctx, p.Binary, "-v", "error",
		"-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		return 0, services.Wrap(services.ErrProbe, "probe", "duration", "ffprobe failed", err)
	}
	return ParseDuration(string(out))
}

// FrameRate returns the average frame rate of the first video stream.
func (p *Prober) FrameRate(ctx context.Context, path string) (float64, error) {
	out, err := run(ctx, p.Binary, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate", "-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		return 0, services.Wrap(services.ErrProbe, "probe", "frame rate", "ffprobe failed", err)
	}
	return ParseFrameRate(string(out))
}

// ParseDimensions parses "W,H" into two non-negative integers.
func ParseDimensions(raw string) (int, int, error) {
	trimmed := strings.TrimSpace(raw)
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return 0, 0, services.Wrap(services.ErrProbe, "probe", "dimensions", fmt.Sprintf("unexpected output %q", trimmed), nil)
	}
	width, err := parseCount(parts[0])
	if err != nil {
		return 0, 0, services.Wrap(services.ErrProbe, "probe", "dimensions", fmt.Sprintf("invalid width %q", parts[0]), err)
	}
	height, err := parseCount(parts[1])
	if err != nil {
		return 0, 0, services.Wrap(services.ErrProbe, "probe", "dimensions", fmt.Sprintf("invalid height %q", parts[1]), err)
	}
	return width, height, nil
}

// ParseDuration parses a single decimal seconds value.
func ParseDuration(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrProbe, "probe", "duration", fmt.Sprintf("unexpected output %q", trimmed), err)
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, services.Wrap(services.ErrProbe, "probe", "duration", fmt.Sprintf("invalid duration %q", trimmed), nil)
	}
	return value, nil
}

// ParseFrameRate accepts a decimal ("25") or a rational ("30000/1001").
// A zero denominator is rejected.
func ParseFrameRate(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if num, den, ok := strings.Cut(trimmed, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, services.Wrap(services.ErrProbe, "probe", "frame rate", fmt.Sprintf("invalid numerator %q", num), err)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil {
			return 0, services.Wrap(services.ErrProbe, "probe", "frame rate", fmt.Sprintf("invalid denominator %q", den), err)
		}
		if d == 0 {
			return 0, services.Wrap(services.ErrProbe, "probe", "frame rate", fmt.Sprintf("zero denominator in %q", trimmed), nil)
		}
		rate := n / d
		if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return 0, services.Wrap(services.ErrProbe, "probe", "frame rate", fmt.Sprintf("invalid rate %q", trimmed), nil)
		}
		return rate, nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrProbe, "probe", "frame rate", fmt.Sprintf("unexpected output %q", trimmed), err)
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, services.Wrap(services.ErrProbe, "probe", "frame rate", fmt.Sprintf("invalid rate %q", trimmed), nil)
	}
	return value, nil
}

func parseCount(value string) (int, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
