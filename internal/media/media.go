// Package media holds the facts probed from a source video and the resolution
// policy that decides the output geometry.
package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Info describes a source video. It is recomputed for every job.
type Info struct {
	Width           int
	Height          int
	DurationSeconds float64
	FrameRate       float64
}

// Resolution is the output geometry policy. A zero Edge means native.
type Resolution struct {
	Edge int
}

// Native keeps the source dimensions.
func Native() Resolution { return Resolution{} }

// FixedSquare letterboxes into an edge by edge square.
func FixedSquare(edge int) Resolution { return Resolution{Edge: edge} }

// ParseResolution accepts "native" (or "original"), "2048" and "4096".
func ParseResolution(value string) (Resolution, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	switch trimmed {
	case "", "native", "original":
		return Native(), nil
	}
	if w, h, ok := strings.Cut(trimmed, "x"); ok {
		if w != h {
			return Resolution{}, fmt.Errorf("resolution %q: output must be square", value)
		}
		trimmed = w
	}
	edge, err := strconv.Atoi(trimmed)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolution %q: want native, 2048 or 4096", value)
	}
	switch edge {
	case 2048, 4096:
		return FixedSquare(edge), nil
	default:
		return Resolution{}, fmt.Errorf("resolution %q: want native, 2048 or 4096", value)
	}
}

// IsNative reports whether the policy keeps source dimensions.
func (r Resolution) IsNative() bool { return r.Edge <= 0 }

// Target returns the output width and height for the given source.
func (r Resolution) Target(info Info) (int, int) {
	if r.IsNative() {
		return info.Width, info.Height
	}
	return r.Edge, r.Edge
}

// Key returns the config name of the policy.
func (r Resolution) Key() string {
	if r.IsNative() {
		return "native"
	}
	return strconv.Itoa(r.Edge)
}

func (r Resolution) String() string {
	if r.IsNative() {
		return "native"
	}
	return fmt.Sprintf("%dx%d", r.Edge, r.Edge)
}
