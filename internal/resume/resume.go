// Package resume recovers the restart point of an interrupted job from the
// frame files already present in the output directory.
package resume

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// FramePattern is the ffmpeg output template relative to the output directory.
func FramePattern(ext string) string {
	return "frame_%04d." + normalizeExt(ext)
}

// FrameName returns the file name ffmpeg writes for index.
func FrameName(index int, ext string) string {
	return fmt.Sprintf(FramePattern(ext), index)
}

// Summary describes the frames found in a directory.
type Summary struct {
	// LastIndex is the highest parsed frame number, 0 when none exist.
	LastIndex int
	// Frames counts matching files.
	Frames int
}

// HasFrames reports whether any frame file was found.
func (s Summary) HasFrames() bool { return s.Frames > 0 }

// Scan returns the frame index the next run starts at: the highest existing
// frame number, or 0. The last frame on disk is regenerated by the next run
// because it may be partial after a forced kill.
func Scan(dir, ext string) (int, error) {
	summary, err := Inspect(dir, ext)
	if err != nil {
		return 0, err
	}
	return summary.LastIndex, nil
}

// Inspect lists dir and summarizes matching frame files. Unrelated or
// unparsable entries are ignored. A missing directory is an empty summary.
func Inspect(dir, ext string) (Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("read output directory: %w", err)
	}
	pattern := frameRegexp(ext)
	var summary Summary
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		summary.Frames++
		if index > summary.LastIndex {
			summary.LastIndex = index
		}
	}
	return summary, nil
}

func frameRegexp(ext string) *regexp.Regexp {
	return regexp.MustCompile(`^frame_(\d{4,})\.` + regexp.QuoteMeta(normalizeExt(ext)) + `$`)
}

func normalizeExt(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return "png"
	}
	return ext
}
