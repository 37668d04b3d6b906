// Package graph builds the ffmpeg filter graph for a job. It is pure: the same
// inputs always yield the same description.
package graph

import (
	"fmt"

	"delivery/internal/media"
)

const scaleFlags = "lanczos+full_chroma_inp+full_chroma_int"

// Description is the filter graph handed to ffmpeg's -filter_complex along
// with the output geometry it produces.
type Description struct {
	Filter     string
	Width      int
	Height     int
	StartFrame int
}

// Build returns the filter graph for the source, the first frame index to
// emit, and the resolution policy. Input 0 is the video and input 1 the
// overlay image.
//
// Frames are selected by decode index (n >= start) so output numbering follows
// sequence order. The caller must also disable timestamp-driven frame
// dropping or duplication (-fps_mode passthrough).
func Build(info media.Info, startFrame int, policy media.Resolution) Description {
	if startFrame < 0 {
		startFrame = 0
	}
	selectFrames := fmt.Sprintf(`select=gte(n\,%d)`, startFrame)

	if policy.IsNative() {
		return Description{
			Filter: fmt.Sprintf("[0:v]%s[vid];[1:v]scale=%d:%d[ovr];[vid][ovr]overlay=0:0",
				selectFrames, info.Width, info.Height),
			Width:      info.Width,
			Height:     info.Height,
			StartFrame: startFrame,
		}
	}

	edge := policy.Edge
	return Description{
		Filter: fmt.Sprintf("[0:v]%s,scale=%d:%d:force_original_aspect_ratio=decrease:flags=%s,pad=%d:%d:(ow-iw)/2:(oh-ih)/2[vid];"+
			"[1:v]scale=%d:%d[ovr];[vid][ovr]overlay=0:0",
			selectFrames, edge, edge, scaleFlags, edge, edge, edge, edge),
		Width:      edge,
		Height:     edge,
		StartFrame: startFrame,
	}
}
