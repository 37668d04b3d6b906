// Package ffprobe wraps the ffprobe queries used to describe a source video.
//
// Key types:
//   - Prober: runs the dimension, duration and frame-rate queries separately
//     and assembles a media.Info
//   - Result: full JSON inspection used for operator-facing probe output
//
// The Parse* helpers are exported so callers and tests can validate raw tool
// output without spawning ffprobe. Every failure carries services.ErrProbe.
package ffprobe
