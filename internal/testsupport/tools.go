package testsupport

import (
	"fmt"
	"testing"
)

// Source describes the video a fake ffprobe reports.
type Source struct {
	Width  int
	Height int
	Frames int
	FPS    int
}

// DurationSeconds is Frames/FPS.
func (s Source) DurationSeconds() float64 {
	return float64(s.Frames) / float64(s.FPS)
}

// FFmpegBehavior controls the fake ffmpeg.
type FFmpegBehavior struct {
	// StallAfter makes ffmpeg block after writing this many frames. Zero
	// disables the stall.
	StallAfter int
	// ExitCode is returned after the last frame.
	ExitCode int
	// FrameDelay is passed to sleep between frames, e.g. "0.01".
	FrameDelay string
}

// FakeFFprobe writes an ffprobe stub answering the dimension, duration and
// frame-rate queries for src.
func FakeFFprobe(t testing.TB, dir string, src Source) string {
	t.Helper()
	body := fmt.Sprintf(`case "$*" in
  *stream=width,height*) echo "%d,%d" ;;
  *format=duration*) echo "%.6f" ;;
  *avg_frame_rate*) echo "%d/1" ;;
  *) echo "unexpected query: $*" >&2; exit 2 ;;
esac
`, src.Width, src.Height, src.DurationSeconds(), src.FPS)
	return WriteScript(t, dir, "ffprobe", body)
}

// FakeFFmpeg writes an ffmpeg stub that emulates the frame extraction: it
// honours -start_number and -progress, writes one file per source frame from
// the start number up to src.Frames-1 using the output pattern, and appends
// key=value progress blocks. Like ffmpeg, the reported frame count lags the
// files on disk by one.
func FakeFFmpeg(t testing.TB, dir string, src Source, behavior FFmpegBehavior) string {
	t.Helper()
	delay := behavior.FrameDelay
	if delay == "" {
		delay = "0"
	}
	stall := ""
	if behavior.StallAfter > 0 {
		stall = fmt.Sprintf(`  if [ "$n" -ge %d ]; then exec sleep 30; fi
`, behavior.StallAfter)
	}
	body := fmt.Sprintf(`progress=""
start=0
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -progress) progress="$2"; shift 2; continue ;;
    -start_number) start="$2"; shift 2; continue ;;
  esac
  out="$1"
  shift
done
total=%d
us_per_frame=%d
i=$start
n=0
while [ "$i" -lt "$total" ]; do
  file=$(printf "$out" "$i")
  printf 'frame %%d\n' "$i" > "$file"
  us=$(( (i + 1) * us_per_frame ))
  printf 'frame=%%d\nout_time_ms=%%d\nprogress=continue\n' "$n" "$us" >> "$progress"
  n=$((n + 1))
%s  sleep %s
  i=$((i + 1))
done
printf 'frame=%%d\nprogress=end\n' "$n" >> "$progress"
exit %d
`, src.Frames, 1_000_000/src.FPS, stall, delay, behavior.ExitCode)
	return WriteScript(t, dir, "ffmpeg", body)
}
