package testsupport

import (
	"path/filepath"
	"testing"

	"delivery/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test,
// placeholder overlay images, and a fast poll interval.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "frames")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "history.db")
	cfgVal.Encoding.PollIntervalMS = 20
	cfgVal.Assets.OverlayNative = filepath.Join(base, "assets", "overlay_native.png")
	cfgVal.Assets.Overlay2048 = filepath.Join(base, "assets", "overlay_2048.png")
	cfgVal.Assets.Overlay4096 = filepath.Join(base, "assets", "overlay_4096.png")
	for _, overlay := range []string{cfgVal.Assets.OverlayNative, cfgVal.Assets.Overlay2048, cfgVal.Assets.Overlay4096} {
		WriteFile(t, overlay, 64)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFakeTools installs fake ffprobe/ffmpeg stubs for src and points the
// config at them.
func WithFakeTools(src Source, behavior FFmpegBehavior) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.Tools.FFprobe = FakeFFprobe(b.t, binDir, src)
		b.cfg.Tools.FFmpeg = FakeFFmpeg(b.t, binDir, src, behavior)
	}
}

// WithResolution sets the configured resolution policy.
func WithResolution(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoding.Resolution = name
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}

// SourceVideo creates a placeholder input video under the config's base dir.
func SourceVideo(t testing.TB, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(BaseDir(cfg), "input", "source.mp4")
	WriteFile(t, path, 1024)
	return path
}
