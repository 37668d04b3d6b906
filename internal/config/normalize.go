package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAssets(); err != nil {
		return err
	}
	c.normalizeEncoding()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg); strings.HasPrefix(c.Tools.FFmpeg, "~") {
		if c.Tools.FFmpeg, err = expandPath(c.Tools.FFmpeg); err != nil {
			return fmt.Errorf("tools.ffmpeg: %w", err)
		}
	}
	if c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe); strings.HasPrefix(c.Tools.FFprobe, "~") {
		if c.Tools.FFprobe, err = expandPath(c.Tools.FFprobe); err != nil {
			return fmt.Errorf("tools.ffprobe: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeAssets() error {
	var err error
	if c.Assets.OverlayNative, err = expandPath(strings.TrimSpace(c.Assets.OverlayNative)); err != nil {
		return fmt.Errorf("assets.overlay_native: %w", err)
	}
	if c.Assets.Overlay2048, err = expandPath(strings.TrimSpace(c.Assets.Overlay2048)); err != nil {
		return fmt.Errorf("assets.overlay_2048: %w", err)
	}
	if c.Assets.Overlay4096, err = expandPath(strings.TrimSpace(c.Assets.Overlay4096)); err != nil {
		return fmt.Errorf("assets.overlay_4096: %w", err)
	}
	return nil
}

func (c *Config) normalizeEncoding() {
	c.Encoding.Resolution = strings.ToLower(strings.TrimSpace(c.Encoding.Resolution))
	if c.Encoding.Resolution == "" || c.Encoding.Resolution == "original" {
		c.Encoding.Resolution = defaultResolution
	}
	ext := strings.ToLower(strings.TrimSpace(c.Encoding.FrameExtension))
	c.Encoding.FrameExtension = strings.TrimPrefix(ext, ".")
	if c.Encoding.FrameExtension == "" {
		c.Encoding.FrameExtension = defaultFrameExtension
	}
	if c.Encoding.PollIntervalMS == 0 {
		c.Encoding.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Encoding.SafetyMargin == 0 {
		c.Encoding.SafetyMargin = defaultSafetyMargin
	}
	if c.Encoding.BytesPerPixel == 0 {
		c.Encoding.BytesPerPixel = defaultBytesPerPixel
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
