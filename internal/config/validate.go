package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEncoding() error {
	switch c.Encoding.Resolution {
	case "native", "2048", "4096":
	default:
		return fmt.Errorf("encoding.resolution: unsupported value %q (want native, 2048 or 4096)", c.Encoding.Resolution)
	}
	switch c.Encoding.FrameExtension {
	case "png", "jpg", "jpeg", "bmp", "tiff":
	default:
		return fmt.Errorf("encoding.frame_extension: unsupported value %q", c.Encoding.FrameExtension)
	}
	if c.Encoding.PollIntervalMS < 10 {
		return errors.New("encoding.poll_interval_ms must be at least 10")
	}
	if c.Encoding.SafetyMargin < 1 {
		return errors.New("encoding.safety_margin must be >= 1")
	}
	if c.Encoding.BytesPerPixel <= 0 {
		return errors.New("encoding.bytes_per_pixel must be positive")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be >= 0")
	}
	return nil
}
