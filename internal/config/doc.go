// Package config loads, normalizes, and validates delivery configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts) and reads TOML files. The Config type centralizes every knob the
// CLI and the orchestrator need: tool locations, the resolution policy and its
// overlay images, estimator constants, and log/notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
