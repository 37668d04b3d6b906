// Package logging assembles structured slog loggers used across delivery.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code automatically
// tags log lines with job IDs and stages. The package also provides a no-op
// logger for tests and a sampler that keeps the 200ms progress loop from
// flooding the log.
package logging
