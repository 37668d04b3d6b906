// Package notifications pushes job milestones to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally and never branch on configuration.
package notifications
