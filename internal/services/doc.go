// Package services defines shared utilities consumed by the pipeline stages.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that keep failures
//     classifiable (probe, storage, spawn, runtime) after wrapping.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the orchestrator.
package services
