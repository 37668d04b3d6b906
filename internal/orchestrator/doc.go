// Package orchestrator runs one frame extraction job at a time.
//
// Start validates nothing synchronously beyond the single-job rule: the worker
// goroutine locates tools, probes the input, checks storage, scans for
// resumable frames, builds the filter graph and hands off to the encoding
// supervisor. Every outcome, including pre-flight failures, reaches the caller
// as a terminal event on the job's channel.
//
// Cancel fires at most once per job. The active job is cleared when the worker
// reaches a terminal state, before Done is closed.
package orchestrator
