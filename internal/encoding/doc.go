// Package encoding launches and supervises the ffmpeg process that writes the
// frame sequence.
//
// Supervisor.Run walks Launching, Running and one terminal state (Completed,
// Failed or Cancelled). While running it polls every tick: it checks for
// cancellation, re-reads the -progress side-channel file and emits a Progress
// event, then checks whether ffmpeg has exited. Cancellation kills the process
// and is reported as a Cancelled outcome with a nil error. A non-zero exit
// returns an *ExitError carrying the last known frame and ETA.
//
// Events are plain tagged values; sinks that refresh on their own schedule use
// Drain to collect whatever is pending without blocking.
package encoding
