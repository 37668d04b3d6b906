// Package preflight reports whether a job can start: binaries resolve, the
// input and overlay exist, the output directory is writable, there is room
// for the frame sequence, and where an interrupted run would resume.
//
// The orchestrator enforces the same conditions as hard failures; these
// checks exist so `delivery check` can show all of them at once.
package preflight
