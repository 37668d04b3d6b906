// Package encodingstate projects job events into the read-only view a sink
// displays: latest percent, a one-line status, and whether a job is running.
//
// Snapshot.Apply consumes encoding.Event values in order. Sinks drain their
// channel on each refresh and apply everything, which leaves the snapshot at
// the freshest state without interpreting magic numbers. Marshal and
// Unmarshal persist the final snapshot alongside job history.
package encodingstate
