// Package worker supervises the external classification process.
//
// A Supervisor runs at most one worker at a time. Run spawns the worker with
// its positional arguments, hands the merged stdout/stderr event stream to a
// Multiplexer, and blocks until the multiplexer delivers the run outcome on a
// single-use channel. A second Run while one is in flight returns nil without
// spawning anything.
//
// Stderr lines are classified in priority order: sentinel phrases mark the
// run as failed and raise an organization_progress notification, warning
// lines leave the outcome alone, and any other line resets the outcome to
// success. The last rule means an unrecognised line after a sentinel
// launders the failure away; callers relying on the sentinel must also look
// at the exit status, which always wins when it is non-zero.
//
// There is no cancellation, timeout or retry. Once spawned, the worker runs
// until it exits.
package worker
