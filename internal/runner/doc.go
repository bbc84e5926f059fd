// Package runner executes ffmpeg invocations as child processes.
//
// Each invocation runs under a hard wall-clock deadline with its stderr
// captured into a bounded buffer. The outcome is classified as completed,
// failed (non-zero exit), timed out, or launch error; exactly one outcome
// is produced per invocation and the runner never retries. On timeout the
// entire process group is killed, so helper processes ffmpeg spawned
// internally cannot outlive the request and hold workspace file handles
// open.
package runner
