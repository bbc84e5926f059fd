// Package orchestrator drives one media processing request end to end.
//
// The request moves through staging (uploads written into a fresh
// workspace), building (operation resolved to an ffmpeg argv), and
// executing (the external process run under a deadline and a global
// concurrency bound). Failures at any stage carry the stage and a
// failure kind so the HTTP layer can map them to the right status code.
// The workspace is released exactly once whatever happens: on failure
// before Process returns, on success when the caller releases the
// Result after streaming the artifact.
package orchestrator
