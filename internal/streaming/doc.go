// Package streaming provides timeout-protected writing of processed
// media back to HTTP clients.
//
// Output artifacts can be large and clients can be slow or vanish
// mid-download. The TimeoutWriter bounds every individual write, detects
// idle connections, and distinguishes a client that went away from a
// genuine write failure so the caller can log the right thing and move
// on. Mid-stream failures are terminal for the response; nothing here
// retries.
package streaming
