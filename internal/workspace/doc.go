// Package workspace manages per-request scratch directories.
//
// Every processing request gets an exclusively owned directory under a
// configured root. Uploaded files are staged into it at deterministic
// paths, the output artifact is written next to them, and the whole
// directory is removed when the request finishes, no matter how it
// finishes. Directory names are random, so concurrent requests never
// collide without any cross-request locking.
package workspace
