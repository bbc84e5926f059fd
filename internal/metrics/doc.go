// Package metrics provides Prometheus instrumentation for the media
// processing service.
//
// All metrics are prefixed with "media_processor_" to avoid naming
// collisions with other applications.
//
// HTTP metrics track request counts, durations and in-flight requests;
// job metrics track processing outcomes per operation, job duration, the
// number of ffmpeg processes currently running, and the volume of bytes
// staged to disk. Metrics are exposed on GET /metrics via promhttp.
package metrics
