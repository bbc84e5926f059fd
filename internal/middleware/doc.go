// Package middleware provides HTTP middleware for request logging and
// Prometheus instrumentation.
//
// Request logging uses W3C Extended Log Format with all user-controlled
// fields sanitized against log injection. The metrics middleware records
// request counts, durations and in-flight gauges for every route except
// the probe and metrics endpoints.
package middleware
