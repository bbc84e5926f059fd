// Package handlers implements the HTTP surface of the media processing
// service: the single and multi-file processing endpoints, health and
// version probes, and the Prometheus metrics endpoint.
package handlers
