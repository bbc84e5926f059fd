package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_processor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_processor_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processor_jobs_total",
			Help: "Total number of processing jobs by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_processor_job_duration_seconds",
			Help:    "End-to-end processing job duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation"},
	)

	ProcessesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_processor_ffmpeg_processes_running",
			Help: "Number of ffmpeg processes currently executing",
		},
	)

	StagedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_processor_staged_bytes_total",
			Help: "Total bytes of uploaded media staged to disk",
		},
	)

	StreamedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_processor_streamed_bytes_total",
			Help: "Total bytes of processed output streamed back to callers",
		},
	)
)
