package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-processor/internal/runner"
	"media-processor/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// probeTTL is how long a cached ffmpeg probe result stays valid.
const probeTTL = 30 * time.Second

// HealthResponse contains the health check response
type HealthResponse struct {
	Status          string `json:"status"`
	FFmpegAvailable bool   `json:"ffmpegAvailable"`
	FFmpegVersion   string `json:"ffmpegVersion,omitempty"`
	FFmpegError     string `json:"ffmpegError,omitempty"`
	Version         string `json:"version"`
	Uptime          string `json:"uptime"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// probeFFmpeg returns the cached ffmpeg availability, probing at most
// once per probeTTL.
func (h *Handlers) probeFFmpeg(r *http.Request) (string, error) {
	h.probeMu.Lock()
	defer h.probeMu.Unlock()

	if time.Since(h.probeAt) < probeTTL {
		return h.probeVersion, h.probeErr
	}

	h.probeVersion, h.probeErr = runner.Probe(r.Context(), h.ffmpegPath)
	h.probeAt = time.Now()
	return h.probeVersion, h.probeErr
}

// HealthCheck returns the health status of the service. The service is
// degraded (503) when the external ffmpeg binary is unreachable.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	version, err := h.probeFFmpeg(r)

	response := HealthResponse{
		Status:          statusHealthy,
		FFmpegAvailable: err == nil,
		FFmpegVersion:   version,
		Version:         startup.Version,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		response.Status = statusDegraded
		response.FFmpegError = err.Error()
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if the
// server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only when the service can actually process
// media, i.e. the ffmpeg binary is reachable.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.probeFFmpeg(r); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "not_ready"})
		return
	}
	writeJSONStatus(w, "ready")
}

// ServiceInfo handles GET /: a small self-description of the API.
func (h *Handlers) ServiceInfo(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"service": "media-processor",
		"version": startup.Version,
		"endpoints": map[string]string{
			"/process":       "POST - Process a single file with a raw ffmpeg command",
			"/process-multi": "POST - Process multiple files with a named operation",
			"/health":        "GET - Health check including ffmpeg availability",
			"/version":       "GET - Build information",
			"/metrics":       "GET - Prometheus metrics",
		},
	})
}
