package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-processor/internal/command"
	"media-processor/internal/handlers"
	"media-processor/internal/logging"
	"media-processor/internal/middleware"
	"media-processor/internal/orchestrator"
	"media-processor/internal/runner"
	"media-processor/internal/startup"
	"media-processor/internal/workspace"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Probe ffmpeg once at startup. A missing binary is reported but
	// not fatal; /health keeps answering and /readyz stays red.
	probeCtx, probeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	version, probeErr := runner.Probe(probeCtx, config.FFmpegPath)
	probeCancel()
	startup.LogFFmpegCheck(version, probeErr)

	// Initialize the workspace root
	workspaces, err := workspace.NewManager(config.WorkDir)
	if err != nil {
		startup.LogFatal("Failed to initialize workspace root: %v", err)
	}
	startup.LogWorkspaceInit(config.WorkDir)

	// Wire the processing pipeline
	builder := &command.Builder{
		FFmpegPath: config.FFmpegPath,
		Timeout:    config.ProcessTimeout,
	}
	run := &runner.Runner{StderrTailLines: config.StderrTailLines}
	orch := orchestrator.New(workspaces, builder, run, config.MaxConcurrentJobs)

	// Initialize handlers
	h := handlers.New(orch, config)

	// Setup router
	router := setupRouter(h, config)

	// Log routes dynamically
	startup.LogHTTPRoutes(router)

	// Apply metrics middleware
	meteredHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(meteredHandler)

	// Create server. WriteTimeout stays 0 so long transcode responses
	// are never cut off mid-stream; the per-job deadline bounds them.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv)

	// Start server
	startup.LogServerStarted(config.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()

	// Processing routes
	r.HandleFunc("/process", h.ProcessSingle).Methods("POST")
	r.HandleFunc("/process-multi", h.ProcessMulti).Methods("POST")

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	if config.MetricsEnabled {
		r.Handle("/metrics", handlers.MetricsHandler()).Methods("GET")
	}

	// Service self-description
	r.HandleFunc("/", h.ServiceInfo).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}

	startup.LogShutdownComplete()
}
