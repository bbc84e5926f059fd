package startup

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"media-processor/internal/logging"
	"media-processor/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	Port              string
	WorkDir           string
	FFmpegPath        string
	ProcessTimeout    time.Duration
	MaxConcurrentJobs int
	MaxUploadBytes    int64
	StderrTailLines   int
	MetricsEnabled    bool
	LogHealthChecks   bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		WorkDir:           getEnv("WORK_DIR", "/tmp/media-processor"),
		FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
		MaxUploadBytes:    getEnvInt64("MAX_UPLOAD_BYTES", 2<<30),
		StderrTailLines:   getEnvInt("STDERR_TAIL_LINES", 20),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks:   getEnvBool("LOG_HEALTH_CHECKS", true),
		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", workers.ForCPU(8)),
	}

	timeoutStr := getEnv("PROCESS_TIMEOUT", "5m")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		logging.Warn("  Invalid PROCESS_TIMEOUT %q, using default: 5m", timeoutStr)
		timeout = 5 * time.Minute
	}
	config.ProcessTimeout = timeout

	if config.MaxConcurrentJobs < 1 {
		logging.Warn("  MAX_CONCURRENT_JOBS below 1, using 1")
		config.MaxConcurrentJobs = 1
	}
	if config.MaxUploadBytes < 1 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", config.MaxUploadBytes)
	}

	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  WORK_DIR:            %s", config.WorkDir)
	logging.Info("  FFMPEG_PATH:         %s", config.FFmpegPath)
	logging.Info("  PROCESS_TIMEOUT:     %v", config.ProcessTimeout)
	logging.Info("  MAX_CONCURRENT_JOBS: %d", config.MaxConcurrentJobs)
	logging.Info("  MAX_UPLOAD_BYTES:    %d", config.MaxUploadBytes)
	logging.Info("  STDERR_TAIL_LINES:   %d", config.StderrTailLines)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	return config, nil
}

func printBanner() {
	logging.Info("============================================================")
	logging.Info("  media-processor %s (%s)", Version, Commit)
	logging.Info("  %s %s/%s", GoVersion, runtime.GOOS, runtime.GOARCH)
	logging.Info("============================================================")
}

// LogFFmpegCheck logs the result of the startup ffmpeg availability probe.
// A missing binary is a warning, not a startup failure; /health reports it.
func LogFFmpegCheck(version string, err error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("FFMPEG")
	logging.Info("------------------------------------------------------------")
	if err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Processing requests will fail until ffmpeg is available")
		return
	}
	logging.Info("  [OK] %s", version)
}

// LogWorkspaceInit logs workspace root initialization
func LogWorkspaceInit(root string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("WORKSPACE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Workspace root ready at %s", root)
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: pathTemplate})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("  error walking routes: %v", err)
	}

	logging.Info("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Info("    %-6s %s", route.Method, route.Path)
	}
}

// LogServerStarted logs the final startup summary
func LogServerStarted(port string, startupTime time.Duration) {
	logging.Info("")
	logging.Info("============================================================")
	logging.Info("  Listening on :%s (started in %v)", port, startupTime.Round(time.Millisecond))
	logging.Info("============================================================")
}

// LogShutdownInitiated logs the start of graceful shutdown
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("Received %s, shutting down gracefully...", signal)
}

// LogShutdownStep logs one shutdown step
func LogShutdownStep(step string) {
	logging.Info("  %s...", step)
}

// LogShutdownComplete logs completion of graceful shutdown
func LogShutdownComplete() {
	logging.Info("Shutdown complete")
}

// LogFatal logs a fatal startup error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
