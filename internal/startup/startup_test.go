package startup

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", config.Port)
	}
	if config.WorkDir != "/tmp/media-processor" {
		t.Errorf("Expected default work dir, got %s", config.WorkDir)
	}
	if config.FFmpegPath != "ffmpeg" {
		t.Errorf("Expected default ffmpeg path, got %s", config.FFmpegPath)
	}
	if config.ProcessTimeout != 5*time.Minute {
		t.Errorf("Expected default timeout 5m, got %v", config.ProcessTimeout)
	}
	if config.MaxConcurrentJobs < 1 {
		t.Errorf("Expected at least 1 concurrent job, got %d", config.MaxConcurrentJobs)
	}
	if config.StderrTailLines != 20 {
		t.Errorf("Expected default stderr tail of 20, got %d", config.StderrTailLines)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("WORK_DIR", "/data/scratch")
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("PROCESS_TIMEOUT", "90s")
	t.Setenv("MAX_CONCURRENT_JOBS", "2")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", config.Port)
	}
	if config.WorkDir != "/data/scratch" {
		t.Errorf("Expected /data/scratch, got %s", config.WorkDir)
	}
	if config.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("Expected custom ffmpeg path, got %s", config.FFmpegPath)
	}
	if config.ProcessTimeout != 90*time.Second {
		t.Errorf("Expected 90s timeout, got %v", config.ProcessTimeout)
	}
	if config.MaxConcurrentJobs != 2 {
		t.Errorf("Expected 2 concurrent jobs, got %d", config.MaxConcurrentJobs)
	}
	if config.MaxUploadBytes != 1024 {
		t.Errorf("Expected 1024 upload bytes, got %d", config.MaxUploadBytes)
	}
}

func TestLoadConfigInvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("PROCESS_TIMEOUT", "eventually")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if config.ProcessTimeout != 5*time.Minute {
		t.Errorf("Expected fallback 5m, got %v", config.ProcessTimeout)
	}
}

func TestLoadConfigRejectsNonPositiveUploadLimit(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for negative upload limit")
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected non-empty version")
	}
	if info.GoVersion == "" {
		t.Error("Expected non-empty Go version")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
}

func TestGetRoutes(t *testing.T) {
	r := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.HandleFunc("/health", noop).Methods("GET")
	r.HandleFunc("/process", noop).Methods("POST")

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes() error: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("Expected 2 routes, got %d", len(routes))
	}

	found := map[string]string{}
	for _, route := range routes {
		found[route.Path] = route.Method
	}
	if found["/health"] != "GET" {
		t.Errorf("Expected GET /health, got %v", found)
	}
	if found["/process"] != "POST" {
		t.Errorf("Expected POST /process, got %v", found)
	}
}
