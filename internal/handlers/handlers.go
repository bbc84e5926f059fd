package handlers

import (
	"sync"
	"time"

	"media-processor/internal/orchestrator"
	"media-processor/internal/startup"
	"media-processor/internal/streaming"
)

type Handlers struct {
	orch           *orchestrator.Orchestrator
	ffmpegPath     string
	maxUploadBytes int64
	streamConfig   streaming.Config
	startTime      time.Time

	// Cached ffmpeg probe so health scrapes don't spawn a process each time.
	probeMu      sync.Mutex
	probeAt      time.Time
	probeVersion string
	probeErr     error
}

func New(orch *orchestrator.Orchestrator, config *startup.Config) *Handlers {
	return &Handlers{
		orch:           orch,
		ffmpegPath:     config.FFmpegPath,
		maxUploadBytes: config.MaxUploadBytes,
		streamConfig:   streaming.DefaultConfig(),
		startTime:      time.Now(),
	}
}
