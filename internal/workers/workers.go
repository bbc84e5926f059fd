// Package workers determines how many external ffmpeg processes may run
// concurrently.
//
// GOMAXPROCS tracks container CPU limits (Go 1.19+), while
// runtime.NumCPU reports the host. Sizing off GOMAXPROCS keeps a
// CPU-limited container from launching one transcode per host core. The
// FFMPEG_WORKERS environment variable overrides the calculation.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the worker count for the given CPU multiplier, capped at
// limit (0 = no cap). ffmpeg jobs are CPU-bound, so the multiplier is
// normally 1.0.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("FFMPEG_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns the worker count for CPU-bound work (1 per CPU),
// capped at limit.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}
