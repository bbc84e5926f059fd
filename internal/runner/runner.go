package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"media-processor/internal/command"
	"media-processor/internal/logging"
)

// State classifies how an invocation ended.
type State int

const (
	// StateCompleted means the process exited zero.
	StateCompleted State = iota
	// StateFailed means the process exited non-zero.
	StateFailed
	// StateTimedOut means the deadline expired and the process tree was killed.
	StateTimedOut
	// StateLaunchError means the process could not be started at all.
	StateLaunchError
)

func (s State) String() string {
	switch s {
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	case StateLaunchError:
		return "launch_error"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one invocation.
type Outcome struct {
	State         State
	ExitCode      int
	StderrExcerpt string
	Duration      time.Duration
	Err           error
}

// DefaultStderrTailLines is how many trailing stderr lines are kept for
// diagnostics when the runner is not configured otherwise.
const DefaultStderrTailLines = 20

// maxCaptureBytes bounds in-memory capture of each output stream. ffmpeg
// can be extremely chatty on long jobs.
const maxCaptureBytes = 64 * 1024

// Runner executes invocations. The zero value is usable.
type Runner struct {
	// StderrTailLines bounds the diagnostic excerpt carried in failed
	// outcomes. Defaults to DefaultStderrTailLines when zero.
	StderrTailLines int
}

// Run executes inv and blocks until it exits, is killed on deadline, or
// ctx is canceled. Cancellation and deadline both terminate the whole
// process group before returning.
func (r *Runner) Run(ctx context.Context, inv *command.Invocation) Outcome {
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, inv.Timeout)
	defer cancel()

	cmd := exec.Command(inv.Path, inv.Args...)
	cmd.Dir = inv.Dir

	stderr := &tailBuffer{limit: maxCaptureBytes}
	stdout := &tailBuffer{limit: maxCaptureBytes}
	cmd.Stderr = stderr
	cmd.Stdout = stdout

	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return Outcome{
			State:    StateLaunchError,
			ExitCode: -1,
			Duration: time.Since(start),
			Err:      fmt.Errorf("start %s: %w", inv.Path, err),
		}
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case <-runCtx.Done():
		killTree(cmd)
		<-waitCh // reap; the group is already dead
		logging.Warn("process %s killed after %v: %v", inv.Path, time.Since(start), runCtx.Err())
		return Outcome{
			State:         StateTimedOut,
			ExitCode:      -1,
			StderrExcerpt: r.excerpt(stderr),
			Duration:      time.Since(start),
			Err:           runCtx.Err(),
		}

	case err := <-waitCh:
		dur := time.Since(start)
		if err == nil {
			return Outcome{State: StateCompleted, Duration: dur}
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Outcome{
				State:         StateFailed,
				ExitCode:      exitErr.ExitCode(),
				StderrExcerpt: r.excerpt(stderr),
				Duration:      dur,
				Err:           err,
			}
		}

		// Wait failed for some non-exit reason (I/O plumbing, signals).
		return Outcome{
			State:         StateFailed,
			ExitCode:      -1,
			StderrExcerpt: r.excerpt(stderr),
			Duration:      dur,
			Err:           err,
		}
	}
}

func (r *Runner) excerpt(b *tailBuffer) string {
	lines := r.StderrTailLines
	if lines <= 0 {
		lines = DefaultStderrTailLines
	}
	return lastLines(b.String(), lines)
}

// Probe checks whether the ffmpeg binary is runnable and returns the
// first line of its version banner.
func Probe(ctx context.Context, ffmpegPath string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, ffmpegPath, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", ffmpegPath, err)
	}

	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// tailBuffer keeps the most recent limit bytes written to it. The end of
// ffmpeg's stderr is where the useful error lives.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.limit {
		b.buf = b.buf[len(b.buf)-b.limit:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}

// lastLines returns the last n non-empty-trimmed lines of s.
func lastLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
