package runner

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"media-processor/internal/command"
)

func shellInvocation(t *testing.T, script string, timeout time.Duration) *command.Invocation {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-based runner tests require a POSIX shell")
	}
	return &command.Invocation{
		Path:    "sh",
		Args:    []string{"-c", script},
		Dir:     t.TempDir(),
		Timeout: timeout,
	}
}

func TestRunCompleted(t *testing.T) {
	r := &Runner{}
	outcome := r.Run(context.Background(), shellInvocation(t, "exit 0", time.Minute))

	if outcome.State != StateCompleted {
		t.Fatalf("Expected completed, got %v (err %v)", outcome.State, outcome.Err)
	}
	if outcome.Duration <= 0 {
		t.Error("Expected positive duration")
	}
}

func TestRunFailedCapturesExitCodeAndStderr(t *testing.T) {
	r := &Runner{}
	outcome := r.Run(context.Background(),
		shellInvocation(t, "echo boom >&2; exit 3", time.Minute))

	if outcome.State != StateFailed {
		t.Fatalf("Expected failed, got %v", outcome.State)
	}
	if outcome.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", outcome.ExitCode)
	}
	if !strings.Contains(outcome.StderrExcerpt, "boom") {
		t.Errorf("Expected stderr excerpt to contain boom, got %q", outcome.StderrExcerpt)
	}
}

func TestRunTimedOut(t *testing.T) {
	r := &Runner{}
	start := time.Now()
	outcome := r.Run(context.Background(),
		shellInvocation(t, "sleep 30", 100*time.Millisecond))

	if outcome.State != StateTimedOut {
		t.Fatalf("Expected timed_out, got %v", outcome.State)
	}
	// The kill must be prompt; a full sleep means the tree survived.
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Timeout took too long: %v", elapsed)
	}
}

func TestRunTimedOutKillsChildren(t *testing.T) {
	r := &Runner{}
	start := time.Now()
	// The shell spawns a grandchild; group kill must reach it, otherwise
	// Wait blocks on the shared stderr pipe until the grandchild exits.
	outcome := r.Run(context.Background(),
		shellInvocation(t, "sleep 30 & wait", 100*time.Millisecond))

	if outcome.State != StateTimedOut {
		t.Fatalf("Expected timed_out, got %v", outcome.State)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Process tree survived the kill: returned after %v", elapsed)
	}
}

func TestRunCanceled(t *testing.T) {
	r := &Runner{}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	outcome := r.Run(ctx, shellInvocation(t, "sleep 30", time.Minute))
	if outcome.State != StateTimedOut {
		t.Fatalf("Expected timed_out on cancellation, got %v", outcome.State)
	}
}

func TestRunLaunchError(t *testing.T) {
	r := &Runner{}
	inv := &command.Invocation{
		Path:    "/nonexistent/definitely-not-a-binary",
		Args:    []string{"-version"},
		Dir:     t.TempDir(),
		Timeout: time.Minute,
	}

	outcome := r.Run(context.Background(), inv)
	if outcome.State != StateLaunchError {
		t.Fatalf("Expected launch_error, got %v", outcome.State)
	}
	if outcome.Err == nil {
		t.Error("Expected a cause error")
	}
}

func TestStderrExcerptIsBounded(t *testing.T) {
	r := &Runner{StderrTailLines: 3}
	outcome := r.Run(context.Background(),
		shellInvocation(t, "for i in 1 2 3 4 5 6 7 8 9 10; do echo line$i >&2; done; exit 1", time.Minute))

	if outcome.State != StateFailed {
		t.Fatalf("Expected failed, got %v", outcome.State)
	}

	lines := strings.Split(outcome.StderrExcerpt, "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 excerpt lines, got %d: %q", len(lines), outcome.StderrExcerpt)
	}
	if lines[2] != "line10" {
		t.Errorf("Expected the tail of stderr, got %q", outcome.StderrExcerpt)
	}
}

func TestProbeMissingBinary(t *testing.T) {
	if _, err := Probe(context.Background(), "/nonexistent/ffmpeg"); err == nil {
		t.Error("Expected probe error for missing binary")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateCompleted, "completed"},
		{StateFailed, "failed"},
		{StateTimedOut, "timed_out"},
		{StateLaunchError, "launch_error"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %q, expected %q", tt.state, got, tt.expected)
		}
	}
}

func TestLastLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"Empty", "", 5, ""},
		{"Fewer than n", "a\nb", 5, "a\nb"},
		{"Exactly n", "a\nb\nc", 3, "a\nb\nc"},
		{"More than n", "a\nb\nc\nd", 2, "c\nd"},
		{"Trailing newline trimmed", "a\nb\n", 2, "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lastLines(tt.input, tt.n); got != tt.expected {
				t.Errorf("lastLines(%q, %d) = %q, expected %q", tt.input, tt.n, got, tt.expected)
			}
		})
	}
}

func TestTailBuffer(t *testing.T) {
	b := &tailBuffer{limit: 8}
	if _, err := b.Write([]byte("12345")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Write([]byte("67890")); err != nil {
		t.Fatal(err)
	}

	if got := b.String(); got != "34567890" {
		t.Errorf("Expected tail 34567890, got %q", got)
	}
}
