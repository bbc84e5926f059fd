package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"media-processor/internal/command"
	"media-processor/internal/logging"
	"media-processor/internal/metrics"
	"media-processor/internal/runner"
	"media-processor/internal/workspace"

	"golang.org/x/sync/semaphore"
)

// Upload is one uploaded file, opened lazily so request bodies are
// streamed to disk rather than buffered in memory.
type Upload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// Result is a successfully produced output artifact. The caller must
// call Release after streaming it; Release destroys the workspace the
// artifact lives in.
type Result struct {
	OutputPath string
	Filename   string
	Size       int64

	release func() error
}

// Release destroys the workspace holding the artifact. Idempotent.
func (r *Result) Release() error {
	return r.release()
}

// Orchestrator ties workspace, command building, and process execution
// into the per-request state machine. Safe for concurrent use; each
// request gets its own workspace and the semaphore bounds how many
// ffmpeg processes run at once.
type Orchestrator struct {
	workspaces *workspace.Manager
	builder    *command.Builder
	runner     *runner.Runner
	sem        *semaphore.Weighted
}

// New creates an Orchestrator. maxConcurrent bounds simultaneously
// running ffmpeg processes; values below 1 are raised to 1.
func New(ws *workspace.Manager, b *command.Builder, r *runner.Runner, maxConcurrent int) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		workspaces: ws,
		builder:    b,
		runner:     r,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Process runs one request through staging, building and execution.
// On success the returned Result owns the workspace; on failure the
// workspace (if any was acquired) is already gone and the returned
// error is always a *Error.
func (o *Orchestrator) Process(ctx context.Context, op command.Operation, uploads []Upload, outputFormat string) (*Result, *Error) {
	start := time.Now()

	// Received: reject bad operation/input combinations before touching
	// the filesystem.
	if err := op.Validate(len(uploads)); err != nil {
		o.record(op, FailValidation.String(), start)
		return nil, failf(StageReceived, FailValidation, err, "%v", err)
	}

	// Staging
	ws, err := o.workspaces.Acquire()
	if err != nil {
		o.record(op, FailResource.String(), start)
		return nil, failf(StageStaging, FailResource, err, "acquire workspace: %v", err)
	}
	jobID := filepath.Base(ws.Dir())

	done := false
	defer func() {
		// The single guaranteed cleanup point for every path that does
		// not hand the workspace to a Result.
		if !done {
			if rerr := ws.Release(); rerr != nil {
				logging.Error("job %s: workspace release failed: %v", jobID, rerr)
			}
		}
	}()

	logging.Info("job %s: starting %s with %d input(s)", jobID, op.Kind, len(uploads))

	for i, up := range uploads {
		if serr := o.stageUpload(ws, i, up); serr != nil {
			o.record(op, FailIO.String(), start)
			return nil, failf(StageStaging, FailIO, serr, "stage input %d: %v", i, serr)
		}
	}

	// Building
	outputPath := ws.OutputPath(outputFormat)
	inv, err := o.builder.Build(op, ws.InputPaths(), ws.Dir(), outputPath)
	if err != nil {
		var verr *command.ValidationError
		if errors.As(err, &verr) {
			o.record(op, FailValidation.String(), start)
			return nil, failf(StageBuilding, FailValidation, err, "%v", err)
		}
		o.record(op, FailIO.String(), start)
		return nil, failf(StageBuilding, FailIO, err, "build command: %v", err)
	}

	// Executing, bounded by the global process semaphore.
	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.record(op, FailTimeout.String(), start)
		return nil, failf(StageExecuting, FailTimeout, err, "canceled while waiting for a process slot")
	}

	metrics.ProcessesRunning.Inc()
	outcome := o.runner.Run(ctx, inv)
	metrics.ProcessesRunning.Dec()
	o.sem.Release(1)

	switch outcome.State {
	case runner.StateCompleted:
		// fall through to the output check

	case runner.StateFailed:
		logging.Error("job %s: ffmpeg exited %d: %s", jobID, outcome.ExitCode, outcome.StderrExcerpt)
		o.record(op, outcome.State.String(), start)
		return nil, &Error{
			Stage:    StageExecuting,
			Kind:     FailProcess,
			Message:  "ffmpeg processing failed",
			Detail:   outcome.StderrExcerpt,
			ExitCode: outcome.ExitCode,
			Err:      outcome.Err,
		}

	case runner.StateTimedOut:
		logging.Error("job %s: ffmpeg killed after %v", jobID, outcome.Duration)
		o.record(op, outcome.State.String(), start)
		return nil, failf(StageExecuting, FailTimeout, outcome.Err,
			"processing exceeded the %v deadline", inv.Timeout)

	case runner.StateLaunchError:
		logging.Error("job %s: cannot launch ffmpeg: %v", jobID, outcome.Err)
		o.record(op, outcome.State.String(), start)
		return nil, failf(StageExecuting, FailLaunch, outcome.Err, "cannot launch ffmpeg: %v", outcome.Err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		// ffmpeg exited zero without producing the file it was asked for.
		o.record(op, FailIO.String(), start)
		return nil, failf(StageExecuting, FailIO, err, "output file was not created")
	}

	logging.Info("job %s: completed in %v (%d bytes)", jobID, time.Since(start).Round(time.Millisecond), info.Size())
	o.record(op, runner.StateCompleted.String(), start)

	done = true
	return &Result{
		OutputPath: outputPath,
		Filename:   filepath.Base(outputPath),
		Size:       info.Size(),
		release:    ws.Release,
	}, nil
}

func (o *Orchestrator) stageUpload(ws *workspace.Workspace, ordinal int, up Upload) error {
	src, err := up.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	staged, err := ws.Stage(ordinal, up.Filename, src)
	if err != nil {
		return err
	}

	metrics.StagedBytesTotal.Add(float64(staged.Size))
	return nil
}

func (o *Orchestrator) record(op command.Operation, outcome string, start time.Time) {
	metrics.JobsTotal.WithLabelValues(string(op.Kind), outcome).Inc()
	metrics.JobDuration.WithLabelValues(string(op.Kind)).Observe(time.Since(start).Seconds())
}
