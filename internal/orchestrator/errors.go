package orchestrator

import "fmt"

// Stage identifies where in the request lifecycle a failure occurred.
type Stage string

// Lifecycle stages, in order.
const (
	StageReceived  Stage = "received"
	StageStaging   Stage = "staging"
	StageBuilding  Stage = "building"
	StageExecuting Stage = "executing"
	StageStreaming Stage = "streaming"
)

// FailureKind classifies a request failure for response mapping.
type FailureKind int

const (
	// FailValidation is a bad operation, options payload, or
	// operation/input combination. No process was ever launched.
	FailValidation FailureKind = iota
	// FailIO is a staging or output I/O failure.
	FailIO
	// FailResource means the service cannot allocate what it needs
	// (workspace root unusable).
	FailResource
	// FailProcess means ffmpeg exited non-zero.
	FailProcess
	// FailTimeout means the process deadline expired.
	FailTimeout
	// FailLaunch means ffmpeg could not be started at all, which almost
	// always indicates service misconfiguration.
	FailLaunch
)

func (k FailureKind) String() string {
	switch k {
	case FailValidation:
		return "validation_error"
	case FailIO:
		return "io_error"
	case FailResource:
		return "resource_error"
	case FailProcess:
		return "process_failed"
	case FailTimeout:
		return "timed_out"
	case FailLaunch:
		return "launch_error"
	default:
		return "unknown"
	}
}

// Error is a stage-tagged request failure.
type Error struct {
	Stage   Stage
	Kind    FailureKind
	Message string
	// Detail carries the truncated ffmpeg stderr excerpt on process
	// failures.
	Detail   string
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed at %s: %s", e.Kind, e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func failf(stage Stage, kind FailureKind, err error, format string, args ...interface{}) *Error {
	return &Error{
		Stage:   stage,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
