package command

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies one of the supported operations.
type Kind string

// Supported operation kinds, as accepted in the "operation" form field.
const (
	KindCustom          Kind = "custom"
	KindConcat          Kind = "concat"
	KindMixAudio        Kind = "mix_audio"
	KindOverlay         Kind = "overlay"
	KindMergeAudioVideo Kind = "merge_audio_video"
)

// TransitionFade is the only concat transition currently supported.
const TransitionFade = "fade"

// DefaultTransitionDuration is the crossfade length in seconds applied
// when a fade transition is requested without an explicit duration.
const DefaultTransitionDuration = 1.0

// ValidationError reports a bad operation, options payload, or
// operation/input-count combination. It is always the caller's fault and
// is raised before any external process is launched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Position places an overlay input on the base layer.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Operation is a parsed, not-yet-validated description of the requested
// transformation. Exactly the fields of the active Kind are meaningful.
type Operation struct {
	Kind Kind

	// Custom
	RawArgs string

	// Concat
	Transition string
	Duration   float64

	// MixAudio
	Volumes   []float64
	Normalize bool

	// Overlay
	Positions []Position

	// MergeAudioVideo
	VideoIndex int
	AudioIndex int
}

// options is the JSON shape of the optional per-operation payload.
type options struct {
	Transition string     `json:"transition"`
	Duration   *float64   `json:"duration"`
	Volumes    []float64  `json:"volumes"`
	Normalize  bool       `json:"normalize"`
	Positions  []Position `json:"positions"`
	VideoIndex *int       `json:"video_index"`
	AudioIndex *int       `json:"audio_index"`
}

// Parse builds an Operation from the transport-level fields: the operation
// name, the raw command string (custom operations only) and the optional
// JSON options payload. Parse only decodes; Validate applies the rules.
func Parse(name, rawCommand string, optionsJSON string) (Operation, error) {
	op := Operation{Kind: Kind(strings.ToLower(strings.TrimSpace(name)))}

	switch op.Kind {
	case KindCustom, KindConcat, KindMixAudio, KindOverlay, KindMergeAudioVideo:
	default:
		return Operation{}, validationf("unknown operation %q", name)
	}

	var opts options
	if strings.TrimSpace(optionsJSON) != "" {
		if err := json.Unmarshal([]byte(optionsJSON), &opts); err != nil {
			return Operation{}, validationf("invalid options payload: %v", err)
		}
	}

	switch op.Kind {
	case KindCustom:
		op.RawArgs = rawCommand
	case KindConcat:
		op.Transition = strings.ToLower(strings.TrimSpace(opts.Transition))
		op.Duration = DefaultTransitionDuration
		if opts.Duration != nil {
			op.Duration = *opts.Duration
		}
	case KindMixAudio:
		op.Volumes = opts.Volumes
		op.Normalize = opts.Normalize
	case KindOverlay:
		op.Positions = opts.Positions
	case KindMergeAudioVideo:
		// Required fields; missing values are caught by Validate via the
		// impossible sentinel.
		op.VideoIndex = -1
		op.AudioIndex = -1
		if opts.VideoIndex != nil {
			op.VideoIndex = *opts.VideoIndex
		}
		if opts.AudioIndex != nil {
			op.AudioIndex = *opts.AudioIndex
		}
	}

	return op, nil
}

// Validate checks the operation against the number of uploaded inputs.
// It returns a *ValidationError describing the first violation found.
// The orchestrator calls this before allocating any workspace.
func (op Operation) Validate(inputCount int) error {
	switch op.Kind {
	case KindCustom:
		if strings.TrimSpace(op.RawArgs) == "" {
			return validationf("custom operation requires a non-empty command")
		}
		if inputCount < 1 {
			return validationf("custom operation requires at least 1 input, got %d", inputCount)
		}

	case KindConcat:
		if inputCount < 2 {
			return validationf("concat requires at least 2 inputs, got %d", inputCount)
		}
		if op.Transition != "" && op.Transition != TransitionFade {
			return validationf("unsupported concat transition %q", op.Transition)
		}
		if op.Duration <= 0 {
			return validationf("transition duration must be positive, got %g", op.Duration)
		}

	case KindMixAudio:
		if inputCount < 1 {
			return validationf("mix_audio requires at least 1 input, got %d", inputCount)
		}
		if len(op.Volumes) != inputCount {
			return validationf("mix_audio requires one volume per input: got %d volumes for %d inputs",
				len(op.Volumes), inputCount)
		}

	case KindOverlay:
		if inputCount < 2 {
			return validationf("overlay requires at least 2 inputs, got %d", inputCount)
		}
		if len(op.Positions) < inputCount-1 {
			return validationf("overlay requires %d positions for %d inputs, got %d",
				inputCount-1, inputCount, len(op.Positions))
		}

	case KindMergeAudioVideo:
		if inputCount < 2 {
			return validationf("merge_audio_video requires at least 2 inputs, got %d", inputCount)
		}
		if op.VideoIndex < 0 || op.VideoIndex >= inputCount {
			return validationf("video_index %d out of range [0,%d)", op.VideoIndex, inputCount)
		}
		if op.AudioIndex < 0 || op.AudioIndex >= inputCount {
			return validationf("audio_index %d out of range [0,%d)", op.AudioIndex, inputCount)
		}
		if op.VideoIndex == op.AudioIndex {
			return validationf("video_index and audio_index must differ, both are %d", op.VideoIndex)
		}

	default:
		return validationf("unknown operation %q", op.Kind)
	}

	return nil
}
