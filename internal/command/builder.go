package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the wall-clock deadline applied to an invocation when
// the builder is not configured with one.
const DefaultTimeout = 5 * time.Minute

// Invocation is a fully resolved ffmpeg execution: binary path, argument
// vector, working directory and deadline. It is immutable once built.
type Invocation struct {
	Path       string
	Args       []string
	Dir        string
	OutputPath string
	Timeout    time.Duration
}

// Builder translates operations into invocations.
type Builder struct {
	// FFmpegPath is the ffmpeg binary to invoke. Defaults to "ffmpeg"
	// (resolved via PATH) when empty.
	FFmpegPath string
	// Timeout is the per-invocation wall-clock deadline. Defaults to
	// DefaultTimeout when zero.
	Timeout time.Duration
}

// Build resolves op against the staged input paths and the chosen output
// path. workDir becomes the process working directory. Inputs must be in
// ordinal order.
func (b *Builder) Build(op Operation, inputs []string, workDir, outputPath string) (*Invocation, error) {
	if err := op.Validate(len(inputs)); err != nil {
		return nil, err
	}

	var args []string

	switch op.Kind {
	case KindCustom:
		args = buildCustom(op, inputs)
	case KindConcat:
		args = buildConcat(op, inputs)
	case KindMixAudio:
		args = buildMixAudio(op, inputs)
	case KindOverlay:
		args = buildOverlay(op, inputs)
	case KindMergeAudioVideo:
		args = buildMerge(op, inputs)
	}

	path := b.FFmpegPath
	if path == "" {
		path = "ffmpeg"
	}
	timeout := b.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Invocation{
		Path:       path,
		Args:       append(args, outputPath),
		Dir:        workDir,
		OutputPath: outputPath,
		Timeout:    timeout,
	}, nil
}

// inputArgs produces the leading "-y -i a -i b ..." prefix shared by
// every variant.
func inputArgs(inputs []string) []string {
	args := make([]string, 0, 1+2*len(inputs))
	args = append(args, "-y")
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	return args
}

// buildCustom tokenizes the raw command on whitespace and splices it
// between the input flags and the output path. No shell is ever involved.
func buildCustom(op Operation, inputs []string) []string {
	return append(inputArgs(inputs), strings.Fields(op.RawArgs)...)
}

// buildConcat without a transition joins the inputs with the concat
// filter. All inputs must share compatible streams; an incompatible set
// surfaces as an ffmpeg failure, not a build error. With a fade
// transition, adjacent pairs are crossfaded so N inputs yield N-1
// chained xfade stages.
func buildConcat(op Operation, inputs []string) []string {
	args := inputArgs(inputs)

	if op.Transition != TransitionFade {
		var graph strings.Builder
		for i := range inputs {
			fmt.Fprintf(&graph, "[%d:v][%d:a]", i, i)
		}
		fmt.Fprintf(&graph, "concat=n=%d:v=1:a=1[v][a]", len(inputs))
		return append(args, "-filter_complex", graph.String(), "-map", "[v]", "-map", "[a]")
	}

	dur := formatFloat(op.Duration)
	var graph strings.Builder
	prev := "[0:v]"
	for i := 1; i < len(inputs); i++ {
		if i > 1 {
			graph.WriteString(";")
		}
		out := fmt.Sprintf("[v%d]", i)
		fmt.Fprintf(&graph, "%s[%d:v]xfade=transition=fade:duration=%s%s", prev, i, dur, out)
		prev = out
	}
	return append(args, "-filter_complex", graph.String(), "-map", prev)
}

// buildMixAudio applies a per-input volume multiplier, sums the results
// with amix, and optionally appends a loudness normalization stage.
func buildMixAudio(op Operation, inputs []string) []string {
	var graph strings.Builder
	for i := range inputs {
		fmt.Fprintf(&graph, "[%d:a]volume=%s[a%d];", i, formatFloat(op.Volumes[i]), i)
	}
	for i := range inputs {
		fmt.Fprintf(&graph, "[a%d]", i)
	}
	fmt.Fprintf(&graph, "amix=inputs=%d[mix]", len(inputs))

	mapLabel := "[mix]"
	if op.Normalize {
		graph.WriteString(";[mix]loudnorm[aout]")
		mapLabel = "[aout]"
	}

	args := inputArgs(inputs)
	return append(args, "-filter_complex", graph.String(), "-map", mapLabel)
}

// buildOverlay composites each input after the first onto the cumulative
// result, in input order, at its corresponding position.
func buildOverlay(op Operation, inputs []string) []string {
	var graph strings.Builder
	prev := "[0:v]"
	for i := 1; i < len(inputs); i++ {
		if i > 1 {
			graph.WriteString(";")
		}
		pos := op.Positions[i-1]
		out := fmt.Sprintf("[v%d]", i)
		fmt.Fprintf(&graph, "%s[%d:v]overlay=%d:%d%s", prev, i, pos.X, pos.Y, out)
		prev = out
	}

	args := inputArgs(inputs)
	return append(args, "-filter_complex", graph.String(), "-map", prev)
}

// buildMerge muxes the selected video and audio streams into one
// container without re-encoding either.
func buildMerge(op Operation, inputs []string) []string {
	args := inputArgs(inputs)
	return append(args,
		"-map", fmt.Sprintf("%d:v:0", op.VideoIndex),
		"-map", fmt.Sprintf("%d:a:0", op.AudioIndex),
		"-c", "copy",
	)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
