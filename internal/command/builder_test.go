package command

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testInputs(dir string, names ...string) []string {
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths
}

func countOccurrences(args []string, target string) int {
	n := 0
	for _, a := range args {
		if a == target {
			n++
		}
	}
	return n
}

func TestBuildDefaults(t *testing.T) {
	b := &Builder{}
	dir := t.TempDir()

	inv, err := b.Build(
		Operation{Kind: KindCustom, RawArgs: "-c copy"},
		testInputs(dir, "input_0.mp4"), dir, filepath.Join(dir, "output.mp4"),
	)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if inv.Path != "ffmpeg" {
		t.Errorf("Expected default path ffmpeg, got %s", inv.Path)
	}
	if inv.Timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultTimeout, inv.Timeout)
	}
	if inv.Dir != dir {
		t.Errorf("Expected dir %s, got %s", dir, inv.Dir)
	}
}

func TestBuildCustom(t *testing.T) {
	b := &Builder{FFmpegPath: "/usr/bin/ffmpeg", Timeout: time.Minute}
	dir := t.TempDir()
	out := filepath.Join(dir, "output.mp4")
	in := testInputs(dir, "input_0.mp4")

	inv, err := b.Build(
		Operation{Kind: KindCustom, RawArgs: "-vf scale=640:480 -c:v libx264"},
		in, dir, out,
	)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	expected := []string{"-y", "-i", in[0], "-vf", "scale=640:480", "-c:v", "libx264", out}
	if len(inv.Args) != len(expected) {
		t.Fatalf("Expected %d args, got %d: %v", len(expected), len(inv.Args), inv.Args)
	}
	for i, arg := range expected {
		if inv.Args[i] != arg {
			t.Errorf("Arg %d: expected %q, got %q", i, arg, inv.Args[i])
		}
	}
}

func TestBuildCustomMultiInput(t *testing.T) {
	b := &Builder{}
	dir := t.TempDir()
	in := testInputs(dir, "input_0.mp4", "input_1.mp4")

	inv, err := b.Build(
		Operation{Kind: KindCustom, RawArgs: "-filter_complex hstack"},
		in, dir, filepath.Join(dir, "output.mp4"),
	)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if countOccurrences(inv.Args, "-i") != 2 {
		t.Errorf("Expected two -i flags, got args %v", inv.Args)
	}
}

func TestBuildConcat(t *testing.T) {
	b := &Builder{}
	dir := t.TempDir()
	out := filepath.Join(dir, "output.mp4")
	in := testInputs(dir, "a.mp4", "b.mp4")

	inv, err := b.Build(Operation{Kind: KindConcat, Duration: 1.0}, in, dir, out)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	// Both inputs appear as -i entries in ordinal order.
	if countOccurrences(inv.Args, "-i") != 2 {
		t.Fatalf("Expected two -i flags: %v", inv.Args)
	}
	first := indexOf(inv.Args, in[0])
	second := indexOf(inv.Args, in[1])
	if first == -1 || second == -1 || second < first {
		t.Errorf("Inputs missing or out of order: %v", inv.Args)
	}

	graph := extractFilterGraph(t, inv.Args)
	if !strings.Contains(graph, "concat=n=2") {
		t.Errorf("Expected concat stage for 2 inputs: %q", graph)
	}
	if inv.Args[len(inv.Args)-1] != out {
		t.Errorf("Expected output path last, got %v", inv.Args)
	}
}

func indexOf(args []string, target string) int {
	for i, a := range args {
		if a == target {
			return i
		}
	}
	return -1
}

func TestBuildConcatFade(t *testing.T) {
	b := &Builder{}
	dir := t.TempDir()
	in := testInputs(dir, "a.mp4", "b.mp4", "c.mp4")

	inv, err := b.Build(
		Operation{Kind: KindConcat, Transition: TransitionFade, Duration: 1.5},
		in, dir, filepath.Join(dir, "output.mp4"),
	)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	graph := extractFilterGraph(t, inv.Args)

	// 3 inputs crossfade through exactly 2 chained stages.
	if n := strings.Count(graph, "xfade"); n != 2 {
		t.Errorf("Expected 2 xfade stages, got %d in %q", n, graph)
	}
	if n := strings.Count(graph, "duration=1.5"); n != 2 {
		t.Errorf("Expected duration=1.5 on both stages, got %d in %q", n, graph)
	}
	if countOccurrences(inv.Args, "-i") != 3 {
		t.Errorf("Expected three -i flags: %v", inv.Args)
	}
}

func TestBuildMixAudio(t *testing.T) {
	b := &Builder{}
	dir := t.TempDir()
	in := testInputs(dir, "a.wav", "b.wav")

	inv, err := b.Build(
		Operation{Kind: KindMixAudio, Volumes: []float64{1, 0.5}},
		in, dir, filepath.Join(dir, "output.mp3"),
	)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	graph := extractFilterGraph(t, inv.Args)
	for _, want := range []string{"volume=1", "volume=0.5", "amix=inputs=2"} {
		if !strings.Contains(graph, want) {
			t.Errorf("Expected graph to contain %q: %q", want, graph)
		}
	}
	if strings.Contains(graph, "loudnorm") {
		t.Errorf("Did not expect loudnorm without normalize: %q", graph)
	}
}

func TestBuildMixAudioNormalize(t *testing.T) {
	b := &Builder{}
	dir := t.TempDir()
	in := testInputs(dir, "a.wav", "b.wav")

	inv, err := b.Build(
		Operation{Kind: KindMixAudio, Volumes: []float64{1, 1}, Normalize: true},
		in, dir, filepath.Join(dir, "output.mp3"),
	)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	graph := extractFilterGraph(t, inv.Args)
	mixIdx := strings.Index(graph, "amix")
	normIdx := strings.Index(graph, "loudnorm")
	if normIdx == -1 {
		t.Fatalf("Expected loudnorm stage: %q", graph)
	}
	if normIdx < mixIdx {
		t.Errorf("Expected normalization after the mix: %q", graph)
	}
}

func TestBuildOverlay(t *testing.T) {
	b := &Builder{}
	dir := t.TempDir()
	in := testInputs(dir, "base.mp4", "logo.png", "badge.png")

	inv, err := b.Build(
		Operation{Kind: KindOverlay, Positions: []Position{{X: 10, Y: 20}, {X: 5, Y: 5}}},
		in, dir, filepath.Join(dir, "output.mp4"),
	)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	graph := extractFilterGraph(t, inv.Args)
	first := strings.Index(graph, "overlay=10:20")
	second := strings.Index(graph, "overlay=5:5")
	if first == -1 || second == -1 {
		t.Fatalf("Expected both overlay stages: %q", graph)
	}
	if second < first {
		t.Errorf("Overlays out of input order: %q", graph)
	}
}

func TestBuildMergeAudioVideo(t *testing.T) {
	b := &Builder{}
	dir := t.TempDir()
	in := testInputs(dir, "video.mp4", "audio.aac")

	inv, err := b.Build(
		Operation{Kind: KindMergeAudioVideo, VideoIndex: 0, AudioIndex: 1},
		in, dir, filepath.Join(dir, "output.mp4"),
	)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	joined := strings.Join(inv.Args, " ")
	for _, want := range []string{"-map 0:v:0", "-map 1:a:0", "-c copy"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected args to contain %q: %v", want, inv.Args)
		}
	}
}

func TestBuildRejectsInvalidOperation(t *testing.T) {
	b := &Builder{}
	dir := t.TempDir()

	_, err := b.Build(
		Operation{Kind: KindCustom, RawArgs: ""},
		testInputs(dir, "a.mp4"), dir, filepath.Join(dir, "out.mp4"),
	)
	if err == nil {
		t.Error("Expected validation error for empty custom command")
	}
}

func TestBuildAllVariantsEndWithOutputAndOverwrite(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output.mp4")
	two := testInputs(dir, "a.mp4", "b.mp4")

	ops := []struct {
		name string
		op   Operation
	}{
		{"custom", Operation{Kind: KindCustom, RawArgs: "-c copy"}},
		{"concat", Operation{Kind: KindConcat, Duration: 1.0}},
		{"concat_fade", Operation{Kind: KindConcat, Transition: TransitionFade, Duration: 1.0}},
		{"mix_audio", Operation{Kind: KindMixAudio, Volumes: []float64{1, 1}}},
		{"overlay", Operation{Kind: KindOverlay, Positions: []Position{{X: 0, Y: 0}}}},
		{"merge_audio_video", Operation{Kind: KindMergeAudioVideo, VideoIndex: 0, AudioIndex: 1}},
	}

	b := &Builder{}
	for _, tt := range ops {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := b.Build(tt.op, two, dir, out)
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			if inv.Args[0] != "-y" {
				t.Errorf("Expected leading -y overwrite flag: %v", inv.Args)
			}
			if inv.Args[len(inv.Args)-1] != out {
				t.Errorf("Expected output path as last arg: %v", inv.Args)
			}
		})
	}
}

func extractFilterGraph(t *testing.T, args []string) string {
	t.Helper()
	for i, a := range args {
		if a == "-filter_complex" && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("No -filter_complex in args: %v", args)
	return ""
}
