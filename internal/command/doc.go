// Package command describes media operations and turns them into ffmpeg
// argument vectors.
//
// An Operation is a validated description of what the caller wants done:
// a raw single/multi-input ffmpeg command, or one of the fixed multi-input
// operations (concat, mix_audio, overlay, merge_audio_video). The Builder
// resolves an Operation plus staged input paths into a discrete argv for
// the ffmpeg binary. Arguments are always passed as a vector, never
// through a shell, so caller-supplied command fragments cannot inject
// shell syntax.
package command
