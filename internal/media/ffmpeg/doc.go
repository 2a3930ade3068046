// Package ffmpeg runs the external ffmpeg binary as a subprocess and streams
// its diagnostic output.
//
// Each Run call spawns exactly one process with -y (auto-overwrite)
// prepended. The stderr stream is scanned line by line: recognized progress
// lines (frame=/time=/speed=) are parsed and forwarded to the runner's
// observer, and every line is offered to the caller's line callback so
// engines can extract filter markers (silencedetect output) without a second
// pass. Failures carry a bounded tail of the diagnostic stream for operator
// visibility. The runner never retries; retries are the caller's decision.
package ffmpeg
