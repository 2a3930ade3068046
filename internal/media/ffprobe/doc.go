// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns a parsed Result
//   - Duration: convenience duration probe that soft-fails to 0
//
// Duration is advisory at several call sites (still images, half-written
// files), which is why it degrades to zero instead of returning an error.
package ffprobe
