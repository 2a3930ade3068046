// Package services holds cross-cutting service conventions: the sentinel
// error taxonomy shared by every engine and the context keys used to thread
// session and operation identity into structured logs.
//
// Errors are classified by wrapping a sentinel marker:
//   - ErrExternalTool: an ffmpeg/ffprobe subprocess exited non-zero
//   - ErrProbe: a media probe failed where the result was required
//   - ErrNotFound: session or asset id did not resolve
//   - ErrGone: state references a file that no longer exists on disk
//   - ErrInvalidInput: caller supplied an unusable request
//   - ErrTransient: unclassified failure
//
// Wrap builds the operator-facing message while tagging the error so callers
// can branch on errors.Is without string matching.
package services
