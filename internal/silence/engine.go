package silence

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"vidstudio/internal/fileutil"
	"vidstudio/internal/logging"
	"vidstudio/internal/media/ffmpeg"
	"vidstudio/internal/media/ffprobe"
	"vidstudio/internal/services"
)

// Options control a single removal pass.
type Options struct {
	// ThresholdDB is the silencedetect noise floor, e.g. -30.
	ThresholdDB float64
	// MinSilence is the shortest stretch, in seconds, that counts as silence.
	MinSilence float64
	// MinSegment is the shortest keep segment carried into the cut list.
	MinSegment float64
}

// Result summarizes what a removal pass did to the file.
type Result struct {
	OriginalDuration float64
	NewDuration      float64
	RemovedDuration  float64
	Periods          int
	Segments         int
	// Changed reports whether the file on disk was rewritten.
	Changed bool
}

// Engine detects and removes silence from media files in place.
type Engine struct {
	runner      *ffmpeg.Runner
	probeBinary string
	logger      *slog.Logger
}

// NewEngine wires a removal engine over the given ffmpeg runner and ffprobe
// binary.
func NewEngine(runner *ffmpeg.Runner, probeBinary string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{runner: runner, probeBinary: probeBinary, logger: logger}
}

// Detect runs the silencedetect pass and returns the detected periods and
// the probed total duration without modifying the file.
func (e *Engine) Detect(ctx context.Context, path string, opts Options) ([]Period, float64, error) {
	probe, err := ffprobe.Inspect(ctx, e.probeBinary, path)
	if err != nil {
		return nil, 0, err
	}
	total := probe.DurationSeconds()
	if total <= 0 {
		return nil, 0, services.Wrap(services.ErrProbe, "silence", "detect", fmt.Sprintf("no usable duration for %s", path), nil)
	}
	if probe.AudioStreamCount() == 0 {
		return nil, 0, services.Wrap(services.ErrInvalidInput, "silence", "detect", fmt.Sprintf("%s has no audio stream", path), nil)
	}

	parser := &markerParser{}
	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g", opts.ThresholdDB, opts.MinSilence)
	args := []string{"-i", path, "-af", filter, "-f", "null", "-"}
	if _, err := e.runner.Run(ctx, args, parser.feed); err != nil {
		return nil, 0, err
	}
	return parser.finish(), total, nil
}

// Remove detects silence in the file at path and, when any was found,
// rewrites the file with the silent stretches cut out. The original file is
// untouched unless the rebuilt output verifies cleanly.
func (e *Engine) Remove(ctx context.Context, path string, opts Options) (Result, error) {
	periods, total, err := e.Detect(ctx, path, opts)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		OriginalDuration: total,
		NewDuration:      total,
		Periods:          len(periods),
	}
	if len(periods) == 0 {
		e.logger.Info("no silence detected", "path", path, "duration", total)
		return result, nil
	}

	segments := KeepSegments(periods, total, opts.MinSegment)
	result.Segments = len(segments)
	if len(segments) == 0 {
		return Result{}, services.Wrap(services.ErrInvalidInput, "silence", "remove", "removal would leave no content", nil)
	}

	temp := fileutil.TempSibling(path, ".cut.mp4")
	defer os.Remove(temp)

	graph := cutGraph(segments)
	args := []string{
		"-i", path,
		"-filter_complex", graph,
		"-map", "[outv]", "-map", "[outa]",
		temp,
	}
	if _, err := e.runner.Run(ctx, args, nil); err != nil {
		return Result{}, err
	}

	probe, err := ffprobe.Inspect(ctx, e.probeBinary, temp)
	if err != nil {
		return Result{}, services.Wrap(services.ErrProbe, "silence", "verify", fmt.Sprintf("rebuilt file %s is unreadable", temp), err)
	}
	if probe.VideoStreamCount() == 0 || probe.AudioStreamCount() == 0 {
		return Result{}, services.Wrap(services.ErrExternalTool, "silence", "verify",
			fmt.Sprintf("rebuilt file has %d video and %d audio streams", probe.VideoStreamCount(), probe.AudioStreamCount()), nil)
	}
	newDuration := probe.DurationSeconds()

	if err := fileutil.ReplaceFile(temp, path); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "silence", "replace", fmt.Sprintf("swapping %s into place", temp), err)
	}

	result.NewDuration = newDuration
	result.RemovedDuration = total - newDuration
	result.Changed = true
	e.logger.Info("silence removed",
		"path", path,
		"periods", len(periods),
		"segments", len(segments),
		"original_duration", total,
		"new_duration", newDuration,
	)
	return result, nil
}

// cutGraph builds the trim/concat filter graph for the keep segments. Video
// and audio are cut with the same boundaries and concatenated together so
// they stay in sync.
func cutGraph(segments []Segment) string {
	var b strings.Builder
	for i, segment := range segments {
		start := ffmpeg.FormatSeconds(segment.Start)
		end := ffmpeg.FormatSeconds(segment.End)
		fmt.Fprintf(&b, "[0:v]trim=start=%s:end=%s,setpts=PTS-STARTPTS[v%d];", start, end, i)
		fmt.Fprintf(&b, "[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[a%d];", start, end, i)
	}
	for i := range segments {
		fmt.Fprintf(&b, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=1[outv][outa]", len(segments))
	return b.String()
}
