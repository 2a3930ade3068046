package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"vidstudio/internal/config"
	"vidstudio/internal/logging"
	"vidstudio/internal/media/ffmpeg"
	"vidstudio/internal/media/ffprobe"
	"vidstudio/internal/services"
)

// PreviewFileName is the fixed name preview renders overwrite.
const PreviewFileName = "preview.mp4"

// ExportFileName returns the timestamp-suffixed name for an export render.
func ExportFileName(ts time.Time) string {
	return fmt.Sprintf("export_%s.mp4", ts.UTC().Format("20060102_150405"))
}

// Result describes a finished render.
type Result struct {
	Path      string
	SizeBytes int64
	Duration  float64
}

// Engine turns render requests into ffmpeg invocations.
type Engine struct {
	runner      *ffmpeg.Runner
	probeBinary string
	settings    config.Render
	logger      *slog.Logger
}

// NewEngine wires a render engine over the given runner and encoder
// settings.
func NewEngine(runner *ffmpeg.Runner, probeBinary string, settings config.Render, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{runner: runner, probeBinary: probeBinary, settings: settings, logger: logger}
}

// Render compiles the request and runs the single ffmpeg pass. A request
// with zero clips is rejected before any subprocess is spawned.
func (e *Engine) Render(ctx context.Context, req Request) (Result, error) {
	enc := encoding{preset: e.settings.ExportPreset, crf: e.settings.ExportCRF}
	if req.Mode == ModePreview {
		enc = encoding{preset: e.settings.PreviewPreset, crf: e.settings.PreviewCRF}
	}
	args, total, err := compile(req, enc)
	if err != nil {
		return Result{}, err
	}

	e.logger.Info("render started",
		"mode", string(req.Mode),
		"clips", len(req.Clips),
		"duration", total,
		"output", req.OutputPath,
	)
	if _, err := e.runner.Run(ctx, args, nil); err != nil {
		os.Remove(req.OutputPath)
		return Result{}, err
	}

	result := Result{Path: req.OutputPath, Duration: total}
	if info, err := os.Stat(req.OutputPath); err == nil {
		result.SizeBytes = info.Size()
	} else {
		return Result{}, services.Wrap(services.ErrGone, "render", "finish",
			fmt.Sprintf("output %s missing after encode", req.OutputPath), err)
	}
	// The probe is advisory: the computed duration stands in when it fails.
	if probed := ffprobe.Duration(ctx, e.probeBinary, req.OutputPath); probed > 0 {
		result.Duration = probed
	}

	e.logger.Info("render finished",
		"mode", string(req.Mode),
		"output", result.Path,
		"size_bytes", result.SizeBytes,
		"duration", result.Duration,
	)
	return result, nil
}
