package config

const (
	defaultSessionsDir      = "~/.local/share/vidstudio/sessions"
	defaultLogDir           = "~/.local/share/vidstudio/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultCanvasWidth      = 1920
	defaultCanvasHeight     = 1080
	defaultFrameRate        = 30
	defaultPreviewPreset    = "ultrafast"
	defaultPreviewCRF       = 28
	defaultExportPreset     = "medium"
	defaultExportCRF        = 18
	defaultThresholdDB      = -30.0
	defaultMinSilenceSec    = 0.3
	defaultMinSegmentSec    = 0.1
	defaultMaxAgeHours      = 24
	defaultSweepMinutes     = 30
	defaultImageDurationSec = 5.0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SessionsDir: defaultSessionsDir,
			LogDir:      defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Render: Render{
			CanvasWidth:   defaultCanvasWidth,
			CanvasHeight:  defaultCanvasHeight,
			FrameRate:     defaultFrameRate,
			PreviewPreset: defaultPreviewPreset,
			PreviewCRF:    defaultPreviewCRF,
			ExportPreset:  defaultExportPreset,
			ExportCRF:     defaultExportCRF,
		},
		Silence: Silence{
			ThresholdDB:   defaultThresholdDB,
			MinSilenceSec: defaultMinSilenceSec,
			MinSegmentSec: defaultMinSegmentSec,
		},
		Sessions: Sessions{
			MaxAgeHours:          defaultMaxAgeHours,
			SweepIntervalMinutes: defaultSweepMinutes,
			ImageDurationSec:     defaultImageDurationSec,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
