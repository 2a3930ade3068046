package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeRender()
	c.normalizeSilence()
	c.normalizeSessions()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SessionsDir) == "" {
		c.Paths.SessionsDir = defaultSessionsDir
	}
	if c.Paths.SessionsDir, err = expandPath(c.Paths.SessionsDir); err != nil {
		return fmt.Errorf("paths.sessions_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = "ffprobe"
	}
}

func (c *Config) normalizeRender() {
	if c.Render.CanvasWidth <= 0 {
		c.Render.CanvasWidth = defaultCanvasWidth
	}
	if c.Render.CanvasHeight <= 0 {
		c.Render.CanvasHeight = defaultCanvasHeight
	}
	if c.Render.FrameRate <= 0 {
		c.Render.FrameRate = defaultFrameRate
	}
	c.Render.PreviewPreset = strings.TrimSpace(c.Render.PreviewPreset)
	c.Render.ExportPreset = strings.TrimSpace(c.Render.ExportPreset)
	if c.Render.PreviewPreset == "" {
		c.Render.PreviewPreset = defaultPreviewPreset
	}
	if c.Render.ExportPreset == "" {
		c.Render.ExportPreset = defaultExportPreset
	}
	if c.Render.PreviewCRF <= 0 {
		c.Render.PreviewCRF = defaultPreviewCRF
	}
	if c.Render.ExportCRF <= 0 {
		c.Render.ExportCRF = defaultExportCRF
	}
}

func (c *Config) normalizeSilence() {
	if c.Silence.ThresholdDB == 0 {
		c.Silence.ThresholdDB = defaultThresholdDB
	}
	if c.Silence.MinSilenceSec <= 0 {
		c.Silence.MinSilenceSec = defaultMinSilenceSec
	}
	if c.Silence.MinSegmentSec <= 0 {
		c.Silence.MinSegmentSec = defaultMinSegmentSec
	}
}

func (c *Config) normalizeSessions() {
	if c.Sessions.MaxAgeHours <= 0 {
		c.Sessions.MaxAgeHours = defaultMaxAgeHours
	}
	if c.Sessions.SweepIntervalMinutes <= 0 {
		c.Sessions.SweepIntervalMinutes = defaultSweepMinutes
	}
	if c.Sessions.ImageDurationSec <= 0 {
		c.Sessions.ImageDurationSec = defaultImageDurationSec
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
