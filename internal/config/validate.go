package config

import (
	"errors"
	"fmt"
	"strings"
)

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var validEncoderPresets = map[string]struct{}{
	"ultrafast": {},
	"superfast": {},
	"veryfast":  {},
	"faster":    {},
	"fast":      {},
	"medium":    {},
	"slow":      {},
	"slower":    {},
	"veryslow":  {},
}

// Validate reports configuration values a running service cannot work with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.SessionsDir) == "" {
		problems = append(problems, "paths.sessions_dir must be set")
	}
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}
	if _, ok := validEncoderPresets[c.Render.PreviewPreset]; !ok {
		problems = append(problems, fmt.Sprintf("render.preview_preset %q is not a known x264 preset", c.Render.PreviewPreset))
	}
	if _, ok := validEncoderPresets[c.Render.ExportPreset]; !ok {
		problems = append(problems, fmt.Sprintf("render.export_preset %q is not a known x264 preset", c.Render.ExportPreset))
	}
	if c.Render.PreviewCRF < 0 || c.Render.PreviewCRF > 51 {
		problems = append(problems, "render.preview_crf must be between 0 and 51")
	}
	if c.Render.ExportCRF < 0 || c.Render.ExportCRF > 51 {
		problems = append(problems, "render.export_crf must be between 0 and 51")
	}
	if c.Silence.ThresholdDB >= 0 {
		problems = append(problems, "silence.threshold_db must be negative (dBFS)")
	}
	if c.Silence.MinSilenceSec <= 0 {
		problems = append(problems, "silence.min_silence_sec must be positive")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
