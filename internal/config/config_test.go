package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidstudio/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantSessions := filepath.Join(tempHome, ".local", "share", "vidstudio", "sessions")
	if cfg.Paths.SessionsDir != wantSessions {
		t.Fatalf("unexpected sessions dir: got %q want %q", cfg.Paths.SessionsDir, wantSessions)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected tool defaults: %q / %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	if cfg.Render.CanvasWidth != 1920 || cfg.Render.CanvasHeight != 1080 || cfg.Render.FrameRate != 30 {
		t.Fatalf("unexpected render defaults: %+v", cfg.Render)
	}
	if cfg.Silence.ThresholdDB != -30.0 || cfg.Silence.MinSilenceSec != 0.3 {
		t.Fatalf("unexpected silence defaults: %+v", cfg.Silence)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
sessions_dir = "` + filepath.Join(dir, "sessions") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[render]
canvas_width = 1280
canvas_height = 720
preview_preset = "  veryfast  "

[silence]
threshold_db = -40.0
min_silence_sec = 0.5

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Render.CanvasWidth != 1280 || cfg.Render.CanvasHeight != 720 {
		t.Fatalf("unexpected canvas: %+v", cfg.Render)
	}
	if cfg.Render.PreviewPreset != "veryfast" {
		t.Fatalf("preset not trimmed: %q", cfg.Render.PreviewPreset)
	}
	if cfg.Render.FrameRate != 30 {
		t.Fatalf("frame rate default not applied: %d", cfg.Render.FrameRate)
	}
	if cfg.Silence.ThresholdDB != -40.0 || cfg.Silence.MinSilenceSec != 0.5 {
		t.Fatalf("unexpected silence settings: %+v", cfg.Silence)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging format not lowercased: %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"positive threshold", func(c *config.Config) { c.Silence.ThresholdDB = 5 }, "threshold_db"},
		{"bad preset", func(c *config.Config) { c.Render.ExportPreset = "warp9" }, "export_preset"},
		{"crf out of range", func(c *config.Config) { c.Render.PreviewCRF = 99 }, "preview_crf"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "yaml" }, "logging.format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Logging.Format = "console"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[silence]") {
		t.Fatalf("sample missing silence section")
	}

	// The sample must itself load cleanly.
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}
