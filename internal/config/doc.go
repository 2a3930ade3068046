// Package config loads, normalizes, and validates the vidstudio TOML
// configuration.
//
// Configuration sections by subsystem:
//   - Paths: sessions root and log directory
//   - Tools: ffmpeg/ffprobe binary names or paths
//   - Render: canvas defaults and preview/export encoder settings
//   - Silence: silence detection thresholds
//   - Sessions: idle reaping and ingest defaults
//   - Logging: log format and level
//
// Load applies defaults first, then the file, then normalization (path
// expansion, clamping) and validation. A missing config file is not an
// error; the defaults describe a working local setup.
package config
