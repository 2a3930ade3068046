// Package logging configures slog for vidstudio and standardizes the
// structured field vocabulary used across components.
//
// Two output formats are supported: a compact console handler for
// interactive use and slog's JSON handler for machine consumption. Loggers
// are passed explicitly; there is no package-level default.
package logging
