// Package logging constructs the application's slog loggers and defines
// the standardized structured field keys used across components. Console
// and JSON output formats are supported; log output can be teed to a file
// under the configured log directory.
package logging
