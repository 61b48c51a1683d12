// Package logging constructs the slog loggers used across Ludex.
//
// It provides a console handler for interactive use, a JSON handler for
// machine-readable output, typed attribute helpers, and component loggers so
// every resolution and repair path logs with consistent fields.
package logging
