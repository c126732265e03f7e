// Package logging provides structured logging utilities shared by the CLI
// and the collectors.
//
// # Overview
//
// This package wraps the standard library slog package with project defaults
// and conventions for consistent logging. It supports environment-based log
// level configuration, module/version context injection, and automatic source
// location tracking for debug logs.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("tfcollect", version)
//
//	    slog.Info("collecting", "collector", "zpool")
//	    slog.Error("command failed", "error", err)
//	}
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("tfcollect", "v1.0.0", "warn")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug tfcollect collect
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format so that metric exposition on
// stdout stays machine-parsable:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "collection complete",
//	    "module": "tfcollect",
//	    "version": "v1.0.0",
//	    "collectors": 5
//	}
package logging
