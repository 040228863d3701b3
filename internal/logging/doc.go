// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected; terminals
//     get colored output
//   - Under systemd (JOURNAL_STREAM set) stdout is skipped so entries are not
//     written twice
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"station": "debug",  // Per-module overrides
//			"hat":     "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("station")
//	logger.Info("Mode changed", "mode", "pressure")
//
// Levels can be changed later without recreating loggers:
//
//	logging.SetLevels("info", map[string]string{"hat": "debug"})
//
// # Viewing Logs
//
//	journalctl -t weatherhat -f
//	journalctl -t weatherhat MODULE=station
//	journalctl -t weatherhat -p warning
//
// # Configuration
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	station = "debug"
//	hat = "warn"
package logging
