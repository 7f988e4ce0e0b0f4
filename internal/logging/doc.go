// Package logging provides structured logging for the dmxbox tools.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used by the configuration client, the live channel and the device
// simulator.
//
// # Log Levels
//
//   - Debug: wire-level detail (HTTP requests, websocket payloads)
//   - Info: connections, scan subscription transitions
//   - Warn: recoverable issues (auth mode fallbacks, reconnects)
//   - Error: failures surfaced to the operator
//
// # Configuration
//
// Logging is silent unless a level is given explicitly or through the
// DMXBOX_LOG_LEVEL environment variable:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr in zap's console encoding so that command output on
// stdout stays machine readable.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once the logger has been
// initialized.
package logging
