// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (console output for interactive CLI runs, JSON for anything collecting the
// output).
//
// # Run Correlation
//
// Every sync run is assigned a UUID. The WithRun helper attaches it to the
// log entry, ensuring that log lines and operation-log rows belonging to the
// same run can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: console (default for a CLI tool) or json
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("Sync started")
//
//	// Inside a run:
//	l := logger.WithRun(log, runID)
//	l.Error("Operation failed", zap.Error(err))
package logger
