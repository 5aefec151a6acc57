// Package logging provides structured logging using uber/zap.
//
// Two presets exist:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output at debug level
//
// Logs go to stderr by default so that one-shot execution can print its
// result on stdout.
//
// Components receive the embedded *zap.Logger and derive their own name:
//
//	logger := logging.NewDefault()
//	reg := registry.New(registry.Options{Logger: logger.Logger})
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
