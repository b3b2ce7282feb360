// Package logger provides a small factory over log/slog with
// functional options for level, format and output, plus an env-driven
// Config for twelve-factor setups.
//
//	log := logger.New(
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithFormat(logger.FormatJSON),
//	)
//
// NewDiscard returns a logger that drops everything, which is the
// default the library packages fall back to when no logger is injected.
package logger
