// Package logging provides structured logging configuration for userdesk.
//
// This package wraps log/slog so the CLI, the store and the local users API
// log the same way.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel(cfg.LogLevel),
//	    Format: logging.ParseFormat(cfg.LogFormat),
//	})
//
//	logger.Info("starting users API", "addr", ":4300")
//	logger.Warn("store operation failed", "op", "create", "error", err)
//
// # Log Levels
//
// Four log levels are supported:
//   - Debug: store transitions, API requests
//   - Info: lifecycle events
//   - Warn: rejected store operations
//   - Error: server failures
//
// # Output Formats
//
//   - Text: Human-readable format for terminals
//   - JSON: Structured format for log aggregation systems
//
// # Integration
//
// Components accept a *slog.Logger through a With... option.
// If no logger is provided they use logging.Nop().
package logging
