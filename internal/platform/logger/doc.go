// Package logger provides structured logging functionality for the application.
//
// It configures a log/slog JSON (or text) logger from LoggerConfig and carries
// request-scoped loggers through context.Context, so trace ids attached by the
// HTTP middleware reach every service and store log line.
package logger
