package port

import (
	"context"
	"time"
)

// LogLevel represents the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogEntry represents a structured log entry for publishing to external log systems.
type LogEntry struct {
	Timestamp time.Time              // When the log event occurred
	Level     LogLevel               // Severity level
	Message   string                 // Log message
	Fields    map[string]interface{} // Additional structured fields
}

// LogPublisher mirrors log entries to an external log sink.
type LogPublisher interface {
	// Publish sends a single log entry to the external system.
	Publish(ctx context.Context, entry LogEntry) error

	// Flush forces immediate publication of any buffered log entries.
	// The Lambda handler calls it before returning each batch, the server on shutdown.
	Flush(ctx context.Context) error
}
