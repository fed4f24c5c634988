package logging

import "context"

// Log levels understood by every Logger implementation
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARNING"
	LevelError = "ERROR"
)

// Logger provides structured logging for warehouse operations
type Logger interface {
	Log(level, message string, metadata map[string]interface{})
}

type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithFields returns a context whose logger adds fields to every entry.
// Fields passed to Log take precedence over these.
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	return WithLogger(ctx, &fieldLogger{next: LoggerFromContext(ctx), fields: fields})
}

// LoggerFromContext extracts the logger from context; without one, entries are discarded
func LoggerFromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return discard{}
}

type discard struct{}

func (discard) Log(string, string, map[string]interface{}) {}

type fieldLogger struct {
	next   Logger
	fields map[string]interface{}
}

func (l *fieldLogger) Log(level, message string, metadata map[string]interface{}) {
	merged := make(map[string]interface{}, len(l.fields)+len(metadata))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	l.next.Log(level, message, merged)
}
