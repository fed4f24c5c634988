package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	applogging "github.com/andrescamacho/warehouse-go/internal/application/logging"
	"github.com/andrescamacho/warehouse-go/internal/infrastructure/config"
)

// LogrusLogger implements the application Logger port on top of logrus
type LogrusLogger struct {
	logger *logrus.Logger
	fields logrus.Fields
	closer io.Closer
}

// NewLogrusLogger builds a logger from the logging configuration.
// When output is "file" the caller must Close the logger to flush the file.
func NewLogrusLogger(cfg config.LoggingConfig) (*LogrusLogger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer
	switch cfg.Output {
	case "stderr":
		logger.SetOutput(os.Stderr)
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
		}
		logger.SetOutput(f)
		closer = f
	default:
		logger.SetOutput(os.Stdout)
	}

	return &LogrusLogger{logger: logger, closer: closer}, nil
}

// NewLogrusLoggerFrom wraps an existing logrus logger (used by tests to capture output)
func NewLogrusLoggerFrom(logger *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{logger: logger}
}

// With returns a logger that adds the given fields to every entry
func (l *LogrusLogger) With(fields map[string]interface{}) *LogrusLogger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &LogrusLogger{logger: l.logger, fields: merged, closer: l.closer}
}

// Log implements the application Logger port
func (l *LogrusLogger) Log(level, message string, metadata map[string]interface{}) {
	entry := l.logger.WithFields(l.fields)
	if len(metadata) > 0 {
		entry = entry.WithFields(logrus.Fields(metadata))
	}
	entry.Log(toLogrusLevel(level), message)
}

// Close releases the log file, if any
func (l *LogrusLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func toLogrusLevel(level string) logrus.Level {
	switch strings.ToUpper(level) {
	case applogging.LevelDebug:
		return logrus.DebugLevel
	case applogging.LevelWarn, "WARN":
		return logrus.WarnLevel
	case applogging.LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

var _ applogging.Logger = (*LogrusLogger)(nil)
