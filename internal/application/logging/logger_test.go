package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/warehouse-go/internal/application/logging"
)

type lastEntry struct {
	level    string
	message  string
	metadata map[string]interface{}
}

func (l *lastEntry) Log(level, message string, metadata map[string]interface{}) {
	l.level, l.message, l.metadata = level, message, metadata
}

func TestLoggerFromContext_DiscardsWithoutLogger(t *testing.T) {
	logger := logging.LoggerFromContext(context.Background())

	assert.NotPanics(t, func() {
		logger.Log(logging.LevelInfo, "Truck loaded", nil)
	})
}

func TestWithFields_MergesAndLetsCallFieldsWin(t *testing.T) {
	// Arrange
	sink := &lastEntry{}
	ctx := logging.WithLogger(context.Background(), sink)
	ctx = logging.WithFields(ctx, map[string]interface{}{"truck_id": "abc", "round": 1})

	// Act
	logging.LoggerFromContext(ctx).Log(logging.LevelWarn, "Truck left without cargo", map[string]interface{}{
		"round": 2,
	})

	// Assert
	assert.Equal(t, logging.LevelWarn, sink.level)
	assert.Equal(t, "Truck left without cargo", sink.message)
	assert.Equal(t, map[string]interface{}{"truck_id": "abc", "round": 2}, sink.metadata)
}
