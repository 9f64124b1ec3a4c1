package profiler

import (
	"context"
	"log/slog"
	"time"
)

// LogRecorder writes every record to a structured logger. Durations are
// logged at debug level, errors at warn.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder returns a LogRecorder writing to logger, or to
// slog.Default() when logger is nil.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger}
}

// RecordOperation implements Recorder.
func (l *LogRecorder) RecordOperation(operation, status string) {
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, "operation finished",
		slog.String("operation", operation),
		slog.String("status", status))
}

// RecordDuration implements Recorder.
func (l *LogRecorder) RecordDuration(operation string, seconds float64) {
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, "stage timing",
		slog.String("operation", operation),
		slog.Duration("duration", time.Duration(seconds*float64(time.Second))))
}

// RecordError implements Recorder.
func (l *LogRecorder) RecordError(operation, category string) {
	l.logger.LogAttrs(context.Background(), slog.LevelWarn, "operation failed",
		slog.String("operation", operation),
		slog.String("category", category))
}
