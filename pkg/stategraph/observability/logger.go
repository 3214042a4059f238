// Package observability provides structured logging, metrics, and
// distributed tracing for stategraph runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds run context to a logger.
// Returns a new logger with run_id and node_id fields.
func EnrichLogger(logger *slog.Logger, runID, nodeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
	)
}

// LogRunStart logs the start of a graph run.
func LogRunStart(logger *slog.Logger, runID string) {
	if logger == nil {
		return
	}
	logger.Info("run starting",
		slog.String("run_id", runID),
	)
}

// LogRunComplete logs successful run completion.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Info("run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogRunError logs run failure.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogStepStart logs the start of a step.
func LogStepStart(logger *slog.Logger, nodeID string, seq int) {
	if logger == nil {
		return
	}
	logger.Debug("step starting",
		slog.String("node_id", nodeID),
		slog.Int("seq", seq),
	)
}

// LogStepComplete logs successful step completion. The label is empty
// for worker steps and carries the chosen route for router steps.
func LogStepComplete(logger *slog.Logger, nodeID string, seq int, label string, durationMs float64) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("node_id", nodeID),
		slog.Int("seq", seq),
		slog.Float64("duration_ms", durationMs),
	}
	if label != "" {
		attrs = append(attrs, slog.String("label", label))
	}
	logger.Debug("step completed", attrs...)
}

// LogStepError logs step failure.
func LogStepError(logger *slog.Logger, nodeID string, seq int, err error) {
	if logger == nil {
		return
	}
	logger.Error("step failed",
		slog.String("node_id", nodeID),
		slog.Int("seq", seq),
		slog.String("error", err.Error()),
	)
}

// LogCheckpoint logs checkpoint creation.
func LogCheckpoint(logger *slog.Logger, nodeID string, seq, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("node_id", nodeID),
		slog.Int("seq", seq),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogCheckpointError logs checkpoint failure (non-fatal).
func LogCheckpointError(logger *slog.Logger, nodeID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("checkpoint failed",
		slog.String("node_id", nodeID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
