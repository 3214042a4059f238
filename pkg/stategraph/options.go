package stategraph

import (
	"time"

	"github.com/stategraph-io/stategraph/pkg/stategraph/checkpoint"
	"github.com/stategraph-io/stategraph/pkg/stategraph/observability"
)

// DefaultMaxSteps bounds a run when WithMaxSteps is not given.
const DefaultMaxSteps = 1000

// defaultStreamBuffer is the step event channel capacity for Stream().
const defaultStreamBuffer = 64

// runConfig holds configuration for one run.
type runConfig struct {
	maxSteps     int
	nodeTimeout  time.Duration
	streamBuffer int
	runID        string

	checkpointStore        checkpoint.Store
	checkpointFailureFatal bool
	// sequence is the step counter starting point; nonzero when resuming.
	sequence int

	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		maxSteps:     DefaultMaxSteps,
		streamBuffer: defaultStreamBuffer,
		metrics:      observability.NoopMetrics{},
		spans:        observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxSteps sets the maximum number of steps for the run.
// Default: DefaultMaxSteps.
//
// The step limit is the only cycle guard: graphs may legitimately
// revisit nodes any number of times, so a run that would exceed the
// limit before reaching END fails with MaxStepsError instead of
// looping silently.
func WithMaxSteps(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithNodeTimeout bounds each node invocation. Zero (the default)
// disables the per-node deadline. An invocation that overruns surfaces
// as a NodeError wrapping context.DeadlineExceeded and aborts the run;
// the engine does not retry.
func WithNodeTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.nodeTimeout = d
		}
	}
}

// WithRunID sets the run identifier used for checkpointing and
// observability. Defaults to the Context's run id.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithCheckpointStore enables per-step checkpointing to the given
// store. Checkpoint failures are logged but non-fatal unless
// WithCheckpointFailureFatal is also set.
func WithCheckpointStore(store checkpoint.Store) RunOption {
	return func(c *runConfig) {
		c.checkpointStore = store
	}
}

// WithCheckpointFailureFatal makes checkpoint persistence failures
// abort the run with CheckpointError.
func WithCheckpointFailureFatal() RunOption {
	return func(c *runConfig) {
		c.checkpointFailureFatal = true
	}
}

// WithMetrics records run and step metrics with the given recorder.
// Use observability.NewMetricsRecorder() for OpenTelemetry metrics.
func WithMetrics(rec observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithTracing emits run and step spans through the given span manager.
// Use observability.NewSpanManager() for OpenTelemetry tracing.
func WithTracing(spans observability.SpanManager) RunOption {
	return func(c *runConfig) {
		if spans != nil {
			c.spans = spans
			c.tracingEnabled = true
		}
	}
}

// WithStreamBuffer sets the step event channel capacity for Stream().
// Default: 64. A larger buffer decouples the run from a slow consumer
// at the cost of memory.
func WithStreamBuffer(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.streamBuffer = n
		}
	}
}
