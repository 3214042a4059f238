package stategraph

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Context provides execution context to workers and routers.
// It extends context.Context with engine services and metadata.
//
// Context is immutable after creation. The executor creates derived
// contexts for each step with the node id set and the logger enriched.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node
	// context during execution. Never returns nil; defaults to
	// slog.Default() if not configured.
	Logger() *slog.Logger

	// RunID returns the unique identifier for this run.
	// Auto-generated if not configured.
	RunID() string

	// NodeID returns the node currently executing.
	// Empty string outside of a step.
	NodeID() string
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger *slog.Logger
	runID  string
	nodeID string
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// NodeID returns the current node identifier.
func (c *executionContext) NodeID() string {
	return c.nodeID
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger is enriched with run_id and node_id during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID is auto-generated. This id is used for logging
// and tracing; for checkpointing, pass WithRunID() to Run().
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
// The returned Context wraps the provided context.Context and adds
// engine services and metadata.
//
// Example:
//
//	ctx := stategraph.NewContext(context.Background(),
//	    stategraph.WithLogger(myLogger),
//	    stategraph.WithContextRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withNodeID returns a derived context with the node id set and the
// logger enriched. Used by the executor per step.
func withNodeID(ctx Context, nodeID string) Context {
	return &executionContext{
		Context: ctx,
		logger:  ctx.Logger().With("run_id", ctx.RunID(), "node_id", nodeID),
		runID:   ctx.RunID(),
		nodeID:  nodeID,
	}
}

// withBase returns a derived context whose cancellation and deadline
// come from base while engine services come from ctx. Used by Stream()
// and per-node timeouts.
func withBase(ctx Context, base context.Context) Context {
	return &executionContext{
		Context: base,
		logger:  ctx.Logger(),
		runID:   ctx.RunID(),
		nodeID:  ctx.NodeID(),
	}
}

// withNodeTimeout derives a context with a per-step deadline.
func withNodeTimeout(ctx Context, d time.Duration) (Context, context.CancelFunc) {
	base, cancel := context.WithTimeout(ctx, d)
	return withBase(ctx, base), cancel
}
