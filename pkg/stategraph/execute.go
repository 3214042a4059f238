package stategraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/stategraph-io/stategraph/pkg/stategraph/checkpoint"
	"github.com/stategraph-io/stategraph/pkg/stategraph/observability"
	"go.opentelemetry.io/otel/trace"
)

// Step records one completed node invocation: the node, what it
// produced, and the snapshot after merging. Steps are totally ordered
// within a run by Seq, starting at 1.
type Step struct {
	// Seq is the 1-based step sequence number.
	Seq int
	// NodeID is the node that executed.
	NodeID string
	// Label is the chosen route for router steps; empty for workers.
	Label string
	// Update is the partial update a worker returned; nil for routers.
	Update Update
	// Snapshot is the state after the step.
	Snapshot Snapshot
}

// Result is the outcome of a run. When a run fails, the partial Result
// is still returned so callers can inspect the step history accumulated
// before the failure.
type Result struct {
	// RunID identifies the run.
	RunID string
	// Final is the last snapshot produced.
	Final Snapshot
	// Steps is the ordered history of completed steps.
	Steps []Step
}

// Run executes the graph to completion with the given initial state.
//
// Execution flow:
//  1. Validate and seal the initial state against the schema
//  2. Start at the entry node
//  3. Check the step limit and for cancellation
//  4. Invoke the current node (worker update + reducer merge, or
//     router label + dispatch lookup)
//  5. Repeat until END is reached or an error occurs
//
// On success, the Result holds the final snapshot and the full step
// history. On error, the Result holds everything completed before the
// failure; the error is one of the engine's typed errors.
//
// Example:
//
//	ctx := stategraph.NewContext(context.Background())
//	result, err := compiled.Run(ctx, map[string]any{"messages": []any{}})
//	if err != nil {
//	    // result.Steps holds the partial history
//	}
func (cg *CompiledGraph) Run(ctx Context, initial map[string]any, opts ...RunOption) (*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return cg.run(ctx, initial, &cfg, nil)
}

// run seals the initial state and drives the loop. emit is non-nil for
// streaming runs.
func (cg *CompiledGraph) run(ctx Context, initial map[string]any, cfg *runConfig, emit func(Step) bool) (*Result, error) {
	if cfg.runID == "" {
		cfg.runID = ctx.RunID()
	}
	res := &Result{RunID: cfg.runID}

	snap, err := cg.schema.Init(initial)
	if err != nil {
		observability.LogRunError(ctx.Logger(), cfg.runID, err, 0, "")
		return res, err
	}

	return cg.runFrom(ctx, snap, cg.entry, cfg, res, emit)
}

// runFrom executes the loop from a specific node with run-level
// observability. Also used by Resume.
func (cg *CompiledGraph) runFrom(ctx Context, snap Snapshot, start string, cfg *runConfig, res *Result, emit func(Step) bool) (_ *Result, runErr error) {
	startTime := time.Now()
	observability.LogRunStart(ctx.Logger(), cfg.runID)

	var execCtx context.Context = ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		execCtx, runSpan = cfg.spans.StartRunSpan(ctx, "stategraph", cfg.runID)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	final, steps, err := cg.loop(execCtx, ctx, snap, start, cfg, emit)
	res.Final = final
	res.Steps = steps

	duration := time.Since(startTime)
	durationMs := float64(duration.Milliseconds())
	cfg.metrics.RecordRun(ctx, err == nil, duration)

	if err != nil {
		observability.LogRunError(ctx.Logger(), cfg.runID, err, durationMs, failedNode(err))
		return res, err
	}
	observability.LogRunComplete(ctx.Logger(), cfg.runID, durationMs, len(steps))
	return res, nil
}

// loop is the step scheduler. It owns the run's mutable state (current
// node, step counter, history) exclusively; nothing here is shared
// between runs. tracingCtx carries span context; ctx is the engine
// Context.
func (cg *CompiledGraph) loop(tracingCtx context.Context, ctx Context, snap Snapshot, start string, cfg *runConfig, emit func(Step) bool) (Snapshot, []Step, error) {
	current := start
	seq := cfg.sequence
	var steps []Step

	for current != END {
		// The limit counts completed steps: executing one more would
		// exceed it.
		if seq >= cfg.maxSteps {
			return snap, steps, &MaxStepsError{Limit: cfg.maxSteps, NodeID: current}
		}

		// Cooperative cancellation, checked only at step boundaries so
		// an in-flight invocation always completes first.
		select {
		case <-ctx.Done():
			return snap, steps, &CancelledError{NodeID: current, Cause: ctx.Err()}
		default:
		}

		n, ok := cg.getNode(current)
		if !ok {
			// Unreachable if compilation succeeded.
			return snap, steps, &NodeError{NodeID: current, Op: "lookup", Err: fmt.Errorf("node not registered")}
		}

		observability.LogStepStart(ctx.Logger(), current, seq+1)

		stepTracingCtx := tracingCtx
		var stepSpan trace.Span
		if cfg.tracingEnabled {
			stepTracingCtx, stepSpan = cfg.spans.StartStepSpan(tracingCtx, current, seq+1)
		}

		stepStart := time.Now()
		next, step, stepErr := cg.executeStep(ctx, current, n, snap, seq+1, cfg)
		stepDuration := time.Since(stepStart)

		cfg.metrics.RecordStep(stepTracingCtx, current, stepDuration, stepErr)
		if cfg.tracingEnabled {
			if stepErr == nil && step.Label != "" {
				cfg.spans.AddSpanEvent(stepTracingCtx, "route",
					observability.RouteAttributes(step.Label, next, step.Seq)...)
			}
			cfg.spans.EndSpanWithError(stepSpan, stepErr)
		}

		if stepErr != nil {
			observability.LogStepError(ctx.Logger(), current, seq+1, stepErr)
			return snap, steps, stepErr
		}

		snap = step.Snapshot
		seq = step.Seq
		steps = append(steps, step)
		observability.LogStepComplete(ctx.Logger(), current, step.Seq, step.Label,
			float64(stepDuration.Milliseconds()))

		if emit != nil && !emit(step) {
			return snap, steps, &CancelledError{NodeID: next, Cause: ctx.Err()}
		}

		if cfg.checkpointStore != nil {
			if err := cg.saveCheckpoint(ctx, cfg, step, next); err != nil {
				return snap, steps, err
			}
		}

		current = next
	}

	return snap, steps, nil
}

// executeStep invokes one node and resolves its outgoing edge.
func (cg *CompiledGraph) executeStep(ctx Context, id string, n node, snap Snapshot, seq int, cfg *runConfig) (string, Step, error) {
	nodeCtx := withNodeID(ctx, id)
	var cancel context.CancelFunc
	if cfg.nodeTimeout > 0 {
		nodeCtx, cancel = withNodeTimeout(nodeCtx, cfg.nodeTimeout)
		defer cancel()
	}

	if n.kind == routerNode {
		label, err := invoke(nodeCtx, id, cfg, func(c Context) (string, error) {
			return n.router(c, snap)
		})
		if err != nil {
			return "", Step{}, err
		}
		if !containsOption(n.options, label) {
			return "", Step{}, &RouterError{NodeID: id, Label: label}
		}
		// Exhaustiveness was proven at compile time; the lookup cannot miss.
		next := cg.dispatch[id][label]
		return next, Step{Seq: seq, NodeID: id, Label: label, Snapshot: snap}, nil
	}

	update, err := invoke(nodeCtx, id, cfg, func(c Context) (Update, error) {
		return n.worker(c, snap)
	})
	if err != nil {
		return "", Step{}, err
	}

	merged, err := cg.schema.Apply(snap, update)
	if err != nil {
		var iue *InvalidUpdateError
		if errors.As(err, &iue) {
			iue.NodeID = id
		}
		return "", Step{}, err
	}

	return cg.edges[id], Step{Seq: seq, NodeID: id, Update: update, Snapshot: merged}, nil
}

// invoke runs a capability with panic recovery and the optional
// per-node deadline. An overrun abandons the invocation goroutine and
// fails the step; upstream cancellation never interrupts an in-flight
// call.
func invoke[T any](ctx Context, id string, cfg *runConfig, call func(Context) (T, error)) (T, error) {
	var zero T

	run := func() (out T, err error) {
		defer func() {
			if r := recover(); r != nil {
				out = zero
				err = &PanicError{NodeID: id, Value: r, Stack: string(debug.Stack())}
			}
		}()
		return call(ctx)
	}

	if cfg.nodeTimeout <= 0 {
		out, err := run()
		if err != nil {
			return zero, wrapNodeErr(id, err)
		}
		return out, nil
	}

	type outcome struct {
		out T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := run()
		done <- outcome{out, err}
	}()

	timer := time.NewTimer(cfg.nodeTimeout)
	defer timer.Stop()

	select {
	case o := <-done:
		if o.err != nil {
			return zero, wrapNodeErr(id, o.err)
		}
		return o.out, nil
	case <-timer.C:
		return zero, &NodeError{NodeID: id, Op: "execute", Err: context.DeadlineExceeded}
	}
}

// wrapNodeErr attaches node context to a capability failure. Panics
// already carry it.
func wrapNodeErr(id string, err error) error {
	var pe *PanicError
	if errors.As(err, &pe) {
		return err
	}
	return &NodeError{NodeID: id, Op: "execute", Err: err}
}

// containsOption reports whether label is in the declared option set.
func containsOption(options []string, label string) bool {
	for _, opt := range options {
		if opt == label {
			return true
		}
	}
	return false
}

// saveCheckpoint persists the step record. Failures are logged and
// swallowed unless the run was configured with
// WithCheckpointFailureFatal.
func (cg *CompiledGraph) saveCheckpoint(ctx Context, cfg *runConfig, step Step, next string) error {
	snapBytes, err := json.Marshal(step.Snapshot)
	if err != nil {
		return cg.checkpointFailure(ctx, cfg, step.NodeID, "serialize", err)
	}

	cp := checkpoint.New(cfg.runID, step.NodeID, step.Seq, snapBytes, next)
	if step.Label != "" {
		cp = cp.WithLabel(step.Label)
	}
	if step.Update != nil {
		updBytes, err := json.Marshal(step.Update)
		if err != nil {
			return cg.checkpointFailure(ctx, cfg, step.NodeID, "serialize", err)
		}
		cp = cp.WithUpdate(updBytes)
	}

	data, err := cp.Marshal()
	if err != nil {
		return cg.checkpointFailure(ctx, cfg, step.NodeID, "marshal", err)
	}

	if err := cfg.checkpointStore.Save(cfg.runID, step.Seq, data); err != nil {
		return cg.checkpointFailure(ctx, cfg, step.NodeID, "save", err)
	}

	observability.LogCheckpoint(ctx.Logger(), step.NodeID, step.Seq, len(data))
	cfg.metrics.RecordCheckpoint(ctx, step.NodeID, int64(len(data)))
	return nil
}

// checkpointFailure converts a persistence failure into either a fatal
// CheckpointError or a logged warning.
func (cg *CompiledGraph) checkpointFailure(ctx Context, cfg *runConfig, nodeID, op string, err error) error {
	if cfg.checkpointFailureFatal {
		return &CheckpointError{NodeID: nodeID, Op: op, Err: err}
	}
	observability.LogCheckpointError(ctx.Logger(), nodeID, op, err)
	return nil
}

// failedNode extracts the node id a typed run error points at, for
// run-level logging.
func failedNode(err error) string {
	var (
		nodeErr   *NodeError
		routerErr *RouterError
		panicErr  *PanicError
		updateErr *InvalidUpdateError
		maxErr    *MaxStepsError
		cancelErr *CancelledError
		cpErr     *CheckpointError
	)
	switch {
	case errors.As(err, &nodeErr):
		return nodeErr.NodeID
	case errors.As(err, &routerErr):
		return routerErr.NodeID
	case errors.As(err, &panicErr):
		return panicErr.NodeID
	case errors.As(err, &updateErr):
		return updateErr.NodeID
	case errors.As(err, &maxErr):
		return maxErr.NodeID
	case errors.As(err, &cancelErr):
		return cancelErr.NodeID
	case errors.As(err, &cpErr):
		return cpErr.NodeID
	}
	return ""
}
