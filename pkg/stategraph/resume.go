package stategraph

import (
	"encoding/json"
	"fmt"

	"github.com/stategraph-io/stategraph/pkg/stategraph/checkpoint"
)

// Resume continues a checkpointed run from its latest step. It loads
// the newest checkpoint for runID, restores the snapshot against the
// graph's schema, and continues at the recorded next node. The step
// counter resumes where the checkpointed run left off, so WithMaxSteps
// bounds the combined run.
//
// The returned Result holds only the steps executed after resumption;
// earlier steps live in the store.
//
// Example:
//
//	// A previous run crashed after node B; continue from node C with
//	// B's merged snapshot.
//	result, err := compiled.Resume(ctx, store, "run-123")
func (cg *CompiledGraph) Resume(ctx Context, store checkpoint.Store, runID string, opts ...RunOption) (*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	infos, err := store.List(runID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCheckpoints, runID)
	}

	latest := infos[len(infos)-1]
	return cg.resumeAt(ctx, store, runID, latest.Seq, opts)
}

// ResumeFrom continues a checkpointed run from a specific step
// sequence rather than the latest. Steps after seq are re-executed,
// overwriting their checkpoints.
func (cg *CompiledGraph) ResumeFrom(ctx Context, store checkpoint.Store, runID string, seq int, opts ...RunOption) (*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return cg.resumeAt(ctx, store, runID, seq, opts)
}

// resumeAt restores the checkpoint at seq and continues execution.
func (cg *CompiledGraph) resumeAt(ctx Context, store checkpoint.Store, runID string, seq int, opts []RunOption) (*Result, error) {
	data, err := store.Load(runID, seq)
	if err != nil {
		if err == checkpoint.ErrNotFound {
			return nil, fmt.Errorf("%w: %s at seq %d", ErrNoCheckpoints, runID, seq)
		}
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRestoreState, err)
	}
	if cp.Version != checkpoint.Version {
		return nil, fmt.Errorf("%w: got %d, expected %d",
			ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}

	var values map[string]any
	if err := json.Unmarshal(cp.Snapshot, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRestoreState, err)
	}
	snap, err := cg.schema.Init(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRestoreState, err)
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.runID = runID
	cfg.checkpointStore = store
	cfg.sequence = cp.Seq

	res := &Result{RunID: runID}

	// The checkpointed step already reached END; nothing to re-execute.
	if cp.NextNode == END {
		res.Final = snap
		return res, nil
	}
	if !cg.HasNode(cp.NextNode) {
		return nil, fmt.Errorf("%w: checkpoint next node %q not in graph", ErrRestoreState, cp.NextNode)
	}

	return cg.runFrom(ctx, snap, cp.NextNode, &cfg, res, nil)
}
