package stategraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph building and compilation. All of them wrap
// ErrConfiguration, so errors.Is(err, ErrConfiguration) matches any
// defect reported by Compile().
var (
	// ErrConfiguration is the umbrella for every build-time defect.
	ErrConfiguration = errors.New("invalid graph configuration")

	// ErrNoEntryPoint indicates SetEntry() was not called before Compile().
	ErrNoEntryPoint = fmt.Errorf("%w: entry point not set", ErrConfiguration)

	// ErrEntryNotFound indicates the entry point references a non-existent node.
	ErrEntryNotFound = fmt.Errorf("%w: entry point node not found", ErrConfiguration)

	// ErrNodeNotFound indicates an edge references a non-existent node.
	ErrNodeNotFound = fmt.Errorf("%w: node not found", ErrConfiguration)

	// ErrDuplicateNode indicates the same node id was registered twice.
	ErrDuplicateNode = fmt.Errorf("%w: duplicate node id", ErrConfiguration)

	// ErrInvalidNode indicates a node was registered with an empty or
	// reserved id, a nil function, or an empty router option set.
	ErrInvalidNode = fmt.Errorf("%w: invalid node registration", ErrConfiguration)

	// ErrMissingEdge indicates a non-terminal node has no outgoing edge.
	ErrMissingEdge = fmt.Errorf("%w: node has no outgoing edge", ErrConfiguration)

	// ErrDuplicateEdge indicates a node was given more than one outgoing edge.
	ErrDuplicateEdge = fmt.Errorf("%w: node already has an outgoing edge", ErrConfiguration)

	// ErrEdgeKindMismatch indicates a static edge on a router or a
	// conditional edge on a worker.
	ErrEdgeKindMismatch = fmt.Errorf("%w: edge kind does not match node kind", ErrConfiguration)

	// ErrDispatchMismatch indicates a conditional edge's dispatch map
	// does not exactly cover its router's declared option set.
	ErrDispatchMismatch = fmt.Errorf("%w: dispatch map does not match router options", ErrConfiguration)
)

// Sentinel errors for execution.
var (
	// ErrNilContext indicates Run() or Stream() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrInvalidUpdate indicates a state update touched an undeclared
	// field or violated its reducer policy.
	ErrInvalidUpdate = errors.New("invalid state update")

	// ErrNodeFailure indicates a worker or router invocation failed.
	ErrNodeFailure = errors.New("node invocation failed")

	// ErrUndeclaredLabel indicates a router returned a label outside its
	// declared option set.
	ErrUndeclaredLabel = errors.New("router returned undeclared label")

	// ErrMaxSteps indicates the run exceeded the configured step limit
	// before reaching END.
	ErrMaxSteps = errors.New("exceeded maximum steps")

	// ErrCancelled indicates the run was cancelled between steps.
	ErrCancelled = errors.New("run cancelled")
)

// Sentinel errors for checkpointing and resume.
var (
	// ErrNoCheckpoints indicates no checkpoints exist for the run.
	ErrNoCheckpoints = errors.New("no checkpoints found for run")

	// ErrCheckpointVersionMismatch indicates the checkpoint format version
	// is incompatible.
	ErrCheckpointVersionMismatch = errors.New("checkpoint version mismatch")

	// ErrRestoreState indicates a persisted snapshot could not be
	// restored against the graph's schema.
	ErrRestoreState = errors.New("failed to restore checkpointed state")
)

// InvalidUpdateError reports an update that referenced an undeclared
// field or handed a non-sequence value to an append field. It aborts
// the run; prior step history is preserved on the partial Result.
type InvalidUpdateError struct {
	// NodeID is the node whose update was rejected. Empty when the
	// initial state itself was invalid.
	NodeID string
	// Field is the offending field name.
	Field string
	// Reason describes the violation.
	Reason string
}

// Error implements the error interface.
func (e *InvalidUpdateError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("invalid update: field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid update from node %s: field %q: %s", e.NodeID, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidUpdate for errors.Is support.
func (e *InvalidUpdateError) Unwrap() error {
	return ErrInvalidUpdate
}

// NodeError wraps a capability failure with node context.
type NodeError struct {
	// NodeID is the identifier of the node that failed.
	NodeID string
	// Op is the operation that failed (e.g., "execute", "route").
	Op string
	// Err is the underlying error from the capability.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

// Unwrap exposes both ErrNodeFailure and the underlying error for
// errors.Is/As support.
func (e *NodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNodeFailure}
	}
	return []error{ErrNodeFailure, e.Err}
}

// RouterError reports a router that returned a label outside its
// declared option set. This is a contract violation by the decision
// capability, surfaced as a node failure.
type RouterError struct {
	// NodeID is the router node.
	NodeID string
	// Label is the undeclared label the router returned.
	Label string
}

// Error implements the error interface.
func (e *RouterError) Error() string {
	return fmt.Sprintf("router %s returned %q: not in declared option set", e.NodeID, e.Label)
}

// Unwrap exposes ErrNodeFailure and ErrUndeclaredLabel.
func (e *RouterError) Unwrap() []error {
	return []error{ErrNodeFailure, ErrUndeclaredLabel}
}

// PanicError captures a panic raised inside a worker or router.
type PanicError struct {
	// NodeID is the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// Unwrap returns ErrNodeFailure for errors.Is support.
func (e *PanicError) Unwrap() error {
	return ErrNodeFailure
}

// MaxStepsError reports a run that hit the step limit before reaching END.
type MaxStepsError struct {
	// Limit is the configured maximum number of steps.
	Limit int
	// NodeID is the node that would have executed next.
	NodeID string
}

// Error implements the error interface.
func (e *MaxStepsError) Error() string {
	return fmt.Sprintf("exceeded maximum steps (%d) at node %s", e.Limit, e.NodeID)
}

// Unwrap returns ErrMaxSteps for errors.Is support.
func (e *MaxStepsError) Unwrap() error {
	return ErrMaxSteps
}

// CancelledError reports cooperative cancellation between steps. The
// partial Result carries every step completed before the cancellation
// took effect.
type CancelledError struct {
	// NodeID is the node that would have executed next.
	NodeID string
	// Cause is the underlying cancellation cause, usually
	// context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	return fmt.Sprintf("cancelled before node %s: %v", e.NodeID, e.Cause)
}

// Unwrap exposes ErrCancelled and the cause.
func (e *CancelledError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrCancelled}
	}
	return []error{ErrCancelled, e.Cause}
}

// CheckpointError wraps errors from checkpoint persistence.
type CheckpointError struct {
	// NodeID is the node whose step failed to checkpoint.
	NodeID string
	// Op is the operation that failed ("serialize", "marshal", "save").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s at node %s: %v", e.Op, e.NodeID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CheckpointError) Unwrap() error {
	return e.Err
}
