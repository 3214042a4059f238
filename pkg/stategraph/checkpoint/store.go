// Package checkpoint provides persistent per-step checkpoint storage
// for crash recovery and resumable runs.
package checkpoint

import (
	"errors"
	"time"
)

// Store persists step checkpoints. Runs revisit nodes freely, so
// records are keyed by (runID, seq) rather than by node.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores the checkpoint for one step.
	// Overwrites if a checkpoint for (runID, seq) already exists.
	Save(runID string, seq int, data []byte) error

	// Load retrieves the checkpoint for one step.
	// Returns ErrNotFound if it doesn't exist.
	Load(runID string, seq int) ([]byte, error)

	// List returns metadata for all checkpoints of a run, ordered by
	// sequence. Returns an empty slice (not an error) if the run has
	// no checkpoints.
	List(runID string) ([]Info, error)

	// Delete removes a specific checkpoint.
	// Returns nil if the checkpoint doesn't exist.
	Delete(runID string, seq int) error

	// DeleteRun removes all checkpoints for a run.
	// Returns nil if the run has no checkpoints.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides checkpoint metadata without loading full state.
type Info struct {
	RunID     string
	Seq       int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a checkpoint doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
