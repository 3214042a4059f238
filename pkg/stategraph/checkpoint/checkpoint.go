package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to the checkpoint structure.
const Version = 1

// Checkpoint is the persisted record of one completed step. It carries
// everything needed to resume the run from the step after it.
type Checkpoint struct {
	// Metadata
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	NodeID    string    `json:"node_id"`
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`

	// Step outcome. Label is set for router steps, Update for worker
	// steps; Snapshot is the merged state after the step.
	Label    string          `json:"label,omitempty"`
	Update   json.RawMessage `json:"update,omitempty"`
	Snapshot json.RawMessage `json:"snapshot"`

	// NextNode is the node resolved to run after this step, or the
	// terminal sentinel when the run completed here.
	NextNode string `json:"next_node"`
}

// Marshal serializes a checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// New creates a checkpoint for one completed step.
// Snapshot must already be JSON-serialized.
func New(runID, nodeID string, seq int, snapshot []byte, nextNode string) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		RunID:     runID,
		NodeID:    nodeID,
		Seq:       seq,
		Timestamp: time.Now().UTC(),
		Snapshot:  snapshot,
		NextNode:  nextNode,
	}
}

// WithLabel records the router's chosen label.
func (c *Checkpoint) WithLabel(label string) *Checkpoint {
	c.Label = label
	return c
}

// WithUpdate records the worker's JSON-serialized update.
func (c *Checkpoint) WithUpdate(update []byte) *Checkpoint {
	c.Update = update
	return c
}
