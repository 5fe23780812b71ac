package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Checkpoint is a snapshot of the canonical state taken after a node (or a
// fan-out/fan-in step) completed.
type Checkpoint struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	NodeName  string         `json:"node_name"`
	Step      int            `json:"step"`
	State     map[string]any `json:"state"`
	Timestamp time.Time      `json:"timestamp"`
}

// CheckpointStore persists checkpoints. Implementations live under store/.
type CheckpointStore interface {
	// Save stores a checkpoint.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID.
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns all checkpoints for a run, ordered by step.
	List(ctx context.Context, runID string) ([]*Checkpoint, error)

	// Delete removes a checkpoint.
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints for a run.
	Clear(ctx context.Context, runID string) error
}

// NewCheckpointID generates a unique checkpoint identifier.
func NewCheckpointID() string {
	return fmt.Sprintf("checkpoint_%s", uuid.New().String())
}

// NewRunID generates a unique run identifier.
func NewRunID() string {
	return fmt.Sprintf("run_%s", uuid.New().String())
}
