// Package memory provides an in-process checkpoint store, the default
// when no persistent backend is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/newsloop/newsloop/graph"
)

// CheckpointStore keeps checkpoints in a map guarded by a mutex.
type CheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*graph.Checkpoint
}

// NewCheckpointStore creates an empty in-memory store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		checkpoints: make(map[string]*graph.Checkpoint),
	}
}

// Save stores a checkpoint, replacing any prior one with the same ID.
func (s *CheckpointStore) Save(ctx context.Context, checkpoint *graph.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *checkpoint
	s.checkpoints[checkpoint.ID] = &cp
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *CheckpointStore) Load(ctx context.Context, checkpointID string) (*graph.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return nil, fmt.Errorf("checkpoint not found: %s", checkpointID)
	}
	out := *cp
	return &out, nil
}

// List returns all checkpoints for a run, ordered by step.
func (s *CheckpointStore) List(ctx context.Context, runID string) ([]*graph.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*graph.Checkpoint
	for _, cp := range s.checkpoints {
		if cp.RunID == runID {
			copied := *cp
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out, nil
}

// Delete removes a checkpoint.
func (s *CheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, checkpointID)
	return nil
}

// Clear removes all checkpoints for a run.
func (s *CheckpointStore) Clear(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cp := range s.checkpoints {
		if cp.RunID == runID {
			delete(s.checkpoints, id)
		}
	}
	return nil
}
