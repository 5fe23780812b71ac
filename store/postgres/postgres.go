// Package postgres provides a checkpoint store backed by PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newsloop/newsloop/graph"
)

// DBPool is the subset of pgxpool.Pool the store uses. Tests substitute
// a pgxmock pool.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// CheckpointStore implements graph.CheckpointStore using PostgreSQL.
type CheckpointStore struct {
	pool      DBPool
	tableName string
}

// Options configures the Postgres connection.
type Options struct {
	ConnString string
	TableName  string // Default "checkpoints"
}

// NewCheckpointStore creates a connection pool and the store.
func NewCheckpointStore(ctx context.Context, opts Options) (*CheckpointStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "checkpoints"
	}
	return &CheckpointStore{pool: pool, tableName: tableName}, nil
}

// NewCheckpointStoreWithPool wraps an existing pool. Useful for tests.
func NewCheckpointStoreWithPool(pool DBPool, tableName string) *CheckpointStore {
	if tableName == "" {
		tableName = "checkpoints"
	}
	return &CheckpointStore{pool: pool, tableName: tableName}
}

// InitSchema creates the checkpoint table if it does not exist.
func (s *CheckpointStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			node_name TEXT NOT NULL,
			step INTEGER NOT NULL,
			state JSONB NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_run_id ON %s (run_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *CheckpointStore) Close() error {
	s.pool.Close()
	return nil
}

// Save stores a checkpoint.
func (s *CheckpointStore) Save(ctx context.Context, checkpoint *graph.Checkpoint) error {
	stateJSON, err := json.Marshal(checkpoint.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, run_id, node_name, step, state, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			node_name = EXCLUDED.node_name,
			step = EXCLUDED.step,
			state = EXCLUDED.state,
			timestamp = EXCLUDED.timestamp
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		checkpoint.ID,
		checkpoint.RunID,
		checkpoint.NodeName,
		checkpoint.Step,
		stateJSON,
		checkpoint.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *CheckpointStore) Load(ctx context.Context, checkpointID string) (*graph.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, node_name, step, state, timestamp
		FROM %s WHERE id = $1
	`, s.tableName)

	row := s.pool.QueryRow(ctx, query, checkpointID)

	var cp graph.Checkpoint
	var stateJSON []byte
	err := row.Scan(&cp.ID, &cp.RunID, &cp.NodeName, &cp.Step, &stateJSON, &cp.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("checkpoint not found: %s", checkpointID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if err := json.Unmarshal(stateJSON, &cp.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &cp, nil
}

// List returns all checkpoints for a run, ordered by step.
func (s *CheckpointStore) List(ctx context.Context, runID string) ([]*graph.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, node_name, step, state, timestamp
		FROM %s WHERE run_id = $1 ORDER BY step
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []*graph.Checkpoint
	for rows.Next() {
		var cp graph.Checkpoint
		var stateJSON []byte
		if err := rows.Scan(&cp.ID, &cp.RunID, &cp.NodeName, &cp.Step, &stateJSON, &cp.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		if err := json.Unmarshal(stateJSON, &cp.State); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state: %w", err)
		}
		out = append(out, &cp)
	}
	return out, rows.Err()
}

// Delete removes a checkpoint.
func (s *CheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, checkpointID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Clear removes all checkpoints for a run.
func (s *CheckpointStore) Clear(ctx context.Context, runID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE run_id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to clear run %s: %w", runID, err)
	}
	return nil
}
