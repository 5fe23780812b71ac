package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsloop/newsloop/graph"
)

func TestSave(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewCheckpointStoreWithPool(mock, "checkpoints")

	cp := &graph.Checkpoint{
		ID:        "cp-1",
		RunID:     "run-1",
		NodeName:  "search",
		Step:      3,
		State:     map[string]any{"objective": "X"},
		Timestamp: time.Now(),
	}
	stateJSON, _ := json.Marshal(cp.State)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checkpoints")).
		WithArgs(cp.ID, cp.RunID, cp.NodeName, cp.Step, stateJSON, cp.Timestamp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), cp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewCheckpointStoreWithPool(mock, "checkpoints")

	timestamp := time.Now()
	stateJSON, _ := json.Marshal(map[string]any{"objective": "X"})

	rows := pgxmock.NewRows([]string{"id", "run_id", "node_name", "step", "state", "timestamp"}).
		AddRow("cp-1", "run-1", "search", 3, stateJSON, timestamp)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, run_id, node_name, step, state, timestamp")).
		WithArgs("cp-1").
		WillReturnRows(rows)

	loaded, err := store.Load(context.Background(), "cp-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, 3, loaded.Step)
	assert.Equal(t, "X", loaded.State["objective"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewCheckpointStoreWithPool(mock, "checkpoints")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, run_id, node_name, step, state, timestamp")).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "run_id", "node_name", "step", "state", "timestamp"}))

	_, err = store.Load(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewCheckpointStoreWithPool(mock, "checkpoints")

	timestamp := time.Now()
	stateJSON, _ := json.Marshal(map[string]any{})

	rows := pgxmock.NewRows([]string{"id", "run_id", "node_name", "step", "state", "timestamp"}).
		AddRow("cp-1", "run-1", "explore", 1, stateJSON, timestamp).
		AddRow("cp-2", "run-1", "plan", 2, stateJSON, timestamp)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY step")).
		WithArgs("run-1").
		WillReturnRows(rows)

	list, err := store.List(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "explore", list[0].NodeName)
	assert.Equal(t, "plan", list[1].NodeName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAndClear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewCheckpointStoreWithPool(mock, "checkpoints")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checkpoints WHERE id = $1")).
		WithArgs("cp-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, store.Delete(context.Background(), "cp-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checkpoints WHERE run_id = $1")).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	require.NoError(t, store.Clear(context.Background(), "run-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
