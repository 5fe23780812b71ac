package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSchemaUpdate(t *testing.T) {
	s := NewMapSchema()
	s.RegisterReducer("name", OverwriteReducer)
	s.RegisterReducer("items", AppendReducer)

	state := s.Init()

	state, err := s.Update(state, map[string]any{"name": "first", "items": []string{"a"}})
	require.NoError(t, err)

	state, err = s.Update(state, map[string]any{"name": "second", "items": []string{"b", "c"}})
	require.NoError(t, err)

	assert.Equal(t, "second", state["name"])
	assert.Equal(t, []string{"a", "b", "c"}, state["items"])
}

func TestMapSchemaRejectsUnknownKey(t *testing.T) {
	s := NewMapSchema()
	s.RegisterReducer("known", OverwriteReducer)

	_, err := s.Update(s.Init(), map[string]any{"mystery": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown state key")
}

func TestMapSchemaDoesNotMutateCurrent(t *testing.T) {
	s := NewMapSchema()
	s.RegisterReducer("items", AppendReducer)

	current := map[string]any{"items": []int{1, 2}}
	next, err := s.Update(current, map[string]any{"items": []int{3}})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, current["items"])
	assert.Equal(t, []int{1, 2, 3}, next["items"])
}

func TestOverrideBypassesAppendReducer(t *testing.T) {
	s := NewMapSchema()
	s.RegisterReducer("items", AppendReducer)

	state := map[string]any{"items": []string{"a", "b"}}

	// A node rewriting the accumulated list wholesale wraps it in Replace.
	next, err := s.Update(state, map[string]any{"items": Replace([]string{"a2", "b2"})})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "b2"}, next["items"])

	// Plain values still go through the reducer.
	next, err = s.Update(next, map[string]any{"items": []string{"c"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "b2", "c"}, next["items"])
}

func TestAppendReducerSingleElement(t *testing.T) {
	merged, err := AppendReducer(nil, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, merged)

	merged, err = AppendReducer(merged, "y")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, merged)
}

func TestAppendReducerSharesNoBacking(t *testing.T) {
	base := make([]string, 1, 8)
	base[0] = "a"

	left, err := AppendReducer(base, []string{"b"})
	require.NoError(t, err)
	right, err := AppendReducer(base, []string{"c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, left)
	assert.Equal(t, []string{"a", "c"}, right)
}
