package pioneer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLabels = []string{"PERSON", "ORGANIZATION", "LOCATION"}

func TestExtractFlattensGroupedEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/inference", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("X-API-Key"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "model-1", payload["model_id"])
		assert.Equal(t, "extract_entities", payload["task"])

		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"entities": map[string][]string{
					"ORGANIZATION": {"BYD"},
					"LOCATION":     {"Mexico", "Monterrey"},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("secret", "model-1", WithBaseURL(srv.URL))
	entities, err := c.Extract(context.Background(), "BYD expands in Mexico", testLabels)
	require.NoError(t, err)
	assert.Len(t, entities, 3)

	labels := map[string]int{}
	for _, e := range entities {
		labels[e.Label]++
	}
	assert.Equal(t, map[string]int{"ORGANIZATION": 1, "LOCATION": 2}, labels)
}

func TestExtractRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"entities": map[string][]string{"PERSON": {"Ana"}}},
		})
	}))
	defer srv.Close()

	c := NewClient("secret", "model-1", WithBaseURL(srv.URL), WithRetryInterval(time.Millisecond))
	entities, err := c.Extract(context.Background(), "text", testLabels)
	require.NoError(t, err)
	assert.Equal(t, []Entity{{Label: "PERSON", Text: "Ana"}}, entities)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExtractRejectedInputIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "blocked by WAF", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("secret", "model-1", WithBaseURL(srv.URL))
	_, err := c.Extract(context.Background(), "![img](x)", testLabels)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, int32(1), calls.Load())
}
