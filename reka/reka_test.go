package reka

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

func TestUploadReturnsVideoID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/videos/upload", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "https://youtube.com/watch?v=abc", r.FormValue("video_url"))
		assert.Equal(t, "Quarterly results", r.FormValue("video_name"))
		assert.Equal(t, "true", r.FormValue("index"))

		json.NewEncoder(w).Encode(map[string]string{"video_id": "vid-123"})
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))
	id, err := client.Upload(context.Background(), "https://youtube.com/watch?v=abc", "Quarterly results")
	require.NoError(t, err)
	assert.Equal(t, "vid-123", id)
}

func TestWaitForIndexingPollsUntilIndexed(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/videos/vid-123", r.URL.Path)
		status := "pending"
		if calls.Add(1) >= 3 {
			status = "indexed"
		}
		json.NewEncoder(w).Encode(map[string]string{"indexing_status": status})
	}))
	defer server.Close()

	client := NewClient("secret",
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
		WithIndexTimeout(time.Second))
	require.NoError(t, client.WaitForIndexing(context.Background(), "vid-123"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitForIndexingFailedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"indexing_status": "failed"})
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))
	err := client.WaitForIndexing(context.Background(), "vid-123")
	require.ErrorIs(t, err, ErrIndexingFailed)
}

func TestWaitForIndexingTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"indexing_status": "pending"})
	}))
	defer server.Close()

	client := NewClient("secret",
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
		WithIndexTimeout(5*time.Millisecond))
	err := client.WaitForIndexing(context.Background(), "vid-123")
	require.ErrorIs(t, err, ErrIndexingTimeout)
}

func TestAskReturnsChatResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/qa/chat", r.URL.Path)

		var payload struct {
			VideoID  string `json:"video_id"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "vid-123", payload.VideoID)
		require.Len(t, payload.Messages, 1)
		assert.Equal(t, "user", payload.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]string{"chat_response": "The video covers rate cuts."})
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))
	answer, err := client.Ask(context.Background(), "vid-123", "What does the video cover?")
	require.NoError(t, err)
	assert.Equal(t, "The video covers rate cuts.", answer)
}

func TestDelete(t *testing.T) {
	var deleted atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/v1/videos/vid-123", r.URL.Path)
		deleted.Store(true)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))
	require.NoError(t, client.Delete(context.Background(), "vid-123"))
	assert.True(t, deleted.Load())
}
