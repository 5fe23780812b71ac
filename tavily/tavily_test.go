package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "industrial parks Monterrey", req.Query)
		assert.Equal(t, DepthAdvanced, req.SearchDepth)
		assert.Equal(t, 5, req.MaxResults)
		assert.Equal(t, "2026-02-01", req.StartDate)

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"url": "https://a.example/1", "title": "One", "content": "body", "published_date": "2026-02-03"},
				{"url": "https://a.example/2", "title": "Two", "content": "body2"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), SearchRequest{
		Query:       "industrial parks Monterrey",
		SearchDepth: DepthAdvanced,
		Topic:       TopicNews,
		StartDate:   "2026-02-01",
		EndDate:     "2026-02-28",
		MaxResults:  5,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "One", results[0].Title)
	assert.Equal(t, "2026-02-03", results[0].PublishedDate)
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestExtractReportsFailedURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/extract", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"url": "https://a.example/ok", "raw_content": "full text"},
			},
			"failed_results": []map[string]any{
				{"url": "https://a.example/broken"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.Extract(context.Background(), []string{"https://a.example/ok", "https://a.example/broken"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "full text", resp.Results[0].RawContent)
	assert.Equal(t, []string{"https://a.example/broken"}, resp.FailedURLs)
}
