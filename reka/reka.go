// Package reka implements a client for the Reka Vision video understanding
// API: upload-and-index, poll until indexed, question answering, and cleanup.
package reka

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://vision-agent.api.reka.ai"

const (
	defaultIndexTimeout = 300 * time.Second
	defaultPollInterval = 10 * time.Second
)

// Indexing statuses reported by the API.
const (
	statusIndexed = "indexed"
	statusFailed  = "failed"
)

// ErrIndexingFailed is returned when the service reports that indexing a
// video failed.
var ErrIndexingFailed = fmt.Errorf("video indexing failed")

// ErrIndexingTimeout is returned when a video is still not indexed after the
// configured timeout.
var ErrIndexingTimeout = fmt.Errorf("video indexing timed out")

// Client calls the Reka Vision API.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	indexTimeout time.Duration
	pollInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithIndexTimeout overrides how long to wait for indexing to complete.
func WithIndexTimeout(d time.Duration) Option {
	return func(c *Client) { c.indexTimeout = d }
}

// WithPollInterval overrides the indexing poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// NewClient creates a Reka Vision client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		indexTimeout: defaultIndexTimeout,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload submits a video URL for indexing and returns the video ID.
func (c *Client) Upload(ctx context.Context, videoURL, name string) (string, error) {
	form := url.Values{}
	form.Set("video_url", videoURL)
	form.Set("video_name", name)
	form.Set("index", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/videos/upload", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var parsed struct {
		VideoID string `json:"video_id"`
	}
	if err := c.do(req, &parsed); err != nil {
		return "", fmt.Errorf("reka upload: %w", err)
	}
	if parsed.VideoID == "" {
		return "", fmt.Errorf("reka upload: response missing video_id")
	}
	return parsed.VideoID, nil
}

// WaitForIndexing polls the video status until it is indexed, indexing fails,
// or the index timeout expires.
func (c *Client) WaitForIndexing(ctx context.Context, videoID string) error {
	deadline := time.Now().Add(c.indexTimeout)

	for {
		status, err := c.indexingStatus(ctx, videoID)
		if err != nil {
			return err
		}
		switch status {
		case statusIndexed:
			return nil
		case statusFailed:
			return fmt.Errorf("%w: video %s", ErrIndexingFailed, videoID)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: video %s after %s", ErrIndexingTimeout, videoID, c.indexTimeout)
		}

		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) indexingStatus(ctx context.Context, videoID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/videos/"+videoID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	var parsed struct {
		IndexingStatus string `json:"indexing_status"`
	}
	if err := c.do(req, &parsed); err != nil {
		return "", fmt.Errorf("reka status: %w", err)
	}
	if parsed.IndexingStatus == "" {
		return "pending", nil
	}
	return parsed.IndexingStatus, nil
}

// Ask runs a question-answering call scoped to an indexed video.
func (c *Client) Ask(ctx context.Context, videoID, question string) (string, error) {
	payload := map[string]any{
		"video_id": videoID,
		"messages": []map[string]string{
			{"role": "user", "content": question},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/qa/chat", strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var parsed struct {
		ChatResponse string `json:"chat_response"`
	}
	if err := c.do(req, &parsed); err != nil {
		return "", fmt.Errorf("reka qa: %w", err)
	}
	return parsed.ChatResponse, nil
}

// Delete releases an indexed video. It is called after analysis regardless of
// success or failure.
func (c *Client) Delete(ctx context.Context, videoID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/videos/"+videoID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("reka delete: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
