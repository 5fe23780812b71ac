// Package pioneer implements a client for the Pioneer AI GLiNER inference
// API, used by the enrich stage to pull named entities out of article text.
//
// The API returns entities grouped by label:
//
//	{"result": {"entities": {"company": ["BYD"], "location": ["Mexico"]}}}
//
// The client normalises them into a flat list of {Label, Text} pairs.
package pioneer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultBaseURL = "https://api.pioneer.ai"

const (
	maxRetries     = 3
	retryBaseDelay = 3 * time.Second
	requestTimeout = 60 * time.Second
)

// ErrRejected is returned when the API rejects the input (4xx). Rejection is
// terminal for that text: the caller falls back to empty entities, it never
// retries.
var ErrRejected = fmt.Errorf("pioneer rejected input")

// Entity is a single extracted entity.
type Entity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Client calls the Pioneer inference API.
type Client struct {
	apiKey        string
	modelID       string
	baseURL       string
	httpClient    *http.Client
	retryInterval time.Duration
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

// WithRetryInterval overrides the initial backoff interval. Used by tests.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// NewClient creates a Pioneer client for the given trained model.
func NewClient(apiKey, modelID string, opts ...Option) *Client {
	c := &Client{
		apiKey:        apiKey,
		modelID:       modelID,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: requestTimeout},
		retryInterval: retryBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type inferenceResponse struct {
	Result struct {
		Entities map[string][]string `json:"entities"`
	} `json:"result"`
}

// Extract runs entity extraction over the given text with the given label
// schema. Transient failures (network errors, 5xx) are retried with
// exponential backoff up to a fixed attempt count; 4xx responses return
// ErrRejected immediately.
func (c *Client) Extract(ctx context.Context, text string, labels []string) ([]Entity, error) {
	payload := map[string]any{
		"model_id": c.modelID,
		"task":     "extract_entities",
		"text":     text,
		"schema":   labels,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var entities []Entity
	operation := func() error {
		grouped, err := c.call(ctx, body)
		if err != nil {
			return err
		}
		entities = flatten(grouped)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval

	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries-1), ctx))
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (c *Client) call(ctx context.Context, body []byte) (map[string][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err // transient, retried
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, fmt.Errorf("pioneer %d: %s", resp.StatusCode, snippet)
	case resp.StatusCode >= 400:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, backoff.Permanent(fmt.Errorf("%w: %d: %s", ErrRejected, resp.StatusCode, snippet))
	}

	var parsed inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("pioneer response: %w", err))
	}
	return parsed.Result.Entities, nil
}

// flatten converts Pioneer's grouped entity format into a flat list.
func flatten(grouped map[string][]string) []Entity {
	var flat []Entity
	for label, texts := range grouped {
		for _, text := range texts {
			flat = append(flat, Entity{Label: label, Text: text})
		}
	}
	return flat
}
