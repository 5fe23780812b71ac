// Package tavily implements a client for the Tavily search and extraction
// API, used by the explore, search, extract, and video-search stages.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.tavily.com"

// Search depths supported by the API.
const (
	DepthBasic    = "basic"
	DepthAdvanced = "advanced"
)

// TopicNews restricts a search to news results.
const TopicNews = "news"

// Client calls the Tavily HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
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

// NewClient creates a Tavily client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchRequest describes a search call.
type SearchRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	Topic          string   `json:"topic,omitempty"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

// Result is a single search hit.
type Result struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	PublishedDate string `json:"published_date"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// ExtractResult is the full content extracted for one URL.
type ExtractResult struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

type failedResult struct {
	URL string `json:"url"`
}

// ExtractResponse holds per-URL extraction results plus the URLs the service
// could not process.
type ExtractResponse struct {
	Results    []ExtractResult
	FailedURLs []string
}

// Search performs a search call.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Result, error) {
	var resp searchResponse
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	return resp.Results, nil
}

// Extract fetches full content for a batch of URLs. URLs the service rejects
// come back in FailedURLs rather than as an error.
func (c *Client) Extract(ctx context.Context, urls []string) (*ExtractResponse, error) {
	body := struct {
		URLs []string `json:"urls"`
	}{URLs: urls}

	var raw struct {
		Results       []ExtractResult `json:"results"`
		FailedResults []failedResult  `json:"failed_results"`
	}
	if err := c.post(ctx, "/extract", body, &raw); err != nil {
		return nil, fmt.Errorf("tavily extract: %w", err)
	}

	resp := &ExtractResponse{Results: raw.Results}
	for _, f := range raw.FailedResults {
		resp.FailedURLs = append(resp.FailedURLs, f.URL)
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
