// Package bison is a client for the sending platform's thread-detail
// batch endpoint, the engine's only outbound network dependency.
package bison

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/unitesync/attribution-engine/internal/config"
	"github.com/unitesync/attribution-engine/internal/domain"
	"github.com/unitesync/attribution-engine/internal/pkg/httpretry"
)

// Client is a thread-detail API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new thread-detail API client.
func NewClient(cfg config.BisonConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// ThreadRequest identifies one thread to fetch together with the
// mailbox that owns it.
type ThreadRequest struct {
	ThreadID  string `json:"threadId"`
	MailboxID string `json:"mailboxId"`
}

// ThreadError is a per-thread failure within an otherwise successful
// batch.
type ThreadError struct {
	ThreadID string `json:"threadId"`
	Error    string `json:"error"`
}

// BatchResult is the thread-detail batch response.
type BatchResult struct {
	Total   int                   `json:"total"`
	Fetched int                   `json:"fetched"`
	Failed  int                   `json:"failed"`
	Errors  []ThreadError         `json:"errors"`
	Results []domain.ThreadDetail `json:"results"`
}

type batchRequest struct {
	Threads       []ThreadRequest `json:"threads"`
	MaxConcurrent int             `json:"maxConcurrent"`
}

// FetchThreadsBatch fetches full message bodies for the given threads
// in one request. maxConcurrent is pinned to 1: the detail service is
// easily overloaded and processes the batch sequentially server-side.
// Per-thread failures are reported in the result, not as an error; a
// non-2xx response or transport failure is a stage-level error for the
// caller to degrade on.
func (c *Client) FetchThreadsBatch(ctx context.Context, threads []ThreadRequest) (*BatchResult, error) {
	if len(threads) == 0 {
		return &BatchResult{}, nil
	}

	payload, err := json.Marshal(batchRequest{Threads: threads, MaxConcurrent: 1})
	if err != nil {
		return nil, fmt.Errorf("encoding batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/threads/batch", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("thread batch API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result BatchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing batch response: %w", err)
	}
	return &result, nil
}
