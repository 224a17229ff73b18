package bison

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitesync/attribution-engine/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(config.BisonConfig{BaseURL: url, APIKey: "test-key"})
}

func TestFetchThreadsBatch(t *testing.T) {
	var captured struct {
		Threads []ThreadRequest `json:"threads"`
		Max     int             `json:"maxConcurrent"`
	}
	var gotAuth, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"total": 2, "fetched": 1, "failed": 1,
			"errors": [{"threadId":"t2","error":"not found"}],
			"results": [{"id":"t1","mailbox_id":"mb1","emails":[{"id":"scheduled-1","subject":"hi"}]}]
		}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).FetchThreadsBatch(context.Background(), []ThreadRequest{
		{ThreadID: "t1", MailboxID: "mb1"},
		{ThreadID: "t2", MailboxID: "mb1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/threads/batch", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Len(t, captured.Threads, 2)
	// The detail service processes batches sequentially.
	assert.Equal(t, 1, captured.Max)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "t2", result.Errors[0].ThreadID)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "t1", result.Results[0].ID)
	require.Len(t, result.Results[0].Emails, 1)
}

func TestFetchThreadsBatchEmptyInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty batch")
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).FetchThreadsBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &BatchResult{}, result)
}

func TestFetchThreadsBatchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchThreadsBatch(context.Background(), []ThreadRequest{{ThreadID: "t1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestFetchThreadsBatchRetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"total":1,"fetched":1}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).FetchThreadsBatch(context.Background(), []ThreadRequest{{ThreadID: "t1", MailboxID: "mb1"}})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, result.Fetched)
}

func TestFetchThreadsBatchMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total":`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchThreadsBatch(context.Background(), []ThreadRequest{{ThreadID: "t1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing batch response")
}
