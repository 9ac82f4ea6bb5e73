package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/storage"
)

// collector is a scriptable stand-in for the external endpoint: it
// answers 500 for any payload containing a marker string.
func collector(t *testing.T, failMarker string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if failMarker != "" && strings.Contains(string(body), failMarker) {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func queued(t *testing.T, kv storage.KV) []model.RetryEntry {
	t.Helper()
	raw, err := kv.ListAll(context.Background(), retryQueueKey)
	require.NoError(t, err)
	out := make([]model.RetryEntry, 0, len(raw))
	for _, b := range raw {
		var e model.RetryEntry
		require.NoError(t, json.Unmarshal(b, &e))
		out = append(out, e)
	}
	return out
}

func TestSubmitSuccessDoesNotQueue(t *testing.T) {
	srv := collector(t, "")
	kv := storage.NewMemoryKV()
	s := NewService(srv.URL, kv)

	require.NoError(t, s.Submit(context.Background(), json.RawMessage(`{"rating":1}`)))
	assert.Empty(t, queued(t, kv))
}

func TestSubmitTransportFailureQueuesAndErrors(t *testing.T) {
	// A server that is already closed produces a connection refusal,
	// the transport failure class.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	kv := storage.NewMemoryKV()
	s := NewService(url, kv)

	err := s.Submit(context.Background(), json.RawMessage(`{"rating":1,"comment":"cold fries"}`))
	require.Error(t, err)
	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr), "transport failures are not HTTPErrors")

	entries := queued(t, kv)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.JSONEq(t, `{"rating":1,"comment":"cold fries"}`, string(entries[0].Payload))
}

func TestSubmitHTTPRejectionDoesNotQueue(t *testing.T) {
	srv := collector(t, "reject-me")
	kv := storage.NewMemoryKV()
	s := NewService(srv.URL, kv)

	err := s.Submit(context.Background(), json.RawMessage(`{"comment":"reject-me"}`))
	require.Error(t, err)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Empty(t, queued(t, kv), "application rejections are not retryable")
}

func TestProcessRetryQueuePartialSuccess(t *testing.T) {
	srv := collector(t, "poison")
	kv := storage.NewMemoryKV()
	s := NewService(srv.URL, kv)
	ctx := context.Background()

	s.Enqueue(ctx, json.RawMessage(`{"n":1}`))
	s.Enqueue(ctx, json.RawMessage(`{"n":2,"marker":"poison"}`))
	s.Enqueue(ctx, json.RawMessage(`{"n":3}`))

	remaining, err := s.ProcessRetryQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	entries := queued(t, kv)
	require.Len(t, entries, 1)
	assert.Contains(t, string(entries[0].Payload), "poison")
}

func TestProcessRetryQueueFullSuccessClears(t *testing.T) {
	srv := collector(t, "")
	kv := storage.NewMemoryKV()
	s := NewService(srv.URL, kv)
	ctx := context.Background()

	s.Enqueue(ctx, json.RawMessage(`{"n":1}`))
	s.Enqueue(ctx, json.RawMessage(`{"n":2}`))

	remaining, err := s.ProcessRetryQueue(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.Empty(t, queued(t, kv))

	n, err := s.QueueLen(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessRetryQueueEmptyIsNoop(t *testing.T) {
	srv := collector(t, "")
	s := NewService(srv.URL, storage.NewMemoryKV())
	remaining, err := s.ProcessRetryQueue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestProcessRetryQueueDropsCorruptEntries(t *testing.T) {
	srv := collector(t, "")
	kv := storage.NewMemoryKV()
	s := NewService(srv.URL, kv)
	ctx := context.Background()

	require.NoError(t, kv.ListPush(ctx, retryQueueKey, []byte("not json")))
	s.Enqueue(ctx, json.RawMessage(`{"n":1}`))

	remaining, err := s.ProcessRetryQueue(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.Empty(t, queued(t, kv))
}

func TestFlushKeepsEntryEnqueuedMidFlight(t *testing.T) {
	// The collector blocks the in-flight replay until the test has
	// enqueued a fresh entry; that entry must survive the flush.
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	kv := storage.NewMemoryKV()
	s := NewService(srv.URL, kv)
	ctx := context.Background()
	s.Enqueue(ctx, json.RawMessage(`{"n":1}`))

	done := make(chan int, 1)
	go func() {
		remaining, err := s.ProcessRetryQueue(ctx)
		assert.NoError(t, err)
		done <- remaining
	}()

	<-started
	s.Enqueue(ctx, json.RawMessage(`{"n":2}`))
	close(release)

	assert.Zero(t, <-done, "the replayed entry went through")

	entries := queued(t, kv)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"n":2}`, string(entries[0].Payload))
}

func TestRetryReplaysConcurrently(t *testing.T) {
	// All three replays must be in flight at once: the handler blocks
	// until it has seen every request.
	var mu sync.Mutex
	seen := 0
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen++
		if seen == 3 {
			close(release)
		}
		mu.Unlock()
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	kv := storage.NewMemoryKV()
	s := NewService(srv.URL, kv)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.Enqueue(ctx, json.RawMessage(`{"n":1}`))
	}

	remaining, err := s.ProcessRetryQueue(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}
