// Package feedback forwards negative customer feedback to the
// external collector and gives it best-effort durability: a submit
// that dies in transit is queued in durable storage and replayed
// later.  Application-level rejections (the collector answered with
// an error status) are not retryable and never enter the queue.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/storage"
)

// retryQueueKey is the durable list backing the queue.  It is a
// namespace of its own, disjoint from the session and cart keys.
const retryQueueKey = "riviera:feedback:retry"

// HTTPError reports a collector response with a non-2xx status.
// It deliberately does not unwrap to a transport error so callers
// can tell the two failure classes apart.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("feedback: collector returned %d: %s", e.Status, e.Body)
}

// Service posts feedback payloads to the collector URL and owns the
// retry queue.  The now field is swappable for tests.
type Service struct {
	collectorURL string
	httpc        *http.Client
	kv           storage.KV
	now          func() time.Time
}

// NewService builds a service for the given collector endpoint.
func NewService(collectorURL string, kv storage.KV) *Service {
	return &Service{
		collectorURL: collectorURL,
		httpc:        &http.Client{Timeout: 10 * time.Second},
		kv:           kv,
		now:          time.Now,
	}
}

// post performs one POST of the raw payload.  A returned *HTTPError
// means the collector rejected the payload; any other error is a
// transport failure.
func (s *Service) post(ctx context.Context, payload json.RawMessage) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.collectorURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// Submit performs a single POST.  On a transport failure the payload
// is queued for a later replay and the error is still returned, so
// the caller can show a "saved for later" message.  On an HTTP-level
// rejection the error is returned without queueing.
func (s *Service) Submit(ctx context.Context, payload json.RawMessage) error {
	err := s.post(ctx, payload)
	if err == nil {
		return nil
	}
	if _, rejected := err.(*HTTPError); rejected {
		return err
	}
	s.Enqueue(ctx, payload)
	return fmt.Errorf("feedback: submit failed, queued for retry: %w", err)
}

// Enqueue appends the payload to the durable queue.  Storage errors
// are logged and swallowed: losing one retry entry is preferable to
// failing a flow that has already failed once.
func (s *Service) Enqueue(ctx context.Context, payload json.RawMessage) {
	entry := model.RetryEntry{
		ID:        uuid.NewString(),
		Payload:   payload,
		Timestamp: s.now().UTC(),
	}
	b, err := json.Marshal(entry)
	if err != nil {
		log.Printf("feedback: marshal retry entry: %v", err)
		return
	}
	if err := s.kv.ListPush(ctx, retryQueueKey, b); err != nil {
		log.Printf("feedback: queue retry entry: %v", err)
	}
}

// QueueLen reports how many entries are waiting for a replay.
func (s *Service) QueueLen(ctx context.Context) (int, error) {
	raw, err := s.kv.ListAll(ctx, retryQueueKey)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

// ProcessRetryQueue replays every queued entry concurrently and
// waits for all attempts to settle.  Entries that made it through
// are removed from the queue one at a time by their stored bytes,
// correlated by entry id; failed entries stay put, and an entry
// enqueued while the flush is in flight is never touched.
// Undecodable entries are dropped.  Returns how many of the
// replayed entries remain queued.
func (s *Service) ProcessRetryQueue(ctx context.Context) (int, error) {
	raw, err := s.kv.ListAll(ctx, retryQueueKey)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}

	type queued struct {
		entry model.RetryEntry
		raw   []byte
	}
	entries := make([]queued, 0, len(raw))
	for _, b := range raw {
		var e model.RetryEntry
		if err := json.Unmarshal(b, &e); err != nil {
			log.Printf("feedback: dropping corrupt retry entry: %v", err)
			if err := s.kv.ListRemove(ctx, retryQueueKey, b); err != nil {
				log.Printf("feedback: drop corrupt retry entry: %v", err)
			}
			continue
		}
		entries = append(entries, queued{entry: e, raw: b})
	}

	failed := make(map[string]bool, len(entries))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, q := range entries {
		wg.Add(1)
		go func(e model.RetryEntry) {
			defer wg.Done()
			if err := s.post(ctx, e.Payload); err != nil {
				mu.Lock()
				failed[e.ID] = true
				mu.Unlock()
			}
		}(q.entry)
	}
	wg.Wait()

	remaining := 0
	var firstErr error
	for _, q := range entries {
		if failed[q.entry.ID] {
			remaining++
			continue
		}
		if err := s.kv.ListRemove(ctx, retryQueueKey, q.raw); err != nil {
			// The entry stays queued; it will be retried with the
			// next flush.
			remaining++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return remaining, firstErr
}

// RunFlusher replays the queue on an interval until the context is
// cancelled.  Errors are logged; the next tick tries again.
func (s *Service) RunFlusher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining, err := s.ProcessRetryQueue(ctx)
			if err != nil {
				log.Printf("feedback: retry flush: %v", err)
				continue
			}
			if remaining > 0 {
				log.Printf("feedback: %d retry entries still queued", remaining)
			}
		}
	}
}
