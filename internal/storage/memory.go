package storage

import (
	"bytes"
	"context"
	"sync"
)

// MemoryKV is an in-process KV used by tests and as a graceful
// fallback when Redis is unreachable at startup (the server keeps
// working, state just does not survive a restart).
type MemoryKV struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	lists map[string][][]byte
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		blobs: make(map[string][]byte),
		lists: make(map[string][][]byte),
	}
}

func (s *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (s *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, len(value))
	copy(b, value)
	s.blobs[key] = b
	return nil
}

func (s *MemoryKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *MemoryKV) ListAll(_ context.Context, key string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.lists[key]
	out := make([][]byte, 0, len(src))
	for _, v := range src {
		b := make([]byte, len(v))
		copy(b, v)
		out = append(out, b)
	}
	return out, nil
}

func (s *MemoryKV) ListPush(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := make([]byte, len(value))
	copy(b, value)
	s.lists[key] = append(s.lists[key], b)
	return nil
}

func (s *MemoryKV) ListRemove(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[key]
	for i, v := range list {
		if bytes.Equal(v, value) {
			s.lists[key] = append(list[:i], list[i+1:]...)
			if len(s.lists[key]) == 0 {
				delete(s.lists, key)
			}
			return nil
		}
	}
	return nil
}
