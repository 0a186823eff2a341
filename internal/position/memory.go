package position

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	ms        int64
	expiresAt time.Time
}

// MemoryStore keeps positions in process memory.
type MemoryStore struct {
	opts options

	mu    sync.Mutex
	items map[string]memoryItem
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts:  buildOptions(opts),
		items: make(map[string]memoryItem),
	}
}

func (s *MemoryStore) Put(_ context.Context, key string, ms int64) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	s.items[key] = memoryItem{ms: ms, expiresAt: s.opts.now().Add(s.opts.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (int64, bool, error) {
	if key == "" {
		return 0, false, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return 0, false, nil
	}
	if !s.opts.now().Before(item.expiresAt) {
		delete(s.items, key)
		return 0, false, nil
	}
	return item.ms, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, item := range s.items {
		if !now.Before(item.expiresAt) {
			delete(s.items, key)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
