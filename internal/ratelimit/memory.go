package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process timestamp table. It is scoped to one
// process: two gateway instances with MemoryStore enforce their limits
// independently.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty timestamp table.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string][]time.Time)}
}

func (s *MemoryStore) Trim(_ context.Context, key string, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamps, ok := s.windows[key]
	if !ok {
		return nil
	}

	i := 0
	for i < len(stamps) && stamps[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return nil
	}
	if i == len(stamps) {
		// Empty windows are dropped so idle identifiers don't leak memory.
		delete(s.windows, key)
		return nil
	}
	s.windows[key] = append(stamps[:0:0], stamps[i:]...)
	return nil
}

func (s *MemoryStore) Timestamps(_ context.Context, key string) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamps := s.windows[key]
	out := make([]time.Time, len(stamps))
	copy(out, stamps)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, key string, t time.Time, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.windows[key] = append(s.windows[key], t)
	return nil
}

// Len reports the number of tracked identifiers. Used by tests and the
// health endpoint.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
