// Package memory provides process-local state that is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"
)

// WindowStore keeps attempt timestamps per key in memory
type WindowStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewWindowStore returns an empty window store
func NewWindowStore() *WindowStore {
	return &WindowStore{
		attempts: make(map[string][]time.Time),
	}
}

// Allow prunes, checks and records under one lock so that two concurrent
// callers cannot both take the last slot.
func (s *WindowStore) Allow(_ context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := prune(s.attempts[key], now, window)
	if len(recent) >= limit {
		s.attempts[key] = recent
		return false, nil
	}

	s.attempts[key] = append(recent, now)
	return true, nil
}

// Prune drops expired attempts and forgets keys with none left.
// It returns the number of keys removed.
func (s *WindowStore) Prune(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for key, attempts := range s.attempts {
		recent := prune(attempts, now, window)
		if len(recent) == 0 {
			delete(s.attempts, key)
			removed++
			continue
		}
		s.attempts[key] = recent
	}

	return removed
}

// Len returns the number of tracked keys
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

func prune(attempts []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(attempts) && now.Sub(attempts[i]) >= window {
		i++
	}
	return attempts[i:]
}
