package main

import "sync"

// slot holds a value written by the signaling goroutine and read by others.
type slot[T any] struct {
	mu  sync.Mutex
	v   T
	set bool
}

func (s *slot[T]) Store(v T) {
	s.mu.Lock()
	s.v, s.set = v, true
	s.mu.Unlock()
}

// Load returns the stored value and whether one was stored.
func (s *slot[T]) Load() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v, s.set
}
