// Package notify provides a single-value mailbox that always holds the most
// recent value put into it.
package notify

import (
	"context"
	"sync"
)

// Slot keeps only the latest value. Producers never block; a slow consumer
// skips intermediate values and sees the newest one.
type Slot[T any] struct {
	mu   sync.Mutex
	val  T
	full bool
	wake chan struct{}
}

func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{wake: make(chan struct{}, 1)}
}

// Put replaces the pending value.
func (s *Slot[T]) Put(v T) {
	s.mu.Lock()
	s.val = v
	s.full = true
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Take removes and returns the pending value, if any.
func (s *Slot[T]) Take() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.val, s.full
	var zero T
	s.val, s.full = zero, false
	return v, ok
}

// Drain calls fn with each value as it arrives until ctx is done.
func (s *Slot[T]) Drain(ctx context.Context, fn func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			if v, ok := s.Take(); ok {
				fn(v)
			}
		}
	}
}
